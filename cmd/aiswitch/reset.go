package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all aiswitch state for this repository",
		Long: `Deletes the .aiswitch/ directory for the current repository: sessions,
cooldowns, the rolling handoff document, and the transcript log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newAppRuntime()
			if err != nil {
				return fmt.Errorf("initializing: %w", err)
			}
			defer rt.close()

			if _, err := os.Stat(rt.store.Dir); os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to reset — .aiswitch/ does not exist.")
				return nil
			}

			if !yes {
				confirmed, err := confirmReset(cmd)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := rt.store.Wipe(); err != nil {
				return fmt.Errorf("clearing .aiswitch/: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared .aiswitch/ for this repository.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirmReset prompts on an interactive terminal; on a non-terminal stdin
// (pipes, CI) it refuses rather than silently deleting state.
func confirmReset(cmd *cobra.Command) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("refusing to reset without --yes on a non-interactive terminal")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Delete all .aiswitch/ state (sessions, handoff, transcript)? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}
