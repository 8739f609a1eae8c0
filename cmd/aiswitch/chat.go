package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"aiswitch/internal/config"
	"aiswitch/internal/turn"
)

var chatExitWords = map[string]bool{
	"exit": true, "quit": true, "/exit": true, "/quit": true,
}

func newChatCmd() *cobra.Command {
	var preferProvider string
	var confirm string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive REPL, routed turn by turn to the best available provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := parseConfirmPolicy(confirm)
			if err != nil {
				return err
			}

			rt, err := newAppRuntime()
			if err != nil {
				return fmt.Errorf("initializing: %w", err)
			}
			defer rt.close()

			watcher, err := config.NewWatcher(config.UserGlobalPath(), rt.repoConfigPath)
			if err != nil {
				return fmt.Errorf("starting config watcher: %w", err)
			}
			watcher.Start()

			fmt.Fprintln(cmd.OutOrStdout(), "aiswitch chat — Ctrl-C or 'exit' to quit")
			return runChatLoop(cmd, rt, watcher, preferProvider, policy)
		},
	}

	cmd.Flags().StringVar(&preferProvider, "prefer", "", "bias provider order for this session (claude|codex)")
	cmd.Flags().StringVar(&confirm, "confirm", string(confirmAsk), "failover confirmation policy: ask, yes, or no")
	return cmd
}

// reloadConfig picks up the latest repo-local config before each turn, so an
// edit to .aiswitch/config.toml mid-session takes effect on the next prompt
// without restarting the REPL.
func reloadConfig(rt *appRuntime, watcher *config.Watcher, preferProvider string) {
	cfg := watcher.GetConfig()
	rt.driver.Config = cfg.RouterConfig()
	rt.driver.Config.ProviderOrder = applyProviderBias(rt.driver.Config.ProviderOrder, preferProvider)
}

func runChatLoop(cmd *cobra.Command, rt *appRuntime, watcher *config.Watcher, preferProvider string, policy confirmPolicy) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".aiswitch_history"),
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return runSimpleChatLoop(cmd, rt, watcher, preferProvider, policy)
	}
	defer rl.Close()

	ctx := context.Background()
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(cmd.OutOrStdout(), "Goodbye.")
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if chatExitWords[strings.ToLower(input)] {
			fmt.Fprintln(cmd.OutOrStdout(), "Goodbye.")
			return nil
		}

		reloadConfig(rt, watcher, preferProvider)
		outcome, err := rt.driver.Run(ctx, turn.ModeChat, input, buildConfirmSwitch(policy), onProviderStartNotice(), nil)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "unexpected error: %v\n", err)
			continue
		}
		printOutcome(cmd, outcome)
	}
}

// runSimpleChatLoop is the fallback path when readline can't attach to the
// current terminal (e.g. piped stdin in a test harness).
func runSimpleChatLoop(cmd *cobra.Command, rt *appRuntime, watcher *config.Watcher, preferProvider string, policy confirmPolicy) error {
	ctx := context.Background()
	reader := bufio.NewReader(cmd.InOrStdin())

	for {
		fmt.Fprint(cmd.OutOrStdout(), "you> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "\nGoodbye.")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if chatExitWords[strings.ToLower(input)] {
			fmt.Fprintln(cmd.OutOrStdout(), "Goodbye.")
			return nil
		}

		reloadConfig(rt, watcher, preferProvider)
		outcome, err := rt.driver.Run(ctx, turn.ModeChat, input, buildConfirmSwitch(policy), onProviderStartNotice(), nil)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "unexpected error: %v\n", err)
			continue
		}
		printOutcome(cmd, outcome)
	}
}
