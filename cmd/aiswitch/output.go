package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"aiswitch/internal/turn"
)

// errSilentExit signals "exit 1, the failure has already been printed" —
// RunE still needs to return a non-nil error for cobra to set the exit
// code, but main must not print it again.
var errSilentExit = errors.New("silent exit")

func printOutcome(cmd *cobra.Command, outcome turn.Outcome) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if outcome.AllInCooldown {
		fmt.Fprintln(errOut, "✗ All providers are in cooldown. Run `aiswitch status` to see timers.")
		return
	}

	if outcome.PreviousProvider != "" && outcome.Provider != "" && outcome.PreviousProvider != outcome.Provider {
		fmt.Fprintf(errOut, "⚡ %s unavailable — switching to %s (context injected)\n", outcome.PreviousProvider, outcome.Provider)
	}

	if outcome.Success {
		fmt.Fprintf(out, "\n◆ %s\n\n%s\n", outcome.Provider, outcome.Text)
		return
	}

	fmt.Fprintf(errOut, "\n✗ %s error [%s] %s\n", outcome.Provider, outcome.ErrorClass, outcome.ErrorMessage)
}
