package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aiswitch/internal/turn"
)

func newAskCmd() *cobra.Command {
	var preferProvider string
	var confirm string

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a single prompt to the best available provider and print the response",
		Args:  cobra.MinimumNArgs(1),
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

			rt.driver.Config.ProviderOrder = applyProviderBias(rt.driver.Config.ProviderOrder, preferProvider)

			prompt := strings.Join(args, " ")
			outcome, err := rt.driver.Run(context.Background(), turn.ModeAsk, prompt, buildConfirmSwitch(policy), onProviderStartNotice(), nil)
			if err != nil {
				return fmt.Errorf("running turn: %w", err)
			}

			printOutcome(cmd, outcome)
			if outcome.AllInCooldown || !outcome.Success {
				return errSilentExit
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preferProvider, "prefer", "", "bias provider order for this turn (claude|codex)")
	cmd.Flags().StringVar(&confirm, "confirm", string(confirmAsk), "failover confirmation policy: ask, yes, or no")
	return cmd
}
