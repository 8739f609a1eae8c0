package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"aiswitch/internal/model"
	"aiswitch/internal/router"
)

// confirmPolicy is the CLI surface for the router's ConfirmSwitch hook:
// "ask" prompts interactively, "yes" always approves, "no" always declines.
type confirmPolicy string

const (
	confirmAsk confirmPolicy = "ask"
	confirmYes confirmPolicy = "yes"
	confirmNo  confirmPolicy = "no"
)

func parseConfirmPolicy(s string) (confirmPolicy, error) {
	switch confirmPolicy(s) {
	case confirmAsk, confirmYes, confirmNo:
		return confirmPolicy(s), nil
	default:
		return "", fmt.Errorf("invalid --confirm value %q: want one of ask, yes, no", s)
	}
}

// buildConfirmSwitch returns the ConfirmSwitch callback implied by policy.
// "ask" reads a line from stdin; only "y" or "yes" (any case) approves,
// anything else declines.
func buildConfirmSwitch(policy confirmPolicy) router.ConfirmSwitch {
	switch policy {
	case confirmYes:
		return func(from, to model.Provider, lastFailed *router.Result) bool { return true }
	case confirmNo:
		return func(from, to model.Provider, lastFailed *router.Result) bool { return false }
	default:
		return func(from, to model.Provider, lastFailed *router.Result) bool {
			fmt.Fprintf(os.Stderr, "\n%s unavailable — switch to %s? [y/N] ", from, to)
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return false
			}
			line = strings.ToLower(strings.TrimSpace(line))
			return line == "y" || line == "yes"
		}
	}
}

func onProviderStartNotice() func(model.Provider) {
	return func(p model.Provider) {}
}
