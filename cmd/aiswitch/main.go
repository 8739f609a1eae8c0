// Command aiswitch routes prompt turns between the claude and codex CLIs,
// failing over automatically when one hits a quota limit or exhausts its
// transient rate-limit retries. Auth and other errors are reported without
// switching.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errSilentExit {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aiswitch",
		Short: "Automatic failover between the claude and codex CLIs",
		Long: `aiswitch sits in front of the claude and codex coding-assistant CLIs and
routes each prompt to whichever one is available, carrying a rolling
context handoff across failovers.`,
		SilenceUsage: true,
	}

	root.AddCommand(newAskCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newResetCmd())
	return root
}
