package main

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"aiswitch/internal/model"
)

func newStatusCmd() *cobra.Command {
	var showActive bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show provider availability, sessions, and cooldowns for this repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newAppRuntime()
			if err != nil {
				return fmt.Errorf("initializing: %w", err)
			}
			defer rt.close()

			now := time.Now().UTC()
			state := rt.store.LoadState(now)
			order := rt.driver.Config.ProviderOrder

			out := cmd.OutOrStdout()

			active := "none"
			if state.LastProvider != "" {
				active = string(state.LastProvider)
			}
			fmt.Fprintf(out, "Last provider: %s\n", active)
			fmt.Fprintf(out, "Available:     %s\n", availableProvidersSummary(state, order, now))
			fmt.Fprintf(out, "Total turns:   %d\n\n", state.TurnCount)

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Provider", "Status", "Session ID", "Last Used", "Cooldown", "Cooldown Until", "Cooldown Source"})
			for _, p := range order {
				ps := state.Get(p)
				inCooldown := ps.Cooldown.Active(now)

				status := "ready"
				if inCooldown {
					status = "cooldown"
				}

				table.Append([]string{
					string(p),
					status,
					truncateSessionID(ps.SessionID),
					formatLastUsed(ps.LastUsed),
					formatCooldownRemaining(ps, now),
					formatCooldownUntil(ps, now),
					formatCooldownSource(ps, now),
				})
			}
			table.Render()

			if showActive {
				printActiveRun(out, rt)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showActive, "active", false, "also print the active-run marker, if any")
	return cmd
}

func availableProvidersSummary(state *model.RepoState, order []model.Provider, now time.Time) string {
	var names []string
	for _, p := range order {
		if state.Get(p).IsAvailable(now) {
			names = append(names, string(p))
		}
	}
	if len(names) == 0 {
		return "none"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

func truncateSessionID(id string) string {
	if id == "" {
		return "—"
	}
	if len(id) > 20 {
		return id[:20] + "…"
	}
	return id
}

func formatLastUsed(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("2006-01-02 15:04")
}

func formatCooldownRemaining(ps *model.ProviderState, now time.Time) string {
	if !ps.Cooldown.Active(now) {
		return "—"
	}
	mins := int(ps.Cooldown.Until.Sub(now).Minutes())
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%d min", mins)
}

func formatCooldownUntil(ps *model.ProviderState, now time.Time) string {
	if !ps.Cooldown.Active(now) {
		return "—"
	}
	utc := ps.Cooldown.Until.UTC().Format("2006-01-02 15:04 UTC")
	local := ps.Cooldown.Until.Local().Format("2006-01-02 15:04 MST")
	return utc + " / " + local
}

func formatCooldownSource(ps *model.ProviderState, now time.Time) string {
	if !ps.Cooldown.Active(now) {
		return "—"
	}
	if ps.Cooldown.Source == "" {
		return "unknown"
	}
	return ps.Cooldown.Source
}

func printActiveRun(out io.Writer, rt *appRuntime) {
	run := rt.store.LoadActiveRun()
	if run == nil {
		fmt.Fprintln(out, "\nActive run: none")
		return
	}
	fmt.Fprintf(out, "\nActive run: turn=%s pid=%d mode=%s provider=%s started=%s prompt=%q\n",
		run.TurnID, run.PID, run.Mode, run.Provider, run.StartedAt.Format(time.RFC3339), run.PromptExcerpt)
}
