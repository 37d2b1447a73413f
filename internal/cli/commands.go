package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/whispers/backend/internal/app"
	"github.com/zhouzirui/whispers/backend/internal/view"
)

func newNotesCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "Print the current therapy notes snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Memory.TherapyNotes())
			})
		},
	}
}

func newSessionsCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List closed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(a *app.App) error {
				out := cmd.OutOrStdout()
				sessions := a.Memory.Sessions()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions recorded.")
					return nil
				}
				for _, s := range sessions {
					fmt.Fprintf(out, "%s  %s  %d messages  %s  %s\n",
						s.ID, s.Date.Format("2006-01-02"), s.MessageCount, s.EmotionalTone, strings.Join(s.KeyTopics, ", "))
				}
				return nil
			})
		},
	}
}

func newGardenCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "garden",
		Short: "Show garden stage, seeds and quest progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(a *app.App) error {
				g := view.NewGarden(a.Game.State())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s (%.0f%%)\n", g.Stage.Emoji, g.Stage.Name, g.Stage.Progress)
				fmt.Fprintf(out, "seeds: %d total, %d today\n", g.TotalSeeds, g.DailySeeds)
				fmt.Fprintf(out, "streak: %d days, badges earned: %d\n", g.Streak, g.BadgesEarned)
				for _, q := range g.Quests {
					fmt.Fprintf(out, "quest %s: %d%%\n", q.Title, q.Progress)
				}
				return nil
			})
		},
	}
}

func newJournalCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "List journal memories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(a *app.App) error {
				for _, m := range a.Journal.List() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s] %s: %s\n", m.ID, m.Emotion, m.Title, m.Description)
				}
				return nil
			})
		},
	}
}

func newSendCmd(factory Factory) *cobra.Command {
	var personaID string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Run one exchange against the configured responder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(a *app.App) error {
				ctx := cmd.Context()
				conv, _, err := a.Chat.CreateConversation(ctx, personaID)
				if err != nil {
					return err
				}
				result, err := a.Companion.Send(ctx, conv.ID, strings.Join(args, " "))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, result.CompanionMessage.Text)
				fmt.Fprintf(out, "emotion=%s tag=%s seeds=+%d\n", result.Emotion, result.MemoryTag, result.SeedsEarned)
				if len(result.NewBadges) > 0 {
					fmt.Fprintf(out, "badges: %s\n", strings.Join(result.NewBadges, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&personaID, "persona", "", "persona id (defaults to the configured persona)")
	return cmd
}

func newExportCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump all persisted documents as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(a *app.App) error {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"memory":       a.Memory.Snapshot(),
					"gamification": a.Game.State(),
					"journal":      a.Journal.List(),
				})
			})
		},
	}
}

func newResetCmd(factory Factory) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the memory, gamification and journal documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			return withApp(cmd, factory, func(a *app.App) error {
				return resetStore(cmd.Context(), a, cmd)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func resetStore(ctx context.Context, a *app.App, cmd *cobra.Command) error {
	keys := []string{a.Config.Store.Key, a.Config.Store.GamificationKey, a.Config.Store.JournalKey}
	for _, key := range keys {
		if err := a.Store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
	}
	return nil
}
