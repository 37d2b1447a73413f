// Package cli defines the Cobra command tree for whisperctl, the
// operator tool for inspecting and resetting persisted companion data.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/whispers/backend/internal/app"
	"github.com/zhouzirui/whispers/backend/internal/config"
	"github.com/zhouzirui/whispers/backend/internal/logger"
)

// Factory builds the application a command operates on.
type Factory func(ctx context.Context) (*app.App, error)

// DefaultFactory loads .env, the TOML overlay and the environment, then
// opens the configured store.
func DefaultFactory(ctx context.Context) (*app.App, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, *cfg, log)
}

// NewRootCmd returns the whisperctl command tree.
func NewRootCmd(factory Factory) *cobra.Command {
	root := &cobra.Command{
		Use:   "whisperctl",
		Short: "Inspect and manage persisted reflection data",
		Long: `whisperctl reads the memory, gamification and journal documents from
the configured store.

Examples:
  whisperctl notes
  whisperctl garden
  whisperctl send "I had a calm morning"
  whisperctl reset --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newNotesCmd(factory),
		newSessionsCmd(factory),
		newGardenCmd(factory),
		newJournalCmd(factory),
		newSendCmd(factory),
		newExportCmd(factory),
		newResetCmd(factory),
	)
	return root
}

// Execute runs the root command against the configured store.
func Execute() {
	if err := NewRootCmd(DefaultFactory).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp opens the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, factory Factory, fn func(a *app.App) error) error {
	a, err := factory(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
