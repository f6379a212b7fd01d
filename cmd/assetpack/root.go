package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// projectFile is the project configuration every command opens.
	projectFile string

	rootCmd = &cobra.Command{
		Use:   "assetpack",
		Short: "Build and inspect scene packs",
		Long: `assetpack manages the assets of a scene project.

Authoring assets are tracked by the project's asset registry. The build
command serializes scenes and everything they reference into a single
binary pack; inspect and verify read a pack back the way a runtime does.

Examples:
  assetpack import assets/textures/hero.png
  assetpack build
  assetpack inspect
  assetpack verify --project game/project.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFile, "project", "p", "project.yaml", "project file (yaml or json)")

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newImportCommand())
}

// Execute runs the root command and exits with the code carried by an
// ExitError, or 1 for any other failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
