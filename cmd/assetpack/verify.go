package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/manager"
	"github.com/zeusync/assetpack/internal/injector"
	"github.com/zeusync/assetpack/pkg/concurrent"
)

func newVerifyCommand() *cobra.Command {
	var decodeAssets bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Load the project's pack and decode every scene",
		Long: `Load the project's pack the way a runtime does and decode every scene.

With --assets every non-scene asset is decoded as well. The command exits
with status 2 when anything failed to decode and 3 when the pack
itself cannot be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, decodeAssets)
		},
	}

	cmd.Flags().BoolVarP(&decodeAssets, "assets", "a", false, "decode non-scene assets too")

	return cmd
}

func runVerify(cmd *cobra.Command, decodeAssets bool) error {
	rt, err := injector.InitializeRuntime(injector.ProjectPath(projectFile))
	if err != nil {
		return err
	}
	defer rt.Close()

	if err = rt.DeserializeAll(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := rt.Report()
	failed := len(report.Failed)
	for _, f := range report.Failed {
		fmt.Fprintf(out, "FAIL scene %s: %v\n", f.Handle, f.Err)
	}
	if decodeAssets {
		n, err := verifyAssets(cmd, rt)
		if err != nil {
			return err
		}
		failed += n
	}

	fmt.Fprintf(out, "%d scenes decoded, %d failures\n", len(report.Scenes), failed)
	if failed > 0 {
		return &ExitError{Code: exitDecode}
	}
	return nil
}

// verifyAssets decodes every non-scene asset on the runtime's worker and
// returns how many failed.
func verifyAssets(cmd *cobra.Command, rt *manager.Runtime) (int, error) {
	ctx := cmd.Context()
	var handles []asset.Handle
	for _, t := range []asset.Type{asset.TypeTexture2D, asset.TypeFont, asset.TypeAudio, asset.TypeScript} {
		for _, m := range rt.Store().OfType(t) {
			handles = append(handles, m.Handle)
		}
	}

	// A record that cannot be read is marked Invalid by DecodeAsync and
	// counted below.
	for _, h := range handles {
		err := rt.DecodeAsync(ctx, h)
		if errors.Is(err, concurrent.ErrQueueFull) {
			if err = rt.Await(ctx); err != nil {
				return 0, err
			}
			err = rt.DecodeAsync(ctx, h)
		}
		if err != nil && (ctx.Err() != nil || errors.Is(err, concurrent.ErrQueueFull)) {
			return 0, err
		}
	}
	if err := rt.Await(ctx); err != nil {
		return 0, err
	}

	failed := 0
	for _, h := range handles {
		if m, err := rt.Store().Get(h); err == nil && m.Status == asset.StatusInvalid {
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s %s\n", m.Type, h)
			failed++
		}
	}
	return failed, nil
}
