package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/assetpack/internal/core/asset"
	"github.com/zeusync/assetpack/internal/core/manager"
	"github.com/zeusync/assetpack/internal/injector"
)

func newBuildCommand() *cobra.Command {
	var (
		scenes []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Serialize project scenes into a pack file",
		Long: `Serialize scenes and the assets they reference into a pack file.

Without --scene every scene in the asset registry is built. The pack is
written to the project's pack path unless --output is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, scenes, output)
		},
	}

	cmd.Flags().StringSliceVarP(&scenes, "scene", "s", nil, "scene handle to build (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "pack file to write (default is the project's pack path)")

	return cmd
}

func runBuild(cmd *cobra.Command, scenes []string, output string) error {
	handles := make([]asset.Handle, 0, len(scenes))
	for _, s := range scenes {
		h, err := asset.ParseHandle(s)
		if err != nil {
			return fmt.Errorf("--scene %q: %w", s, err)
		}
		handles = append(handles, h)
	}

	editor, err := injector.InitializeEditor(injector.ProjectPath(projectFile))
	if err != nil {
		return err
	}
	if err = editor.DeserializeAll(); err != nil {
		return err
	}

	proj := editor.Project()
	p, err := manager.BuildPack(cmd.Context(), editor, proj, handles)
	if err != nil {
		return err
	}
	defer p.Close()

	if output == "" {
		output = proj.PackFile()
	}
	if err = p.Save(output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "wrote %s\n", output)
	for _, rec := range p.Scenes() {
		fmt.Fprintf(out, "  scene %s %q: %d entities, %d assets\n", rec.Handle, rec.Name, len(rec.Entities), len(rec.Assets))
	}
	return nil
}
