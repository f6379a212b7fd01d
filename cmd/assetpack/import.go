package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/assetpack/internal/injector"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Register source files in the asset registry",
		Long: `Register source files in the project's asset registry.

Paths are relative to the project's asset directory. A file that is
already registered keeps its handle.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, files []string) error {
	editor, err := injector.InitializeEditor(injector.ProjectPath(projectFile))
	if err != nil {
		return err
	}
	if err = editor.DeserializeAll(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		h, err := editor.ImportAsset(file)
		if err != nil {
			return fmt.Errorf("import %s: %w", file, err)
		}
		m, _ := editor.Store().Get(h)
		fmt.Fprintf(out, "%s %s %s\n", h, m.Type, m.FilePath)
	}
	return editor.SerializeAll()
}
