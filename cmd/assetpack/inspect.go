package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeusync/assetpack/internal/core/observability/log"
	"github.com/zeusync/assetpack/internal/core/pack"
	"github.com/zeusync/assetpack/internal/core/project"
)

func newInspectCommand() *cobra.Command {
	var showEntities bool

	cmd := &cobra.Command{
		Use:   "inspect [pack-file]",
		Short: "Print a pack's header and scene index",
		Long: `Print a pack's header, scenes and asset records without decoding them.

The pack defaults to the project's pack path. Index entries that could not
be parsed are listed as broken.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runInspect(cmd.OutOrStdout(), path, showEntities)
		},
	}

	cmd.Flags().BoolVarP(&showEntities, "entities", "e", false, "list entity records")

	return cmd
}

func runInspect(out io.Writer, path string, showEntities bool) error {
	var proj *project.Project
	if path == "" {
		var err error
		if proj, err = project.Open(projectFile); err != nil {
			return err
		}
		path = proj.PackFile()
	} else {
		proj = project.New(project.DefaultConfig(filepath.Base(path)), filepath.Dir(path))
	}

	p := pack.New(proj, log.NewNop())
	if err := p.Load(path); err != nil {
		return err
	}
	defer p.Close()

	h := p.Header()
	fmt.Fprintf(out, "pack %s\n", path)
	fmt.Fprintf(out, "  magic %s version %d built %s\n", string(h.Magic[:]), h.Version, h.BuildTime.UTC().Format(time.RFC3339))

	for _, rec := range p.Scenes() {
		fmt.Fprintf(out, "scene %s %q step=%d offset=%d size=%d\n", rec.Handle, rec.Name, rec.StepFrames, rec.Offset, rec.Size)
		for _, ah := range rec.AssetHandles() {
			a := rec.Assets[ah]
			fmt.Fprintf(out, "  asset %s %s offset=%d size=%d\n", a.Handle, a.Type, a.Offset, a.Size)
		}
		if !showEntities {
			fmt.Fprintf(out, "  %d entities\n", len(rec.Entities))
			continue
		}
		for _, eh := range rec.EntityHandles() {
			e := rec.Entities[eh]
			fmt.Fprintf(out, "  entity %s offset=%d size=%d\n", e.Handle, e.Offset, e.Size)
		}
	}

	for _, b := range p.Broken() {
		fmt.Fprintf(out, "broken index %d handle %s: %v\n", b.Index, b.Handle, b.Err)
	}
	return nil
}
