package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitci/internal/module"
	"github.com/AndreyAkinshin/kitci/internal/project"
)

func (a *app) discoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List the modules the test stage would run",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			descriptors, source, err := proj.Modules()
			if err != nil {
				return err
			}
			a.printModules(proj, descriptors, source)
			return nil
		},
	}
}

func (a *app) printModules(proj *project.Project, descriptors []module.Descriptor, source project.Source) {
	if len(descriptors) == 0 {
		a.out.Info("No modules found (%s).", source)
		return
	}
	rows := make([][]string, 0, len(descriptors))
	for _, d := range descriptors {
		rows = append(rows, []string{
			d.Name,
			relPath(proj.Root, d.Path),
			fmt.Sprint(len(d.CodeCoverage)),
			strings.Join(d.TestPaths(), ", "),
		})
	}
	a.out.Table([]string{"Module", "Path", "Coverage Targets", "Tests"}, rows)
	a.out.Info("%d module(s) from %s.", len(descriptors), source)
}

// relPath shows path relative to root when it lies below it.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
