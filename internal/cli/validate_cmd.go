package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and the module list",
		Long: `Validate .kitci/config.json against its schema and check that every module
descriptor carries a name and a path. Nothing is run.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			descriptors, source, err := proj.Modules()
			if err != nil {
				return err
			}
			if proj.HasConfig {
				a.out.ValidationSuccess("%s is valid", relPath(proj.Root, proj.ConfigPath()))
			} else {
				a.out.Info("No config file found; using defaults.")
			}
			a.out.ValidationSuccess("%d module descriptor(s) from %s are valid", len(descriptors), source)
			return nil
		},
	}
}
