package cli

import (
	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/packaging"
)

type packageOptions struct {
	SkipPack    bool
	Description string
	Modules     []string
}

func (a *app) packageCommand() *cobra.Command {
	var opts packageOptions
	cmd := &cobra.Command{
		Use:   "package [version]",
		Short: "Zip, checksum and package every module",
		Long: `For every module: stamp the manifest, zip the module folder, write a
SHA-256 checksum next to the zip, generate a .nuspec and run the packaging
tool. Artifacts are pushed to the CI artifact store when available.
Without an argument the CI build version is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			v, err := resolveVersion(proj, args)
			if err != nil {
				return err
			}
			descriptors, _, err := proj.Modules()
			if err != nil {
				return err
			}
			descriptors, err = filterModules(descriptors, opts.Modules)
			if err != nil {
				return err
			}

			cfg := proj.Config
			pkgCfg := *cfg.Package
			pkgCfg.OutputDir = proj.Path(pkgCfg.OutputDir)
			description := opts.Description
			if description == "" {
				description = cfg.Project.Description
			}

			p := &packaging.Packager{
				Package:         &pkgCfg,
				Version:         cfg.Version,
				ManifestPattern: cfg.Discovery.ManifestPattern,
				Exclude:         cfg.Discovery.Exclude,
				Store:           artifactStore(ciClient(ci.Probe(cfg.CI.Provider))),
				Logger:          a.logger,
			}
			artifacts, err := p.Run(cmd.Context(), descriptors, packaging.Options{
				Version:     v,
				SkipPack:    opts.SkipPack,
				Description: description,
			})
			if len(artifacts) > 0 {
				rows := make([][]string, 0, len(artifacts))
				for _, art := range artifacts {
					rows = append(rows, []string{art.Module, art.Kind, relPath(proj.Root, art.Path)})
				}
				a.out.Table([]string{"Module", "Artifact", "Path"}, rows)
			}
			if err != nil {
				return err
			}
			a.out.Success("Packaged %d module(s) at %s", len(descriptors), v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.SkipPack, "skip-pack", false, "only produce the zip and checksum")
	cmd.Flags().StringVar(&opts.Description, "description", "", "package description (default: project.description)")
	cmd.Flags().StringSliceVarP(&opts.Modules, "module", "m", nil, "only package the named modules")
	return cmd
}
