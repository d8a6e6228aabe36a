package cli

import (
	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/config"
	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/project"
	"github.com/AndreyAkinshin/kitci/internal/version"
)

func (a *app) stampCommand() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "stamp [version]",
		Short: "Stamp module manifests and version files with a build version",
		Long: `Rewrite the version field of every module manifest and every file listed in
version.files. Without an argument the CI build version is used.`,
		Example: `  kitci stamp 1.4.0
  kitci stamp --check 1.4.0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			v, err := resolveVersion(proj, args)
			if err != nil {
				return err
			}
			if check {
				return a.checkVersion(proj, v)
			}
			return a.stamp(proj, v)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "report files whose version differs instead of rewriting them")
	return cmd
}

// resolveVersion takes the version argument, or the CI build version when
// none is given.
func resolveVersion(proj *project.Project, args []string) (string, error) {
	v := ""
	if len(args) > 0 {
		v = args[0]
	} else {
		v = ci.Probe(proj.Config.CI.Provider).BuildVersion
	}
	if v == "" {
		return "", kerrors.Config("no version given and no CI build version available")
	}
	if err := version.Validate(v); err != nil {
		return "", kerrors.Config(err.Error())
	}
	return v, nil
}

// versionFiles resolves configured version file paths against the project root.
func versionFiles(proj *project.Project) []config.VersionFileConfig {
	files := make([]config.VersionFileConfig, len(proj.Config.Version.Files))
	for i, f := range proj.Config.Version.Files {
		f.Path = proj.Path(f.Path)
		files[i] = f
	}
	return files
}

func (a *app) stamp(proj *project.Project, v string) error {
	cfg := proj.Config
	descriptors, _, err := proj.Modules()
	if err != nil {
		return err
	}

	a.out.Step(1, "Stamping module manifests")
	for _, d := range descriptors {
		manifest := d.ManifestPath(cfg.Discovery.ManifestPattern)
		if err := version.StampManifest(manifest, cfg.Version.ManifestPattern, cfg.Version.ManifestReplace, v); err != nil {
			return kerrors.ModuleError(d.Name, "stamp", err.Error())
		}
		a.out.StepDetail("%s", relPath(proj.Root, manifest))
		a.logger.Debug("stamped manifest", "module", d.Name, "file", manifest)
	}

	files := versionFiles(proj)
	if len(files) > 0 {
		a.out.Step(2, "Updating version files")
		if err := version.Propagate(v, files); err != nil {
			return err
		}
		for _, f := range files {
			a.out.StepDetail("%s", relPath(proj.Root, f.Path))
		}
	}

	a.out.Success("Stamped %d manifest(s) and %d file(s) with %s", len(descriptors), len(cfg.Version.Files), v)
	return nil
}

func (a *app) checkVersion(proj *project.Project, v string) error {
	mismatches := version.CheckConsistency(v, versionFiles(proj))
	if len(mismatches) == 0 {
		a.out.ValidationSuccess("all version files are at %s", v)
		return nil
	}
	for _, m := range mismatches {
		a.out.WarningSimple("%s", m)
	}
	return kerrors.Configf("%d version file(s) are not at %s", len(mismatches), v)
}
