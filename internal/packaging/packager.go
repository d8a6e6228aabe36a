package packaging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/AndreyAkinshin/kitci/internal/ci"
	"github.com/AndreyAkinshin/kitci/internal/config"
	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/logging"
	"github.com/AndreyAkinshin/kitci/internal/module"
	"github.com/AndreyAkinshin/kitci/internal/version"
)

// Tool runs the external packaging tool with the given argv.
type Tool func(ctx context.Context, dir string, args []string) error

// ExecTool runs args as a child process in dir.
func ExecTool(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()
	if errors.Is(err, exec.ErrNotFound) {
		return kerrors.Environmentf("packaging tool %q not found in PATH", args[0])
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Options configures one packaging run.
type Options struct {
	Version string
	// SkipPack skips the external packaging tool; zip and checksum are
	// still produced.
	SkipPack bool
	// Description is used for every package; empty means a generated one.
	Description string
}

// Artifact is one file produced for a module.
type Artifact struct {
	Module string
	Kind   string // "zip", "checksum", "nuspec" or "package"
	Path   string
}

// Packager produces artifacts for modules.
type Packager struct {
	Package *config.PackageConfig
	Version *config.VersionConfig
	// ManifestPattern locates the manifest inside a module directory.
	ManifestPattern string
	// Exclude lists directory names left out of archives.
	Exclude []string

	Store  ci.ArtifactStore
	Tool   Tool
	Logger *logging.Logger
}

// Run packages every module in order: stamp the manifest, zip the module,
// write the checksum sidecar, generate the nuspec, run the packaging tool,
// then push the artifacts. Pushing is best-effort.
func (p *Packager) Run(ctx context.Context, modules []module.Descriptor, opts Options) ([]Artifact, error) {
	if err := version.Validate(opts.Version); err != nil {
		return nil, kerrors.Config(err.Error())
	}
	parsed, err := version.Parse(opts.Version)
	if err != nil {
		return nil, kerrors.Config(err.Error())
	}
	manifestVersion := parsed.ManifestVersion()
	if p.Tool == nil {
		p.Tool = ExecTool
	}
	if p.Store == nil {
		p.Store = ci.NoopStore{}
	}
	if p.Logger == nil {
		p.Logger = logging.Discard()
	}

	outDir, err := filepath.Abs(p.Package.OutputDir)
	if err != nil {
		return nil, err
	}

	var artifacts []Artifact
	for step, d := range modules {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		p.Logger.Info("packaging module", "step", step+1, "of", len(modules), "module", d.Name, "version", manifestVersion)

		produced, err := p.packageModule(ctx, d, outDir, manifestVersion, opts)
		artifacts = append(artifacts, produced...)
		if err != nil {
			return artifacts, err
		}
	}

	for _, a := range artifacts {
		if a.Kind == "nuspec" {
			continue
		}
		if err := p.Store.Push(ctx, a.Path); err != nil {
			p.Logger.Warn("failed to push artifact", "file", a.Path, "err", err)
		}
	}
	return artifacts, nil
}

func (p *Packager) packageModule(ctx context.Context, d module.Descriptor, outDir, v string, opts Options) ([]Artifact, error) {
	var artifacts []Artifact

	manifest := d.ManifestPath(p.ManifestPattern)
	if err := version.StampManifest(manifest, p.Version.ManifestPattern, p.Version.ManifestReplace, v); err != nil {
		return nil, kerrors.ModuleError(d.Name, "package", err.Error())
	}

	zipPath := filepath.Join(outDir, fmt.Sprintf("%s_%s.zip", d.Name, v))
	if err := Zip(d.Path, zipPath, p.skipFunc(d.Path, outDir)); err != nil {
		return nil, kerrors.ModuleError(d.Name, "package", err.Error())
	}
	artifacts = append(artifacts, Artifact{Module: d.Name, Kind: "zip", Path: zipPath})

	sumPath, err := WriteChecksum(zipPath)
	if err != nil {
		return artifacts, kerrors.ModuleError(d.Name, "package", err.Error())
	}
	artifacts = append(artifacts, Artifact{Module: d.Name, Kind: "checksum", Path: sumPath})

	if opts.SkipPack {
		return artifacts, nil
	}

	nuspecPath := filepath.Join(outDir, d.Name+".nuspec")
	if err := p.nuspec(d, v, nuspecPath, opts.Description).Write(nuspecPath); err != nil {
		return artifacts, kerrors.ModuleError(d.Name, "package", err.Error())
	}
	artifacts = append(artifacts, Artifact{Module: d.Name, Kind: "nuspec", Path: nuspecPath})

	args, err := renderCommand(p.Package.Command, nuspecPath, outDir)
	if err != nil {
		return artifacts, kerrors.Configf("package.command: %v", err)
	}
	if err := p.Tool(ctx, outDir, args); err != nil {
		var ke *kerrors.KitError
		if errors.As(err, &ke) {
			return artifacts, err
		}
		return artifacts, kerrors.ModuleError(d.Name, "package", err.Error())
	}

	pkgPath := filepath.Join(outDir, fmt.Sprintf("%s.%s.nupkg", d.Name, v))
	if _, err := os.Stat(pkgPath); err == nil {
		artifacts = append(artifacts, Artifact{Module: d.Name, Kind: "package", Path: pkgPath})
	} else {
		p.Logger.Warn("packaging tool produced no package at the expected path", "module", d.Name, "path", pkgPath)
	}
	return artifacts, nil
}

func (p *Packager) nuspec(d module.Descriptor, v, nuspecPath, description string) *Nuspec {
	n := NewNuspec(d.Name, v, p.Package.Authors, description, p.Package.Tags)
	n.Metadata.Owners = p.Package.Owners
	n.Metadata.ProjectURL = p.Package.ProjectURL
	n.Metadata.LicenseURL = p.Package.LicenseURL

	src, err := filepath.Rel(filepath.Dir(nuspecPath), d.Path)
	if err != nil {
		src = d.Path
	}
	excludes := make([]string, 0, len(p.Exclude)+1)
	for _, e := range p.Exclude {
		excludes = append(excludes, filepath.ToSlash(filepath.Join(src, e, "**")))
	}
	excludes = append(excludes, filepath.ToSlash(filepath.Join(src, ".*", "**")))
	n.Files = []NuspecFile{{
		Src:     filepath.ToSlash(filepath.Join(src, "**")),
		Target:  "",
		Exclude: strings.Join(excludes, ";"),
	}}
	return n
}

// artifactSuffixes name files produced by earlier packaging runs.
var artifactSuffixes = []string{".zip", ".nupkg", ".nuspec", ChecksumSuffix}

// skipFunc leaves hidden entries, excluded directories and the output
// directory out of module archives. When the output directory is the module
// directory itself, previously produced artifacts are skipped instead.
func (p *Packager) skipFunc(moduleDir, outDir string) func(string, bool) bool {
	absModule, _ := filepath.Abs(moduleDir)
	return func(rel string, isDir bool) bool {
		native := filepath.FromSlash(rel)
		base := filepath.Base(native)
		if strings.HasPrefix(base, ".") {
			return true
		}
		if !isDir {
			if filepath.Join(absModule, filepath.Dir(native)) != outDir {
				return false
			}
			for _, suffix := range artifactSuffixes {
				if strings.HasSuffix(base, suffix) {
					return true
				}
			}
			return false
		}
		for _, e := range p.Exclude {
			if strings.EqualFold(e, base) {
				return true
			}
		}
		return filepath.Join(absModule, filepath.FromSlash(rel)) == outDir
	}
}

// renderCommand splits the packaging command and fills in {nuspec} and
// {output}.
func renderCommand(template, nuspecPath, outDir string) ([]string, error) {
	args, err := shell.Fields(template, func(name string) string { return "$" + name })
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("command is empty")
	}
	r := strings.NewReplacer("{nuspec}", nuspecPath, "{output}", outDir)
	for i, a := range args {
		args[i] = r.Replace(a)
	}
	return args, nil
}
