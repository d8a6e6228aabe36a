package project

import (
	"github.com/AndreyAkinshin/kitci/internal/module"
)

// Source reports where a project's module list came from.
type Source string

const (
	SourceList      Source = "list"
	SourceDiscovery Source = "discovery"
)

// Modules returns the project's module descriptors: the configured module
// list when tests.modules_file is set, otherwise the result of discovery
// over the project root. Relative module paths in a list are resolved
// against the project root.
func (p *Project) Modules() ([]module.Descriptor, Source, error) {
	if file := p.Config.Tests.ModulesFile; file != "" {
		descriptors, err := module.LoadList(p.Path(file))
		if err != nil {
			return nil, SourceList, err
		}
		for i := range descriptors {
			descriptors[i].Path = p.Path(descriptors[i].Path)
		}
		return descriptors, SourceList, nil
	}

	descriptors, err := module.Discover(p.Root, module.DiscoverOptions{
		ManifestPattern: p.Config.Discovery.ManifestPattern,
		LibraryPattern:  p.Config.Discovery.LibraryPattern,
		Exclude:         p.Config.Discovery.Exclude,
	})
	return descriptors, SourceDiscovery, err
}
