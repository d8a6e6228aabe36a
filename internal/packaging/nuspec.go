package packaging

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const nuspecNamespace = "http://schemas.microsoft.com/packaging/2011/08/nuspec.xsd"

// Nuspec is the package manifest consumed by the packaging tool.
type Nuspec struct {
	XMLName  xml.Name       `xml:"package"`
	Xmlns    string         `xml:"xmlns,attr"`
	Metadata NuspecMetadata `xml:"metadata"`
	Files    []NuspecFile   `xml:"files>file"`
}

// NuspecMetadata holds package metadata.
type NuspecMetadata struct {
	ID                       string `xml:"id"`
	Version                  string `xml:"version"`
	Title                    string `xml:"title,omitempty"`
	Authors                  string `xml:"authors"`
	Owners                   string `xml:"owners,omitempty"`
	LicenseURL               string `xml:"licenseUrl,omitempty"`
	ProjectURL               string `xml:"projectUrl,omitempty"`
	RequireLicenseAcceptance bool   `xml:"requireLicenseAcceptance"`
	Description              string `xml:"description"`
	Tags                     string `xml:"tags,omitempty"`
}

// NuspecFile maps source files into the package.
type NuspecFile struct {
	Src     string `xml:"src,attr"`
	Target  string `xml:"target,attr"`
	Exclude string `xml:"exclude,attr,omitempty"`
}

// NewNuspec builds a manifest for a module. Tags are space separated in the
// output as the packaging tool expects.
func NewNuspec(id, version, authors, description string, tags []string) *Nuspec {
	if authors == "" {
		authors = id
	}
	if description == "" {
		description = fmt.Sprintf("%s module", id)
	}
	return &Nuspec{
		Xmlns: nuspecNamespace,
		Metadata: NuspecMetadata{
			ID:          id,
			Version:     version,
			Title:       id,
			Authors:     authors,
			Description: description,
			Tags:        strings.Join(tags, " "),
		},
	}
}

// Write writes the manifest to path.
func (n *Nuspec) Write(path string) error {
	data, err := xml.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode nuspec: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	content := append([]byte(xml.Header), data...)
	content = append(content, '\n')
	return os.WriteFile(path, content, 0644)
}
