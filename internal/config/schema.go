// Package config provides configuration loading and validation for
// .kitci/config.json.
package config

// Config represents the complete .kitci/config.json configuration.
// Every section is optional; applyDefaults fills in what is missing.
type Config struct {
	Project   ProjectConfig    `json:"project"`
	Engine    *EngineConfig    `json:"engine,omitempty"`
	Tests     *TestsConfig     `json:"tests,omitempty"`
	Discovery *DiscoveryConfig `json:"discovery,omitempty"`
	Version   *VersionConfig   `json:"version,omitempty"`
	Package   *PackageConfig   `json:"package,omitempty"`
	CI        *CIConfig        `json:"ci,omitempty"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// EngineConfig describes how the external test engine is invoked.
//
// Command and CoverageArgs are templates. Placeholders:
//
//	{path}             test path for this invocation
//	{output}           result document path
//	{coverage}         comma-separated coverage targets (CoverageArgs only)
//	{coverage_output}  coverage document path (CoverageArgs only)
type EngineConfig struct {
	Command        string `json:"command,omitempty"`
	CoverageArgs   string `json:"coverage_args,omitempty"`
	Format         string `json:"format,omitempty"`          // "nunit" or "junit"
	CoverageFormat string `json:"coverage_format,omitempty"` // "jacoco"
	CoverageFile   string `json:"coverage_file,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
}

// TestsConfig configures the test stage.
type TestsConfig struct {
	ResultsFile string `json:"results_file,omitempty"`
	OutputDir   string `json:"output_dir,omitempty"`
	ModulesFile string `json:"modules_file,omitempty"` // Optional explicit module list
	MetricsFile string `json:"metrics_file,omitempty"` // Optional Prometheus textfile
}

// DiscoveryConfig configures module auto-discovery.
type DiscoveryConfig struct {
	ManifestPattern string   `json:"manifest_pattern,omitempty"`
	LibraryPattern  string   `json:"library_pattern,omitempty"`
	Exclude         []string `json:"exclude,omitempty"`
}

// VersionConfig configures manifest version stamping.
type VersionConfig struct {
	ManifestPattern string              `json:"manifest_pattern,omitempty"`
	ManifestReplace string              `json:"manifest_replace,omitempty"`
	Files           []VersionFileConfig `json:"files,omitempty"`
}

// VersionFileConfig defines an extra version file update rule.
type VersionFileConfig struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Replace string `json:"replace"`
}

// PackageConfig configures the packaging stage.
type PackageConfig struct {
	OutputDir  string   `json:"output_dir,omitempty"`
	Command    string   `json:"command,omitempty"` // External packaging tool, {nuspec} and {output} placeholders
	Authors    string   `json:"authors,omitempty"`
	Owners     string   `json:"owners,omitempty"`
	ProjectURL string   `json:"project_url,omitempty"`
	LicenseURL string   `json:"license_url,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// CIConfig configures the CI integration.
type CIConfig struct {
	Provider   string `json:"provider,omitempty"`    // "appveyor" or "none"
	ResultsURL string `json:"results_url,omitempty"` // Test results upload endpoint, {job_id} placeholder
}
