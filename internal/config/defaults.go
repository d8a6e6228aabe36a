package config

// Default configuration values.
const (
	DefaultEngineCommand   = `pwsh -NoProfile -NonInteractive -Command "Invoke-Pester -Script {path} -OutputFormat NUnitXml -OutputFile {output} -PassThru"`
	DefaultCoverageArgs    = `-CodeCoverage {coverage} -CodeCoverageOutputFile {coverage_output}`
	DefaultEngineFormat    = "nunit"
	DefaultCoverageFormat  = "jacoco"
	DefaultCoverageFile    = "CodeCoverage.xml"
	DefaultEngineLogFile   = "TestsOutput.log"
	DefaultResultsFile     = "TestsResults.xml"
	DefaultOutputDir       = "out"
	DefaultManifestPattern = "*.psd1"
	DefaultLibraryPattern  = "*.psm1"
	DefaultPackageDir      = "."
	DefaultPackageCommand  = "nuget pack {nuspec} -OutputDirectory {output} -NoPackageAnalysis"
	DefaultCIProvider      = "appveyor"
	DefaultResultsURL      = "https://ci.appveyor.com/api/testresults/nunit/{job_id}"

	// DefaultManifestVersionPattern matches the version field of a module manifest,
	// e.g. ModuleVersion = '1.0.0.0'.
	DefaultManifestVersionPattern = `ModuleVersion\s*=\s*'[^']*'`
	DefaultManifestVersionReplace = `ModuleVersion = '{version}'`
)

// DefaultExcludedDirs are never scanned during module discovery.
var DefaultExcludedDirs = []string{"Tests", "out", "node_modules", ".git", "DscResource.Tests"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applyEngineDefaults(cfg)
	applyTestsDefaults(cfg)
	applyDiscoveryDefaults(cfg)
	applyVersionDefaults(cfg)
	applyPackageDefaults(cfg)
	applyCIDefaults(cfg)
}

func applyEngineDefaults(cfg *Config) {
	if cfg.Engine == nil {
		cfg.Engine = &EngineConfig{}
	}
	if cfg.Engine.Command == "" {
		cfg.Engine.Command = DefaultEngineCommand
	}
	if cfg.Engine.CoverageArgs == "" {
		cfg.Engine.CoverageArgs = DefaultCoverageArgs
	}
	if cfg.Engine.Format == "" {
		cfg.Engine.Format = DefaultEngineFormat
	}
	if cfg.Engine.CoverageFormat == "" {
		cfg.Engine.CoverageFormat = DefaultCoverageFormat
	}
	if cfg.Engine.CoverageFile == "" {
		cfg.Engine.CoverageFile = DefaultCoverageFile
	}
	if cfg.Engine.LogFile == "" {
		cfg.Engine.LogFile = DefaultEngineLogFile
	}
}

func applyTestsDefaults(cfg *Config) {
	if cfg.Tests == nil {
		cfg.Tests = &TestsConfig{}
	}
	if cfg.Tests.ResultsFile == "" {
		cfg.Tests.ResultsFile = DefaultResultsFile
	}
	if cfg.Tests.OutputDir == "" {
		cfg.Tests.OutputDir = DefaultOutputDir
	}
}

func applyDiscoveryDefaults(cfg *Config) {
	if cfg.Discovery == nil {
		cfg.Discovery = &DiscoveryConfig{}
	}
	if cfg.Discovery.ManifestPattern == "" {
		cfg.Discovery.ManifestPattern = DefaultManifestPattern
	}
	if cfg.Discovery.LibraryPattern == "" {
		cfg.Discovery.LibraryPattern = DefaultLibraryPattern
	}
	if cfg.Discovery.Exclude == nil {
		cfg.Discovery.Exclude = append([]string(nil), DefaultExcludedDirs...)
	}
}

func applyVersionDefaults(cfg *Config) {
	if cfg.Version == nil {
		cfg.Version = &VersionConfig{}
	}
	if cfg.Version.ManifestPattern == "" {
		cfg.Version.ManifestPattern = DefaultManifestVersionPattern
	}
	if cfg.Version.ManifestReplace == "" {
		cfg.Version.ManifestReplace = DefaultManifestVersionReplace
	}
}

func applyPackageDefaults(cfg *Config) {
	if cfg.Package == nil {
		cfg.Package = &PackageConfig{}
	}
	if cfg.Package.OutputDir == "" {
		cfg.Package.OutputDir = DefaultPackageDir
	}
	if cfg.Package.Command == "" {
		cfg.Package.Command = DefaultPackageCommand
	}
}

func applyCIDefaults(cfg *Config) {
	if cfg.CI == nil {
		cfg.CI = &CIConfig{}
	}
	if cfg.CI.Provider == "" {
		cfg.CI.Provider = DefaultCIProvider
	}
	if cfg.CI.ResultsURL == "" {
		cfg.CI.ResultsURL = DefaultResultsURL
	}
}
