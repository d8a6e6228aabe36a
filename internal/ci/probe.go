// Package ci detects the CI service and talks to its build worker API.
package ci

import (
	"github.com/spf13/viper"
)

// Provider names accepted in configuration.
const (
	ProviderAppVeyor = "appveyor"
	ProviderNone     = "none"
)

// Environment describes the CI service the process runs under.
type Environment struct {
	Provider     string
	JobID        string
	APIURL       string // build worker API base URL, empty when not exposed
	BuildVersion string
	BuildFolder  string
}

// UnderCI reports whether a CI job is running.
func (e Environment) UnderCI() bool {
	return e.JobID != ""
}

// HasWorkerAPI reports whether the build worker API is reachable, which
// selects CI build variables over process environment variables.
func (e Environment) HasWorkerAPI() bool {
	return e.UnderCI() && e.APIURL != ""
}

// Probe reads the CI environment for provider. ProviderNone always yields an
// empty Environment.
func Probe(provider string) Environment {
	if provider == ProviderNone {
		return Environment{Provider: ProviderNone}
	}

	v := viper.New()
	for _, key := range []string{"APPVEYOR", "APPVEYOR_JOB_ID", "APPVEYOR_API_URL", "APPVEYOR_BUILD_VERSION", "APPVEYOR_BUILD_FOLDER"} {
		_ = v.BindEnv(key) // only fails on an empty key
	}

	env := Environment{Provider: ProviderAppVeyor}
	// APPVEYOR=True is set on every worker; the job id alone is not trusted
	// outside of it.
	if !v.GetBool("APPVEYOR") {
		return env
	}
	env.JobID = v.GetString("APPVEYOR_JOB_ID")
	env.APIURL = v.GetString("APPVEYOR_API_URL")
	env.BuildVersion = v.GetString("APPVEYOR_BUILD_VERSION")
	env.BuildFolder = v.GetString("APPVEYOR_BUILD_FOLDER")
	return env
}
