package version

import "fmt"

const (
	appMajor uint = 0
	appMinor uint = 2
	appPatch uint = 0

	// appPreRelease is appended to the semantic version when set.
	appPreRelease = "beta"
)

// String returns the application version as a properly formed string
// per the semantic versioning 2.0.0 spec (http://semver.org/).
func String() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if appPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, appPreRelease)
	}
	return version
}

// UserAgent returns the user agent sent with every RPC request.
func UserAgent() string {
	return fmt.Sprintf("/bouncer:%s/", String())
}
