package version

// version is injected at build time via -ldflags. It stays "dev" for
// plain go build / go test invocations.
var version = "dev"

// Value returns the build version string.
func Value() string {
	if version == "" {
		return "dev"
	}
	return version
}
