package dbops

var (
	// Used for compile time versioning - to set properly, ensure to run
	// the go install/build command like the following:
	// go install -ldflags "-X github.com/labinsight/dbops.Sha=local -X github.com/labinsight/dbops.Build=infinite"

	// Sha the commit sha
	Sha string
	// Build the build number
	Build string
)

// Version returns the version/build
func Version() (string, string) {
	return Sha, Build
}
