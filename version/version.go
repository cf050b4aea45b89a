package version

import "fmt"

// set by the linker at build time
var (
	Version = "dev-0.0.0"
	Commit  = "000000000000000000000000000000000badf00d"
	Date    = "1970-01-01T00:00:01Z"
	BuiltBy = "dev"
)

// ShortCommit returns a short commit hash.
func ShortCommit() string {
	if len(Commit) < 7 {
		return Commit
	}
	return Commit[:7]
}

// Agent names this program in document headers and PREMIS agents.
func Agent() string {
	return fmt.Sprintf("metsrw %s (%s)", Version, ShortCommit())
}
