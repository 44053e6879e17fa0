package version

import "fmt"

// Semantic version of the library. Artifact formats carry their own
// version bytes and do not track these numbers.
const (
	Major = 0
	Minor = 1
	Patch = 0

	// Label is an optional pre-release tag, e.g. "rc1".
	Label = ""
)

// String returns the version in "vMAJOR.MINOR.PATCH[-LABEL]" form.
func String() string {
	v := fmt.Sprintf("v%d.%d.%d", Major, Minor, Patch)
	if Label != "" {
		v += "-" + Label
	}
	return v
}

// Full returns the version prefixed with the project name.
func Full() string {
	return fmt.Sprintf("DigitLoom %s", String())
}
