// Package availability implements per-platform minimum-version gating
// for indexed documents.
//
// Apple availability strings are dotted numeric versions ("17.0",
// "10.13.4"). Comparison is component-wise numeric, never lexicographic:
// "10.13" is newer than "10.2" because 13 > 2. Malformed components
// parse as 0 so a sloppy producer degrades gracefully instead of
// poisoning the filter.
package availability

import (
	"strconv"
	"strings"
)

// Platform identifies an Apple platform with independent versioning.
type Platform string

const (
	PlatformIOS      Platform = "ios"
	PlatformMacOS    Platform = "macos"
	PlatformTvOS     Platform = "tvos"
	PlatformWatchOS  Platform = "watchos"
	PlatformVisionOS Platform = "visionos"
)

// Platforms lists all supported platforms in canonical order.
var Platforms = []Platform{
	PlatformIOS,
	PlatformMacOS,
	PlatformTvOS,
	PlatformWatchOS,
	PlatformVisionOS,
}

// Availability maps a platform to the version at which a documented API
// was introduced. A platform absent from the map means the document
// declares no availability for it.
type Availability map[Platform]string

// Filter maps a platform to the caller's minimum target version.
// An empty filter imposes no constraint.
type Filter map[Platform]string

// Empty reports whether the filter imposes no version constraints.
func (f Filter) Empty() bool {
	return len(f) == 0
}

// Matches reports whether a document with the given availability passes
// the filter. Semantics are fail-closed: if any platform filter is set,
// a document that declares no availability for that platform is
// excluded. With an empty filter every document matches.
func (f Filter) Matches(a Availability) bool {
	for platform, target := range f {
		introduced, ok := a[platform]
		if !ok || introduced == "" {
			return false
		}
		if Compare(introduced, target) > 0 {
			return false
		}
	}
	return true
}

// Compare compares two dotted version strings component-wise
// numerically. It returns -1 if a < b, 0 if equal, and 1 if a > b.
// Missing components compare as 0, so "10" == "10.0".
func Compare(a, b string) int {
	ac := components(a)
	bc := components(b)

	n := len(ac)
	if len(bc) > n {
		n = len(bc)
	}

	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(ac) {
			av = ac[i]
		}
		if i < len(bc) {
			bv = bc[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// Introduced reports whether an API introduced at the given version is
// available when targeting the given version, i.e. introduced <= target.
func Introduced(introduced, target string) bool {
	return Compare(introduced, target) <= 0
}

// components splits a version string into numeric components.
// Malformed components parse as 0.
func components(v string) []int {
	parts := strings.Split(strings.TrimSpace(v), ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			n = 0
		}
		out[i] = n
	}
	return out
}
