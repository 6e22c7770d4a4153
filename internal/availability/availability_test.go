package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare_NumericNotLexicographic(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"10.13", "10.2", 1}, // 13 > 2, the case lexicographic compare gets wrong
		{"10.2", "10.13", -1},
		{"10.13", "10.13", 0},
		{"10", "10.0", 0},
		{"10", "10.0.0", 0},
		{"9.3.1", "9.3", 1},
		{"13.0", "15.0", -1},
		{"1.0.0", "1", 0},
		{"26.0", "9.9.9", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Compare(tt.a, tt.b), "Compare(%q, %q)", tt.a, tt.b)
	}
}

func TestCompare_MalformedComponentsParseAsZero(t *testing.T) {
	assert.Equal(t, 0, Compare("10.x", "10.0"))
	assert.Equal(t, -1, Compare("abc", "1.0"))
	assert.Equal(t, 0, Compare("", "0"))
	assert.Equal(t, 1, Compare("10.1", "10.junk"))
}

func TestIntroduced(t *testing.T) {
	// introduced <= target means available
	assert.True(t, Introduced("10.13", "10.14"))
	assert.True(t, Introduced("10.13", "10.13"))
	assert.False(t, Introduced("10.13", "10.2"))
	assert.True(t, Introduced("13.0", "15.0"))
	assert.False(t, Introduced("15.0", "10.0"))
}

func TestFilter_EmptyMatchesEverything(t *testing.T) {
	var f Filter
	assert.True(t, f.Empty())
	assert.True(t, f.Matches(nil))
	assert.True(t, f.Matches(Availability{PlatformIOS: "13.0"}))
}

func TestFilter_FailClosedWithoutAvailability(t *testing.T) {
	f := Filter{PlatformIOS: "15.0"}

	// No availability data at all: excluded under any filter.
	assert.False(t, f.Matches(nil))
	assert.False(t, f.Matches(Availability{}))

	// Availability declared for a different platform only: still excluded.
	assert.False(t, f.Matches(Availability{PlatformMacOS: "10.15"}))
}

func TestFilter_MatchesIntroducedAtOrBeforeTarget(t *testing.T) {
	f := Filter{PlatformIOS: "15.0"}

	assert.True(t, f.Matches(Availability{PlatformIOS: "13.0"}))
	assert.True(t, f.Matches(Availability{PlatformIOS: "15.0"}))
	assert.False(t, f.Matches(Availability{PlatformIOS: "16.0"}))
}

func TestFilter_AllPlatformFiltersMustPass(t *testing.T) {
	f := Filter{PlatformIOS: "15.0", PlatformMacOS: "12.0"}

	both := Availability{PlatformIOS: "13.0", PlatformMacOS: "11.0"}
	assert.True(t, f.Matches(both))

	iosOnly := Availability{PlatformIOS: "13.0"}
	assert.False(t, f.Matches(iosOnly))

	macTooNew := Availability{PlatformIOS: "13.0", PlatformMacOS: "13.0"}
	assert.False(t, f.Matches(macTooNew))
}
