package catalog

import (
	"strconv"
	"strings"
	"time"
)

// NewerVersion reports whether version string a is newer than b. It
// understands date stamps like "20240307", dotted numeric versions, and
// falls back to lexical comparison when neither form applies.
func NewerVersion(a, b string) bool {
	aDate, aErr := time.Parse("20060102", a)
	bDate, bErr := time.Parse("20060102", b)
	if aErr == nil && bErr == nil {
		return aDate.After(bDate)
	}

	aParts := versionNumbers(a)
	bParts := versionNumbers(b)
	if len(aParts) > 0 && len(bParts) > 0 {
		for i := range min(len(aParts), len(bParts)) {
			if aParts[i] != bParts[i] {
				return aParts[i] > bParts[i]
			}
		}
		return len(aParts) > len(bParts)
	}

	// A dated version beats an undated one.
	if aErr == nil {
		return true
	}
	if bErr == nil {
		return false
	}

	return a > b
}

// versionNumbers pulls the numeric runs out of a version string, in order.
func versionNumbers(version string) []int {
	var numbers []int
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if n, err := strconv.Atoi(current.String()); err == nil {
			numbers = append(numbers, n)
		}
		current.Reset()
	}

	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return numbers
}

var defaultModelIDs = []string{
	"gpt-4o",
	"gpt-4",
	"gpt-3.5-turbo",
	"o1",
	"gpt-4o-mini",
	"o1-mini",
	"gemini-1.0-pro",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"gemini-2.0-pro",
	"gemini-2.0-flash",
	"claude-3-opus",
	"claude-3-sonnet",
	"claude-3-haiku",
}

// IsDefaultName reports whether an ID names a canonical, unversioned
// model alias. Default names win the "latest" slot over dated variants.
func IsDefaultName(id string) bool {
	for _, canonical := range defaultModelIDs {
		if id == canonical {
			return true
		}
	}
	return strings.Contains(id, "latest")
}
