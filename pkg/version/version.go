// Package version parses and compares software version strings.
//
// Versions come from uncontrolled external sources and arrive in many shapes:
// semantic versions ("1.2.3", "1.2.3-beta.1"), calendar versions ("2024.1.0"),
// prefixed forms ("v1.0", "Version 2.4", "Build 123") and long vendor chains
// ("120.0.6099.109"). Parse normalizes all of these into an ordered sequence
// of numeric components plus an optional pre-release tag.
//
// Strings that contain no recognizable numeric components are retained as
// opaque versions: they compare only for equality, never for order, and
// Compare reports [ErrIncomparable] so callers must handle that outcome
// explicitly.
package version

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrIncomparable is returned by [Version.Compare] when either operand could
// not be parsed into ordered components. Opaque versions support equality
// checks only.
var ErrIncomparable = errors.New("versions are not comparable")

var (
	// Dotted numeric core with optional pre-release and build metadata,
	// e.g. "1.2.3", "120.0.6099.109", "1.2.3-beta.1+build.5".
	versionRE = regexp.MustCompile(`(\d+(?:\.\d+)*)(?:-([0-9A-Za-z][0-9A-Za-z.\-]*))?(?:\+([0-9A-Za-z][0-9A-Za-z.\-]*))?`)

	// Leading noise commonly wrapped around version numbers.
	prefixRE = regexp.MustCompile(`(?i)^(?:version|ver|v|release|rel|r|build|b)\s*[:\-]?\s*`)

	numericRE = regexp.MustCompile(`^\d+$`)
)

// Version is the canonical parsed representation of a version string.
//
// The zero value is an empty opaque version. Versions are immutable after
// construction and safe for concurrent use.
type Version struct {
	raw  string
	nums []int  // ordered numeric components; nil for opaque versions
	pre  string // pre-release tag, "" for a release
	meta string // build metadata, ignored by comparison
}

// Parse converts a raw version string into a Version.
//
// Parse never fails: strings without a recognizable numeric core yield an
// opaque Version for which [Version.Comparable] reports false. Equal raw
// strings always produce equal Versions.
func Parse(raw string) Version {
	cleaned := clean(raw)
	v := Version{raw: strings.TrimSpace(raw)}

	m := versionRE.FindStringSubmatch(cleaned)
	if m == nil {
		return v
	}

	parts := strings.Split(m[1], ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return v // overflow or junk, keep opaque
		}
		nums = append(nums, n)
	}

	v.nums = nums
	v.pre = m[2]
	v.meta = m[3]
	return v
}

// clean strips decorative prefixes ("v", "Version", "Build", ...) so the
// numeric core anchors at the front of the string.
func clean(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		stripped := prefixRE.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// String returns the original raw string the Version was parsed from.
func (v Version) String() string { return v.raw }

// Comparable reports whether the version was parsed into ordered components.
// Opaque versions support equality only.
func (v Version) Comparable() bool { return v.nums != nil }

// Components returns a copy of the numeric components, or nil for an opaque
// version.
func (v Version) Components() []int {
	if v.nums == nil {
		return nil
	}
	out := make([]int, len(v.nums))
	copy(out, v.nums)
	return out
}

// PreRelease returns the pre-release tag ("beta.1" in "1.2.3-beta.1"),
// or "" for a release version.
func (v Version) PreRelease() string { return v.pre }

// IsZero reports whether v is the zero Version (no raw string at all).
func (v Version) IsZero() bool { return v.raw == "" && v.nums == nil }

// Equal reports whether two versions are equal.
//
// Comparable versions are equal when their components, pre-release tags and
// metadata match; opaque versions are equal only when their raw strings match.
func (v Version) Equal(o Version) bool {
	if !v.Comparable() || !o.Comparable() {
		return v.raw == o.raw
	}
	c, err := v.Compare(o)
	return err == nil && c == 0 && v.meta == o.meta
}

// Compare orders v against o.
//
// It returns -1, 0 or +1 when both versions are comparable, and
// ErrIncomparable otherwise. Numeric components compare element-wise with
// missing trailing components treated as zero, so "1.2" equals "1.2.0".
// A pre-release sorts before the release with the same numeric components.
func (v Version) Compare(o Version) (int, error) {
	if !v.Comparable() || !o.Comparable() {
		return 0, ErrIncomparable
	}

	n := max(len(v.nums), len(o.nums))
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.nums) {
			a = v.nums[i]
		}
		if i < len(o.nums) {
			b = o.nums[i]
		}
		if a != b {
			if a < b {
				return -1, nil
			}
			return 1, nil
		}
	}

	return comparePre(v.pre, o.pre), nil
}

// Newer reports whether v is strictly newer than o. It returns false when
// the versions are incomparable.
func (v Version) Newer(o Version) bool {
	c, err := v.Compare(o)
	return err == nil && c > 0
}

// comparePre orders pre-release tags. An empty tag (a release) sorts after
// any pre-release. Non-empty tags compare identifier-wise on dots; numeric
// identifiers compare numerically and sort before alphanumeric ones.
func comparePre(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		an, bn := numericRE.MatchString(as[i]), numericRE.MatchString(bs[i])
		switch {
		case an && bn:
			x, _ := strconv.Atoi(as[i])
			y, _ := strconv.Atoi(bs[i])
			if x < y {
				return -1
			}
			return 1
		case an:
			return -1
		case bn:
			return 1
		case as[i] < bs[i]:
			return -1
		default:
			return 1
		}
	}
	if len(as) < len(bs) {
		return -1
	}
	return 1
}
