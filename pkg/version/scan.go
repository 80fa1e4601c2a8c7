package version

import "regexp"

var (
	// Version numbers next to words that announce them, e.g.
	// "Version 1.2.3", "release: 2024.1", "v120.0.6099.109".
	announcedRE = regexp.MustCompile(`(?i)\b(?:version|ver|release|rel|build|v)[\s:\-]{0,3}(\d+(?:\.\d+)+(?:-[0-9A-Za-z][0-9A-Za-z.\-]*)?)`)

	// Bare dotted numbers with at least two components. A single integer is
	// too ambiguous to treat as a version in free text.
	dottedRE = regexp.MustCompile(`\d+(?:\.\d+)+(?:-[0-9A-Za-z][0-9A-Za-z.\-]*)?`)
)

// Scan extracts the most plausible version from free text, such as a vendor
// download page. Announced versions ("Version 1.2.3") win over bare dotted
// numbers; among equals, the first occurrence wins. The second return value
// reports whether anything version-like was found.
func Scan(text string) (Version, bool) {
	if m := announcedRE.FindStringSubmatch(text); m != nil {
		return Parse(m[1]), true
	}
	if m := dottedRE.FindString(text); m != "" {
		return Parse(m), true
	}
	return Version{}, false
}
