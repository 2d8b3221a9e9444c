// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package version parses semantic version strings (https://semver.org/) and
// stamps them with the VCS revision of the build.
package version

import (
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
)

// semanticAlphabet defines the allowed characters for the pre-release and
// build metadata portions of a semantic version string.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*` +
	`[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// SemVer is a parsed semantic version.
type SemVer struct {
	Major, Minor, Patch uint32
	PreRelease          string
	BuildMetadata       string
}

// String formats the version as major.minor.patch[-pre][+build].
func (v *SemVer) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		s += "-" + v.PreRelease
	}
	if v.BuildMetadata != "" {
		s += "+" + v.BuildMetadata
	}
	return s
}

// ParseSemVer parses the semver components of s.
func ParseSemVer(s string) (*SemVer, error) {
	m := semverRE.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("malformed version string %q: does not conform to "+
			"semver specification", s)
	}
	var v SemVer
	for i, field := range []struct {
		name string
		dst  *uint32
	}{{"major", &v.Major}, {"minor", &v.Minor}, {"patch", &v.Patch}} {
		n, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed semver %s: %w", field.name, err)
		}
		*field.dst = uint32(n)
	}
	v.PreRelease, v.BuildMetadata = m[4], m[5]
	return &v, nil
}

// vcsCommitID is the short VCS revision the binary was built from, with a
// ".dirty" suffix for modified trees. It is empty when the build carries no
// VCS stamp, as in tests.
func vcsCommitID() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += ".dirty"
	}
	return normalize(rev)
}

// normalize strips characters that are not allowed in build metadata.
func normalize(str string) string {
	var result strings.Builder
	for _, r := range str {
		if strings.ContainsRune(semanticAlphabet, r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Parse validates the application version, adding the VCS revision as build
// metadata if the version has none. Parse panics on a malformed version,
// which can only come from a bad -ldflags override.
func Parse(version string) string {
	v, err := ParseSemVer(version)
	if err != nil {
		panic(err)
	}
	if v.BuildMetadata == "" {
		v.BuildMetadata = vcsCommitID()
	}
	return v.String()
}
