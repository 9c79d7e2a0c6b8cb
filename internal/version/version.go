// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version houses the version information of vtcd.
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

// semverRE is a regular expression used to parse a semantic version string into
// its constituent parts.
var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*` +
	`[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Version is the application version per the semantic versioning 2.0.0 spec
// (https://semver.org/).
//
// It may be overridden when building with:
// '-ldflags "-X github.com/vertcoin-project/vtcd/internal/version.Version=fullsemver"'
//
// It MUST be a full semantic version or the package will panic at init.
var Version = "0.1.0-pre"

// SemVer houses the components of a semantic version.
type SemVer struct {
	Major         uint
	Minor         uint
	Patch         uint
	PreRelease    string
	BuildMetadata string
}

// String returns the semantic version in its canonical form.
func (v SemVer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreRelease != "" {
		sb.WriteByte('-')
		sb.WriteString(v.PreRelease)
	}
	if v.BuildMetadata != "" {
		sb.WriteByte('+')
		sb.WriteString(v.BuildMetadata)
	}
	return sb.String()
}

// Parsed is the result of parsing Version at init.
var Parsed SemVer

func parseUint(s string, fieldName string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("malformed semver %s: %w", fieldName, err)
	}
	return uint(val), nil
}

// Parse parses a semantic version string.
func Parse(s string) (SemVer, error) {
	m := semverRE.FindStringSubmatch(s)
	if m == nil {
		return SemVer{}, fmt.Errorf("malformed version string %q: does not "+
			"conform to semver specification", s)
	}

	var v SemVer
	var err error
	if v.Major, err = parseUint(m[1], "major"); err != nil {
		return SemVer{}, err
	}
	if v.Minor, err = parseUint(m[2], "minor"); err != nil {
		return SemVer{}, err
	}
	if v.Patch, err = parseUint(m[3], "patch"); err != nil {
		return SemVer{}, err
	}
	v.PreRelease, v.BuildMetadata = m[4], m[5]
	return v, nil
}

func init() {
	var err error
	Parsed, err = Parse(Version)
	if err != nil {
		panic(err)
	}
}

// String returns the application version.
func String() string {
	return Version
}

// NormalizeString returns the passed string stripped of all characters which
// are not permitted in pre-release and build metadata strings.
func NormalizeString(str string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(semanticAlphabet, r) {
			return r
		}
		return -1
	}, str)
}

// vcsCommitID returns the abbreviated revision vtcd was built from when the
// build info records one.
func vcsCommitID() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var vcs, revision string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs":
			vcs = bs.Value
		case "vcs.revision":
			revision = bs.Value
		}
	}
	if vcs == "git" && len(revision) > 9 {
		revision = revision[:9]
	}
	return revision
}

// withCommit appends the commit to the build metadata of the version.
func withCommit(v SemVer, commit string) SemVer {
	commit = NormalizeString(commit)
	if commit == "" {
		return v
	}
	if v.BuildMetadata == "" {
		v.BuildMetadata = commit
	} else {
		v.BuildMetadata += "." + commit
	}
	return v
}

// Full returns the application version including the revision it was built
// from when known.
func Full() string {
	return withCommit(Parsed, vcsCommitID()).String()
}
