// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import "decred.org/dexcore/dex/version"

const (
	// appName is the application name.
	appName string = "dexcore"
)

// Version is the application version per the semantic versioning 2.0.0 spec
// (https://semver.org/). It may be overridden with
// '-ldflags "-X main.Version=fullsemver"', and is normalized on init.
var Version = "0.1.0-pre+dev"

func init() {
	Version = version.Parse(Version)
}
