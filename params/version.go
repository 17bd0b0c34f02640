// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"errors"
	"strconv"
	"strings"
	"sync"
)

// VersionString is the release tag of the binary, overridden at link time with
// -ldflags "-X github.com/dominant-strategies/go-ethrelay/params.VersionString=v1.2.3".
var VersionString = "v0.1.0-rc.0"

var Version CachedVersion

type version struct {
	major int
	minor int
	patch int
	meta  string
	full  string
	short string
}

func parseVersion(raw string) (version, error) {
	full := strings.TrimSpace(raw)
	if len(full) == 0 || full[0] != 'v' {
		return version{}, errors.New("version number must start with 'v'")
	}
	// Take a full version string, e.g. v0.0.0-rc.0
	// and split it into the version number and version metadata (if it has meta).
	vnum, vmeta, _ := strings.Cut(full[1:], "-")
	vnums := strings.Split(vnum, ".")
	if len(vnums) != 3 {
		return version{}, errors.New("bad version number format")
	}
	var nums [3]int
	for i, s := range vnums {
		n, err := strconv.Atoi(s)
		if err != nil {
			return version{}, err
		}
		nums[i] = n
	}
	return version{major: nums[0], minor: nums[1], patch: nums[2], meta: vmeta, full: full, short: "v" + vnum}, nil
}

// CachedVersion holds the parsed version of the running binary.
type CachedVersion struct {
	once sync.Once
	ver  version
	err  error
}

func (v *CachedVersion) load() version {
	v.once.Do(func() {
		v.ver, v.err = parseVersion(VersionString)
	})
	return v.ver
}

// Err reports whether VersionString could be parsed.
func (v *CachedVersion) Err() error {
	v.load()
	return v.err
}

func (v *CachedVersion) Major() int    { return v.load().major }
func (v *CachedVersion) Minor() int    { return v.load().minor }
func (v *CachedVersion) Patch() int    { return v.load().patch }
func (v *CachedVersion) Meta() string  { return v.load().meta }
func (v *CachedVersion) Full() string  { return v.load().full }
func (v *CachedVersion) Short() string { return v.load().short }

func VersionWithCommit(gitCommit, gitDate string) string {
	vsn := Version.Full()
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if (Version.Meta() != "stable") && (gitDate != "") {
		vsn += "-" + gitDate
	}
	return vsn
}
