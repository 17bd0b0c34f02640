// Package tests holds real chain headers used as fixtures across the relay
// test suites.
package tests

import (
	"embed"
	"encoding/json"
	"path"

	"github.com/dominant-strategies/go-ethrelay/core/types"
)

//go:embed testdata/*.json
var fixtures embed.FS

// Header fixtures by name.
const (
	Mainnet8996777 = "mainnet_8996777"
	Mainnet8996778 = "mainnet_8996778"
	Ropsten6890091 = "ropsten_6890091"
	Ropsten6890092 = "ropsten_6890092"
	Ropsten70000   = "ropsten_70000"
)

// Header loads the named header fixture. Fixtures that carry a "hash" field
// come back with that hash memoized.
func Header(name string) (*types.Header, error) {
	data, err := fixtures.ReadFile(path.Join("testdata", name+".json"))
	if err != nil {
		return nil, err
	}
	h := new(types.Header)
	if err := json.Unmarshal(data, h); err != nil {
		return nil, err
	}
	return h, nil
}

// MustHeader is Header for test setup code.
func MustHeader(name string) *types.Header {
	h, err := Header(name)
	if err != nil {
		panic(err)
	}
	return h
}
