package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/common/constants"
	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHeaders(t *testing.T, dir string, name string, headers ...*types.Header) string {
	t.Helper()
	var buf bytes.Buffer
	for _, h := range headers {
		data, err := json.Marshal(h)
		require.NoError(t, err)
		buf.Write(data)
		buf.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestDecodeStream(t *testing.T) {
	parent := tests.MustHeader(tests.Ropsten6890091)
	child := tests.MustHeader(tests.Ropsten6890092)
	path := writeHeaders(t, t.TempDir(), "headers.json", parent, child)

	var got []*types.Header
	require.NoError(t, forEachHeader(path, func(h *types.Header) error {
		got = append(got, h)
		return nil
	}))
	require.Len(t, got, 2)
	assert.Equal(t, parent.Hash(), got[0].Hash())
	assert.Equal(t, child.Hash(), got[1].Hash())

	_, err := readHeader(path)
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = readHeader(empty)
	require.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	state := relayState{
		Network:     "ropsten",
		BestNumber:  6890092,
		Authorities: []string{"0x00000000000000000000000000000000000a11ce"},
	}
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", state, stateRows))
	assert.Contains(t, buf.String(), `"bestNumber": 6890092`)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", state, stateRows))
	assert.Contains(t, buf.String(), "network: ropsten")

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "table", state, stateRows))
	assert.Contains(t, buf.String(), "0x00000000000000000000000000000000000a11ce")

	header := tests.MustHeader(tests.Ropsten6890092)
	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", header, nil))
	assert.Contains(t, buf.String(), strings.ToLower(header.Hash().Hex()))

	require.Error(t, writeOutput(&buf, "xml", state, stateRows))
}

func TestRelayCommands(t *testing.T) {
	var (
		dataDir   = t.TempDir()
		configDir = t.TempDir() + "/"
		inputs    = t.TempDir()
		parent    = tests.MustHeader(tests.Ropsten6890091)
		child     = tests.MustHeader(tests.Ropsten6890092)
	)
	common := []string{
		"--data-dir", dataDir,
		"--config-dir", configDir,
		"--eth-network", "1",
		"--check-authorities=false",
		"--ethash.cachesondisk", "0",
	}
	genesis := writeHeaders(t, inputs, "genesis.json", parent)
	headers := writeHeaders(t, inputs, "headers.json", child)

	require.NoError(t, execute(t, append([]string{"config"}, common...)...))
	_, err := os.Stat(filepath.Join(configDir, constants.CONFIG_FILE_NAME))
	require.NoError(t, err)

	require.NoError(t, execute(t, append([]string{"init-genesis", genesis}, common...)...))
	require.NoError(t, execute(t, append([]string{"relay", headers}, common...)...))
	require.Error(t, execute(t, append([]string{"relay", headers}, common...)...))
	require.NoError(t, execute(t, append([]string{"relay", headers, "--keep-going"}, common...)...))
	require.NoError(t, execute(t, append([]string{"window", "--set-safe", "3"}, common...)...))
	require.NoError(t, execute(t, append([]string{"state", "--format", "json"}, common...)...))

	db, err := rawdb.Open(rawdb.EngineLevelDB, filepath.Join(dataDir, constants.RELAY_DB_DIR), 16, 16, true, log.NewNullLogger())
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, parent.Hash(), rawdb.ReadGenesisHeaderHash(db))
	assert.Equal(t, child.Hash(), rawdb.ReadBestHeaderHash(db))
	assert.Equal(t, uint64(3), *rawdb.ReadNumberOfBlocksSafe(db))
	assert.False(t, *rawdb.ReadCheckAuthorities(db))
}
