package utils

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dominant-strategies/go-ethrelay/common/constants"
	"github.com/dominant-strategies/go-ethrelay/consensus/ethash"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/dominant-strategies/go-ethrelay/relay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testXDGConfigLoading tests the loading of the config file from the XDG config home
// and verifies values are correctly set in viper.
// This test is nested within the TestCobraFlagConfigLoading test.
func testXDGConfigLoading(t *testing.T) {
	mockConfigPath := t.TempDir()
	tempFile := createMockXDGConfigFile(t, mockConfigPath)
	defer tempFile.Close()

	// write 'log-level = debug' config to mock config.toml file
	_, err := tempFile.WriteString(LogLevelFlag.Name + " = " + "\"debug\"\n")
	require.NoError(t, err)

	// Set config path to the temporary config directory
	viper.SetConfigFile(tempFile.Name())
	viper.SetConfigType(constants.CONFIG_FILE_TYPE)

	InitConfig()

	// Assert log level is set to "debug" as per the mock config file
	assert.Equal(t, "debug", viper.GetString(LogLevelFlag.Name))
}

// TestCobraFlagConfigLoading tests the loading of the config file from the XDG config home,
// the loading of the environment variable and the loading of the cobra flag.
// It verifies the expected order of precedence of config loading.
func TestCobraFlagConfigLoading(t *testing.T) {
	// Clear viper instance to simulate a fresh start
	viper.Reset()
	defer viper.Reset()

	// Test loading config from XDG config home
	testXDGConfigLoading(t)
	assert.Equal(t, "debug", viper.GetString(LogLevelFlag.Name))

	// Test loading config from environment variable
	t.Setenv(constants.ENV_PREFIX+"_"+"LOG_LEVEL", "error")
	assert.Equal(t, "error", viper.GetString(LogLevelFlag.Name))

	// Test loading config from cobra flag
	rootCmd := &cobra.Command{}
	rootCmd.PersistentFlags().StringP(LogLevelFlag.Name, "l", "warn", "log level (trace, debug, info, warn, error, fatal, panic")
	err := rootCmd.PersistentFlags().Set(LogLevelFlag.Name, "trace")
	require.NoError(t, err)
	viper.BindPFlags(rootCmd.PersistentFlags())
	assert.Equal(t, "trace", viper.GetString(LogLevelFlag.Name))
}

func TestDottedFlagFromEnv(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.SetConfigFile(filepath.Join(t.TempDir(), constants.CONFIG_FILE_NAME))
	InitConfig()

	t.Setenv(constants.ENV_PREFIX+"_ETHASH_CACHESINMEM", "7")
	assert.Equal(t, 7, viper.GetInt(EthashCachesInMemFlag.Name))
	assert.Equal(t, " [GO_ETHRELAY_ETHASH_CACHESINMEM]", generateEnvDoc(EthashCachesInMemFlag.Name))
}

func TestWriteDefaultConfigFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	viper.Set(SafeFlag.Name, uint64(4))
	require.NoError(t, WriteDefaultConfigFile(dir, constants.CONFIG_FILE_NAME, constants.CONFIG_FILE_TYPE))
	require.Error(t, WriteDefaultConfigFile(dir, "config.yaml", "yaml"))

	data, err := os.ReadFile(filepath.Join(dir, constants.CONFIG_FILE_NAME))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[ethash]"))
	assert.False(t, strings.Contains(string(data), ConfigDirFlag.Name))

	viper.Reset()
	viper.SetConfigFile(filepath.Join(dir, constants.CONFIG_FILE_NAME))
	InitConfig()
	assert.Equal(t, uint64(params.DefaultNumberOfBlocksFinality), viper.GetUint64(FinalityFlag.Name))
	assert.Equal(t, uint64(4), viper.GetUint64(SafeFlag.Name))
	assert.True(t, viper.GetBool(CheckAuthoritiesFlag.Name))
	assert.Equal(t, 2, viper.GetInt(EthashCachesInMemFlag.Name))
	assert.Equal(t, "normal", viper.GetString(PowModeFlag.Name))
	assert.Equal(t, ":2112", viper.GetString(MetricsAddrFlag.Name))
}

func TestSaveConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	file := filepath.Join(t.TempDir(), "nested", constants.CONFIG_FILE_NAME)
	viper.SetConfigFile(file)
	viper.Set(FinalityFlag.Name, 12)
	require.NoError(t, SaveConfig())
	require.NoError(t, SaveConfig())

	_, err := os.Stat(file + ".bak")
	require.NoError(t, err)

	viper.Reset()
	viper.SetConfigFile(file)
	InitConfig()
	assert.Equal(t, uint64(12), viper.GetUint64(FinalityFlag.Name))
}

func TestRelayConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set(FinalityFlag.Name, uint64(40))
	viper.Set(SafeFlag.Name, uint64(5))
	viper.Set(CheckAuthoritiesFlag.Name, true)
	viper.Set(AuthoritiesFlag.Name, []string{"0x00000000000000000000000000000000000a11ce"})

	config, err := RelayConfig()
	require.NoError(t, err)
	assert.Equal(t, relay.Config{
		NumberOfBlocksFinality: 40,
		NumberOfBlocksSafe:     5,
		CheckAuthorities:       true,
		Authorities:            []common.Address{common.HexToAddress("0xa11ce")},
	}, config)

	viper.Set(AuthoritiesFlag.Name, []string{"alice"})
	_, err = RelayConfig()
	require.Error(t, err)
}

func TestCallOrigin(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	origin, err := CallOrigin()
	require.NoError(t, err)
	assert.True(t, origin.IsRoot())

	viper.Set(AccountFlag.Name, "0x0000000000000000000000000000000000000b0b")
	origin, err = CallOrigin()
	require.NoError(t, err)
	assert.Equal(t, relay.Signed(common.HexToAddress("0xb0b")), origin)

	viper.Set(AccountFlag.Name, "0xb0b")
	_, err = CallOrigin()
	require.Error(t, err)
}

func TestEthashConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set(DataDirFlag.Name, "/data/relay")
	viper.Set(EthNetworkFlag.Name, uint64(params.Ropsten))
	viper.Set(PowModeFlag.Name, "fake")
	viper.Set(EthashCachesInMemFlag.Name, 3)

	config, err := EthashConfig()
	require.NoError(t, err)
	assert.Equal(t, ethash.ModeFake, config.PowMode)
	assert.Equal(t, params.Ropsten, config.Network)
	assert.Equal(t, filepath.Join("/data/relay", constants.ETHASH_DIR), config.CacheDir)
	assert.Equal(t, 3, config.CachesInMem)

	assert.Nil(t, config.Rules)

	viper.Set(EthashRulesFlag.Name, "expanse")
	config, err = EthashConfig()
	require.NoError(t, err)
	assert.Equal(t, params.ExpanseEthashParams(), config.Rules)

	viper.Set(EthashRulesFlag.Name, "classic")
	_, err = EthashConfig()
	require.Error(t, err)

	viper.Set(EthashRulesFlag.Name, "")
	viper.Set(PowModeFlag.Name, "quantum")
	_, err = EthashConfig()
	require.Error(t, err)
}

func TestCustomFlagValues(t *testing.T) {
	cmd := &cobra.Command{}
	difficulty := Flag{Name: "test-difficulty", Value: big.NewInt(0), Usage: "difficulty"}
	hash := Flag{Name: "test-hash", Value: new(common.Hash), Usage: "hash"}
	CreateAndBindFlag(difficulty, cmd)
	CreateAndBindFlag(hash, cmd)

	require.NoError(t, cmd.PersistentFlags().Set("test-difficulty", "0x20000"))
	require.Equal(t, "131072", cmd.PersistentFlags().Lookup("test-difficulty").Value.String())
	require.Error(t, cmd.PersistentFlags().Set("test-difficulty", "lots"))

	want := common.HexToHash("0xc0ffee")
	require.NoError(t, cmd.PersistentFlags().Set("test-hash", want.Hex()))
	require.Equal(t, want, *hash.Value.(*common.Hash))
	require.Error(t, cmd.PersistentFlags().Set("test-hash", "0x12"))
}

// helper function to create a mock XDG directory and config file
func createMockXDGConfigFile(t *testing.T, dir string) *os.File {
	t.Helper()
	err := os.MkdirAll(dir, 0755)
	require.NoError(t, err)
	tmpFile, err := os.Create(filepath.Join(dir, constants.CONFIG_FILE_NAME))
	require.NoError(t, err)
	return tmpFile
}
