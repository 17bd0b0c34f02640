package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-ethrelay/common/constants"
	"github.com/dominant-strategies/go-ethrelay/consensus/ethash"
	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/ethdb"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/metrics_config"
	"github.com/dominant-strategies/go-ethrelay/params"
	"github.com/dominant-strategies/go-ethrelay/relay"
	"github.com/ethereum/go-ethereum/common"
)

// Backend bundles the relay with the resources it was built from. Close
// releases them in reverse order.
type Backend struct {
	Relay  *relay.Relay
	DB     ethdb.Database
	Engine *ethash.Ethash
}

// Close shuts down the relay, the engine and the database.
func (b *Backend) Close() {
	b.Relay.Close()
	if err := b.Engine.Close(); err != nil {
		log.Global.WithField("err", err).Error("Failed to close ethash engine")
	}
	if err := b.DB.Close(); err != nil {
		log.Global.WithField("err", err).Error("Failed to close relay database")
	}
}

// StartRelayBackend opens the relay database in the data directory and builds
// the relay over an ethash engine configured from viper.
func StartRelayBackend(logger *log.Logger) (*Backend, error) {
	if viper.GetBool(MetricsEnabledFlag.Name) {
		metrics_config.EnableMetrics()
	} else {
		metrics_config.DisableMetrics()
	}
	engine, err := MakeEthash(logger)
	if err != nil {
		return nil, err
	}
	db, err := OpenDatabase(false, logger)
	if err != nil {
		engine.Close()
		return nil, err
	}
	config, err := RelayConfig()
	if err != nil {
		engine.Close()
		db.Close()
		return nil, err
	}
	logger.WithFields(log.Fields{
		"network": engine.Network(),
		"mode":    engine.Mode(),
		"engine":  viper.GetString(DBEngineFlag.Name),
	}).Info("Starting relay backend")
	return &Backend{
		Relay:  relay.New(db, engine, config, logger),
		DB:     db,
		Engine: engine,
	}, nil
}

// OpenDatabase opens the relay database configured by the db flags.
func OpenDatabase(readonly bool, logger *log.Logger) (ethdb.Database, error) {
	dir := filepath.Join(viper.GetString(DataDirFlag.Name), constants.RELAY_DB_DIR)
	return rawdb.Open(
		viper.GetString(DBEngineFlag.Name),
		dir,
		viper.GetInt(DBCacheFlag.Name),
		viper.GetInt(DBHandlesFlag.Name),
		readonly,
		logger,
	)
}

// MakeEthash builds the ethash engine configured by the ethash flags.
func MakeEthash(logger *log.Logger) (*ethash.Ethash, error) {
	config, err := EthashConfig()
	if err != nil {
		return nil, err
	}
	return ethash.New(config, logger), nil
}

// EthashConfig reads the engine settings. Directories default to the data dir.
func EthashConfig() (ethash.Config, error) {
	mode, err := ethash.ParseMode(viper.GetString(PowModeFlag.Name))
	if err != nil {
		return ethash.Config{}, err
	}
	rules, err := params.EthashParamsByName(viper.GetString(EthashRulesFlag.Name))
	if err != nil {
		return ethash.Config{}, err
	}
	dataDir := viper.GetString(DataDirFlag.Name)
	cacheDir := viper.GetString(EthashCacheDirFlag.Name)
	if cacheDir == "" {
		cacheDir = filepath.Join(dataDir, constants.ETHASH_DIR)
	}
	datasetDir := viper.GetString(EthashDatasetDirFlag.Name)
	if datasetDir == "" {
		datasetDir = filepath.Join(dataDir, constants.ETHASH_DIR)
	}
	return ethash.Config{
		PowMode:          mode,
		Network:          params.EthNetwork(viper.GetUint64(EthNetworkFlag.Name)),
		Rules:            rules,
		CacheDir:         cacheDir,
		CachesInMem:      viper.GetInt(EthashCachesInMemFlag.Name),
		CachesOnDisk:     viper.GetInt(EthashCachesOnDiskFlag.Name),
		CachesLockMmap:   viper.GetBool(EthashCachesLockMmapFlag.Name),
		DatasetDir:       datasetDir,
		DatasetsInMem:    1,
		DatasetsOnDisk:   viper.GetInt(EthashDatasetsOnDiskFlag.Name),
		DatasetsLockMmap: false,
	}, nil
}

// RelayConfig reads the settings applied to a fresh relay database.
func RelayConfig() (relay.Config, error) {
	config := relay.Config{
		NumberOfBlocksFinality: viper.GetUint64(FinalityFlag.Name),
		NumberOfBlocksSafe:     viper.GetUint64(SafeFlag.Name),
		CheckAuthorities:       viper.GetBool(CheckAuthoritiesFlag.Name),
	}
	for _, s := range viper.GetStringSlice(AuthoritiesFlag.Name) {
		addr, err := ParseAddress(s)
		if err != nil {
			return relay.Config{}, errors.Wrap(err, "invalid authority")
		}
		config.Authorities = append(config.Authorities, addr)
	}
	return config, nil
}

// CallOrigin returns the origin calls are made with: the configured account,
// or root when none is set.
func CallOrigin() (relay.Origin, error) {
	account := viper.GetString(AccountFlag.Name)
	if account == "" {
		return relay.Root(), nil
	}
	addr, err := ParseAddress(account)
	if err != nil {
		return relay.Origin{}, err
	}
	return relay.Signed(addr), nil
}

// ParseAddress parses a 0x prefixed hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
