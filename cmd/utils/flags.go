package utils

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-ethrelay/common/constants"
	"github.com/dominant-strategies/go-ethrelay/consensus/ethash"
	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/metrics_config"
	"github.com/dominant-strategies/go-ethrelay/params"
)

var GlobalFlags = []Flag{
	ConfigDirFlag,
	DataDirFlag,
	LogLevelFlag,
	SaveConfigFlag,
}

var RelayFlags = []Flag{
	EthNetworkFlag,
	FinalityFlag,
	SafeFlag,
	CheckAuthoritiesFlag,
	AuthoritiesFlag,
	DBEngineFlag,
	DBCacheFlag,
	DBHandlesFlag,
	AccountFlag,
}

var EthashFlags = []Flag{
	PowModeFlag,
	EthashRulesFlag,
	EthashCacheDirFlag,
	EthashCachesInMemFlag,
	EthashCachesOnDiskFlag,
	EthashCachesLockMmapFlag,
	EthashDatasetDirFlag,
	EthashDatasetsOnDiskFlag,
}

var MetricsFlags = []Flag{
	MetricsEnabledFlag,
	MetricsAddrFlag,
}

// Flags holds every flag group written to the default config file.
var Flags = [][]Flag{
	GlobalFlags,
	RelayFlags,
	EthashFlags,
	MetricsFlags,
}

var (
	// ****************************************
	// **                                    **
	// **         GLOBAL FLAGS               **
	// **                                    **
	// ****************************************
	ConfigDirFlag = Flag{
		Name:         "config-dir",
		Abbreviation: "c",
		Value:        xdg.ConfigHome + "/" + constants.APP_NAME + "/",
		Usage:        "config directory" + generateEnvDoc("config-dir"),
	}

	DataDirFlag = Flag{
		Name:         "data-dir",
		Abbreviation: "d",
		Value:        xdg.DataHome + "/" + constants.APP_NAME + "/",
		Usage:        "data directory" + generateEnvDoc("data-dir"),
	}

	LogLevelFlag = Flag{
		Name:         "log-level",
		Abbreviation: "l",
		Value:        "info",
		Usage:        "log level (trace, debug, info, warn, error, fatal, panic)" + generateEnvDoc("log-level"),
	}

	SaveConfigFlag = Flag{
		Name:         "save-config",
		Abbreviation: "S",
		Value:        false,
		Usage:        "save/update config file with current config parameters" + generateEnvDoc("save-config"),
	}

	// ****************************************
	// **                                    **
	// **         RELAY FLAGS                **
	// **                                    **
	// ****************************************
	EthNetworkFlag = Flag{
		Name:         "eth-network",
		Abbreviation: "n",
		Value:        uint64(params.Production),
		Usage:        "ethereum network whose headers are relayed (1 = ropsten, any other id = production)" + generateEnvDoc("eth-network"),
	}

	FinalityFlag = Flag{
		Name:  "finality",
		Value: uint64(params.DefaultNumberOfBlocksFinality),
		Usage: "number of blocks after which a header can no longer be relayed" + generateEnvDoc("finality"),
	}

	SafeFlag = Flag{
		Name:  "safe",
		Value: uint64(params.DefaultNumberOfBlocksSafe),
		Usage: "number of confirmations required before a receipt is accepted" + generateEnvDoc("safe"),
	}

	CheckAuthoritiesFlag = Flag{
		Name:  "check-authorities",
		Value: true,
		Usage: "restrict header relaying and receipt checks to authorities" + generateEnvDoc("check-authorities"),
	}

	AuthoritiesFlag = Flag{
		Name:  "authorities",
		Value: []string{},
		Usage: "initial authority addresses. Syntax: <0xaddr1>,<0xaddr2>,..." + generateEnvDoc("authorities"),
	}

	DBEngineFlag = Flag{
		Name:  "db-engine",
		Value: rawdb.EngineLevelDB,
		Usage: "storage backend of the relay database (leveldb, pebble)" + generateEnvDoc("db-engine"),
	}

	DBCacheFlag = Flag{
		Name:  "db.cache",
		Value: 64,
		Usage: "megabytes of memory allocated to the database cache" + generateEnvDoc("db.cache"),
	}

	DBHandlesFlag = Flag{
		Name:  "db.handles",
		Value: 256,
		Usage: "number of open files the database may use" + generateEnvDoc("db.handles"),
	}

	AccountFlag = Flag{
		Name:         "account",
		Abbreviation: "a",
		Value:        "",
		Usage:        "address the call is signed by; calls run as root when empty" + generateEnvDoc("account"),
	}

	// ****************************************
	// **                                    **
	// **         ETHASH FLAGS               **
	// **                                    **
	// ****************************************
	PowModeFlag = Flag{
		Name:  "pow-mode",
		Value: ethash.ModeNormal.String(),
		Usage: "seal verification mode (normal, test, fake)" + generateEnvDoc("pow-mode"),
	}

	EthashRulesFlag = Flag{
		Name:  "ethash.rules",
		Value: "",
		Usage: "difficulty constant set overriding the network's (production, ropsten, expanse)" + generateEnvDoc("ethash.rules"),
	}

	EthashCacheDirFlag = Flag{
		Name:  "ethash.cachedir",
		Value: "",
		Usage: "directory to store the ethash verification caches (default = inside the data dir)" + generateEnvDoc("ethash.cachedir"),
	}

	EthashCachesInMemFlag = Flag{
		Name:  "ethash.cachesinmem",
		Value: 2,
		Usage: "number of recent ethash caches to keep in memory (16MB each)" + generateEnvDoc("ethash.cachesinmem"),
	}

	EthashCachesOnDiskFlag = Flag{
		Name:  "ethash.cachesondisk",
		Value: 3,
		Usage: "number of recent ethash caches to keep on disk (16MB each)" + generateEnvDoc("ethash.cachesondisk"),
	}

	EthashCachesLockMmapFlag = Flag{
		Name:  "ethash.cacheslockmmap",
		Value: false,
		Usage: "lock memory maps of recent ethash caches" + generateEnvDoc("ethash.cacheslockmmap"),
	}

	EthashDatasetDirFlag = Flag{
		Name:  "ethash.dagdir",
		Value: "",
		Usage: "directory to store the ethash datasets (default = inside the data dir)" + generateEnvDoc("ethash.dagdir"),
	}

	EthashDatasetsOnDiskFlag = Flag{
		Name:  "ethash.dagsondisk",
		Value: 1,
		Usage: "number of ethash datasets to keep on disk (1+GB each)" + generateEnvDoc("ethash.dagsondisk"),
	}

	// ****************************************
	// **                                    **
	// **         METRICS FLAGS              **
	// **                                    **
	// ****************************************
	MetricsEnabledFlag = Flag{
		Name:  "metrics.enabled",
		Value: false,
		Usage: "enable metrics collection and reporting" + generateEnvDoc("metrics.enabled"),
	}

	MetricsAddrFlag = Flag{
		Name:  "metrics.addr",
		Value: metrics_config.DefaultAddr,
		Usage: "listen address of the metrics endpoint" + generateEnvDoc("metrics.addr"),
	}
)

func CreateAndBindFlag(flag Flag, cmd *cobra.Command) {
	switch val := flag.Value.(type) {
	case string:
		cmd.PersistentFlags().StringP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case bool:
		cmd.PersistentFlags().BoolP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case []string:
		cmd.PersistentFlags().StringSliceP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case time.Duration:
		cmd.PersistentFlags().DurationP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int:
		cmd.PersistentFlags().IntP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int64:
		cmd.PersistentFlags().Int64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case uint64:
		cmd.PersistentFlags().Uint64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case *big.Int:
		cmd.PersistentFlags().VarP(newBigIntValue(new(big.Int).Set(val)), flag.GetName(), flag.GetAbbreviation(), flag.GetUsage())
	case TextMarshaler:
		cmd.PersistentFlags().VarP(NewTextMarshalerValue(val), flag.GetName(), flag.GetAbbreviation(), flag.GetUsage())
	default:
		log.Global.Error("Flag type not supported: " + flag.GetName() + ", " + fmt.Sprintf("%T", val))
	}
	viper.BindPFlag(flag.GetName(), cmd.PersistentFlags().Lookup(flag.GetName()))
}

// helper function that given a cobra flag name, returns the corresponding
// help legend for the equivalent environment variable
func generateEnvDoc(flag string) string {
	envVar := constants.ENV_PREFIX + "_" + strings.ReplaceAll(strings.ReplaceAll(strings.ToUpper(flag), "-", "_"), ".", "_")
	return fmt.Sprintf(" [%s]", envVar)
}
