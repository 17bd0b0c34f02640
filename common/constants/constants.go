package constants

const (
	APP_NAME = "go-ethrelay"
	// prefix used to read config parameters from environment variables
	ENV_PREFIX = "GO_ETHRELAY"
	// config file name
	CONFIG_FILE_NAME = "config.toml"
	// config file type
	CONFIG_FILE_TYPE = "toml"
	// directory under the data dir holding the relay key-value store
	RELAY_DB_DIR = "relaydb"
	// directory under the data dir holding memory mapped ethash caches
	ETHASH_DIR = "ethash"
)
