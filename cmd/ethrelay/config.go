package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/common/constants"
	"github.com/dominant-strategies/go-ethrelay/log"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "creates the default config file",
	Long: `creates the default config file in the location specified by the --config-dir flag.
The default config file will contain all the default values for the flags.
Any flags passed in the command line here will also overwrite the default values in the config file.`,
	RunE:                       runConfig,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `ethrelay config --finality=60 --db-engine=pebble`,
}

func init() {
	rootCmd.AddCommand(configCmd)
	bindRelayFlags(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	// filepath.Clean returns the shortest path name equivalent to path by purely lexical processing
	configDir := filepath.Clean(cmd.Flag(utils.ConfigDirFlag.Name).Value.String())
	configFile := filepath.Join(configDir, constants.CONFIG_FILE_NAME)

	if _, err := os.Stat(configFile); err == nil {
		log.Global.WithField("path", configFile).Error("Cannot init config file. File already exists. Either remove this option to run with the existing config file, or delete the existing config file to re-initialize a new one.")
		return os.ErrExist
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := utils.WriteDefaultConfigFile(configDir, constants.CONFIG_FILE_NAME, constants.CONFIG_FILE_TYPE); err != nil {
		return err
	}
	log.Global.WithField("path", configFile).Info("Initialized new config file.")
	return nil
}
