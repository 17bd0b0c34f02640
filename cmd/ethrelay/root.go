package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/common/constants"
	"github.com/dominant-strategies/go-ethrelay/log"
)

var rootCmd = &cobra.Command{
	Use:               "ethrelay",
	Short:             "relays Ethereum proof-of-work headers and verifies receipt proofs",
	PersistentPreRunE: rootCmdPreRun,
	SilenceUsage:      true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		return err
	}
	return nil
}

func init() {
	for _, flag := range utils.GlobalFlags {
		utils.CreateAndBindFlag(flag, rootCmd)
	}
}

func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	// set logger inmediately after parsing cobra flags
	logLevel := cmd.Flag(utils.LogLevelFlag.Name).Value.String()
	log.SetGlobalLogger("", logLevel)
	// set config path to read config file
	configDir := cmd.Flag(utils.ConfigDirFlag.Name).Value.String()
	viper.SetConfigFile(filepath.Join(configDir, constants.CONFIG_FILE_NAME))
	viper.SetConfigType(constants.CONFIG_FILE_TYPE)
	// load config from file and environment variables
	utils.InitConfig()
	// bind cobra flags to viper instance
	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		return fmt.Errorf("error binding flags: %s", err)
	}

	// Make sure data dir and config dir exist
	for _, dir := range []string{configDir, viper.GetString(utils.DataDirFlag.Name)} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}

	// save config file if SAVE_CONFIG_FILE flag is set to true
	saveConfigFile := viper.GetBool(utils.SaveConfigFlag.Name)
	if saveConfigFile {
		err := utils.SaveConfig()
		if err != nil {
			log.Global.WithField("error", err).Error("error saving config file. Skipping...")
		} else {
			log.Global.Debug("config file saved successfully")
		}
	}
	log.Global.WithField("options", viper.AllSettings()).Debug("config options loaded")
	return nil
}

// bindRelayFlags adds the flags every command opening the relay needs.
func bindRelayFlags(cmd *cobra.Command) {
	for _, group := range [][]utils.Flag{utils.RelayFlags, utils.EthashFlags, utils.MetricsFlags} {
		for _, flag := range group {
			utils.CreateAndBindFlag(flag, cmd)
		}
	}
}

// withBackend opens the relay for the duration of fn.
func withBackend(fn func(b *utils.Backend) error) error {
	backend, err := utils.StartRelayBackend(log.Global)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(backend)
}
