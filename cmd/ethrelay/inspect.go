package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/core/rawdb"
	"github.com/dominant-strategies/go-ethrelay/log"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "prints the storage used by each relay map",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := utils.OpenDatabase(true, log.Global)
		if err != nil {
			return err
		}
		defer db.Close()
		return rawdb.InspectDatabase(db, os.Stdout, log.Global)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	for _, flag := range []utils.Flag{utils.DBEngineFlag, utils.DBCacheFlag, utils.DBHandlesFlag} {
		utils.CreateAndBindFlag(flag, inspectCmd)
	}
}
