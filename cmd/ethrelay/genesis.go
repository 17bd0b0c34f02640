package main

import (
	"math/big"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/log"
)

var (
	genesisDifficultyFlag = utils.Flag{
		Name:  "difficulty",
		Value: big.NewInt(0),
		Usage: "total difficulty credited to the genesis header (default = its own difficulty)",
	}
	genesisResetFlag = utils.Flag{
		Name:  "reset",
		Value: false,
		Usage: "replace the genesis of an initialised relay as the --account authority",
	}
)

var initGenesisCmd = &cobra.Command{
	Use:   "init-genesis <header.json>",
	Short: "sets the header the relay starts from",
	Long: `sets the header the relay starts from. The header becomes the best header
and all canonical entries above its number are removed.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInitGenesis,
	Example: `ethrelay init-genesis block-8996777.json --difficulty=0x2e53a9317e0b5d1e2c1`,
}

func init() {
	rootCmd.AddCommand(initGenesisCmd)
	bindRelayFlags(initGenesisCmd)
	utils.CreateAndBindFlag(genesisDifficultyFlag, initGenesisCmd)
	utils.CreateAndBindFlag(genesisResetFlag, initGenesisCmd)
}

func runInitGenesis(cmd *cobra.Command, args []string) error {
	header, err := readHeader(args[0])
	if err != nil {
		return err
	}
	difficulty := (*big.Int)(cmd.Flag(genesisDifficultyFlag.Name).Value.(*utils.BigIntValue))
	if difficulty.Sign() == 0 {
		difficulty = header.Difficulty()
	}
	reset, _ := cmd.Flags().GetBool(genesisResetFlag.Name)

	return withBackend(func(b *utils.Backend) error {
		if reset {
			origin, err := utils.CallOrigin()
			if err != nil {
				return err
			}
			err = b.Relay.ResetGenesisHeader(origin, header, difficulty)
			if err != nil {
				return err
			}
		} else if err := b.Relay.InitGenesisHeader(header, difficulty); err != nil {
			return err
		}
		log.Global.WithFields(log.Fields{
			"number":     header.Number(),
			"hash":       header.Hash(),
			"difficulty": difficulty,
		}).Info("Genesis header set")
		return nil
	})
}
