package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/consensus/ethash"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/ethereum/go-ethereum/common"
)

var (
	fromBlockFlag = utils.Flag{
		Name:  "from",
		Value: uint64(0),
		Usage: "first block number",
	}
	toBlockFlag = utils.Flag{
		Name:  "to",
		Value: uint64(ethash.EpochLength * 10),
		Usage: "last block number",
	}
	blockNumberFlag = utils.Flag{
		Name:  "number",
		Value: uint64(0),
		Usage: "block number selecting the epoch",
	}
	bareHashFlag = utils.Flag{
		Name:  "bare-hash",
		Value: new(common.Hash),
		Usage: "keccak of the header without its seal",
	}
	nonceFlag = utils.Flag{
		Name:  "nonce",
		Value: uint64(0),
		Usage: "seal nonce",
	}
	fullFlag = utils.Flag{
		Name:  "full",
		Value: false,
		Usage: "run against the full dataset instead of the light cache",
	}
)

var dagSizesCmd = &cobra.Command{
	Use:     "dag-sizes",
	Short:   "prints the cache and dataset sizes of every epoch in a block range",
	Args:    cobra.NoArgs,
	RunE:    runDagSizes,
	Example: `ethrelay dag-sizes --from=8000000 --to=9000000`,
}

var makeCacheCmd = &cobra.Command{
	Use:   "makecache",
	Short: "generates the verification cache of an epoch into the ethash directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		number, _ := cmd.Flags().GetUint64(blockNumberFlag.Name)
		config, err := utils.EthashConfig()
		if err != nil {
			return err
		}
		ethash.MakeCache(number, config.CacheDir, log.Global)
		return nil
	},
}

var makeDagCmd = &cobra.Command{
	Use:   "makedag",
	Short: "generates the full dataset of an epoch into the ethash directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		number, _ := cmd.Flags().GetUint64(blockNumberFlag.Name)
		config, err := utils.EthashConfig()
		if err != nil {
			return err
		}
		ethash.MakeDataset(number, config.DatasetDir, log.Global)
		return nil
	},
}

var hashimotoCmd = &cobra.Command{
	Use:     "hashimoto",
	Short:   "computes the mix digest and result of a seal",
	Args:    cobra.NoArgs,
	RunE:    runHashimoto,
	Example: `ethrelay hashimoto --number=8996777 --bare-hash=0x3c2e... --nonce=0x...`,
}

func init() {
	rootCmd.AddCommand(dagSizesCmd)
	utils.CreateAndBindFlag(fromBlockFlag, dagSizesCmd)
	utils.CreateAndBindFlag(toBlockFlag, dagSizesCmd)

	for _, cmd := range []*cobra.Command{makeCacheCmd, makeDagCmd, hashimotoCmd} {
		rootCmd.AddCommand(cmd)
		for _, flag := range utils.EthashFlags {
			utils.CreateAndBindFlag(flag, cmd)
		}
		utils.CreateAndBindFlag(utils.EthNetworkFlag, cmd)
		utils.CreateAndBindFlag(blockNumberFlag, cmd)
	}
	utils.CreateAndBindFlag(bareHashFlag, hashimotoCmd)
	utils.CreateAndBindFlag(nonceFlag, hashimotoCmd)
	utils.CreateAndBindFlag(fullFlag, hashimotoCmd)
}

func runDagSizes(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetUint64(fromBlockFlag.Name)
	to, _ := cmd.Flags().GetUint64(toBlockFlag.Name)
	if to < from {
		return fmt.Errorf("empty range %d..%d", from, to)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Epoch", "First block", "Cache bytes", "Dataset bytes"})
	for epoch := from / ethash.EpochLength; epoch <= to/ethash.EpochLength; epoch++ {
		block := epoch * ethash.EpochLength
		table.Append([]string{
			strconv.FormatUint(epoch, 10),
			strconv.FormatUint(block, 10),
			strconv.FormatUint(ethash.CacheSize(block), 10),
			strconv.FormatUint(ethash.DatasetSize(block), 10),
		})
	}
	table.Render()
	return nil
}

func runHashimoto(cmd *cobra.Command, args []string) error {
	number, _ := cmd.Flags().GetUint64(blockNumberFlag.Name)
	nonce, _ := cmd.Flags().GetUint64(nonceFlag.Name)
	full, _ := cmd.Flags().GetBool(fullFlag.Name)
	bareHash := *bareHashFlag.Value.(*common.Hash)

	engine, err := utils.MakeEthash(log.Global)
	if err != nil {
		return err
	}
	defer engine.Close()

	var mix, result common.Hash
	if full {
		mix, result = engine.HashimotoFull(number, bareHash, types.EncodeNonce(nonce))
	} else {
		mix, result = engine.Hashimoto(number, bareHash, types.EncodeNonce(nonce))
	}
	fmt.Printf("mix:    %s\nresult: %s\n", mix.Hex(), result.Hex())
	return nil
}
