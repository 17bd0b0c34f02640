package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
)

var receiptCheckFlag = utils.Flag{
	Name:  "check",
	Value: false,
	Usage: "run the authority gated check as the --account origin",
}

var verifyReceiptCmd = &cobra.Command{
	Use:   "verify-receipt <proofs.json>",
	Short: "verifies receipt inclusion proofs against canonical headers",
	Long: `verifies receipt inclusion proofs. Each proof object carries the header hash,
the transaction index and the hex encoded RLP list of trie nodes. The decoded
receipts are printed as JSON.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runVerifyReceipt,
	Example: `ethrelay verify-receipt proof.json --check --account=0x00000000000000000000000000000000000a11ce`,
}

func init() {
	rootCmd.AddCommand(verifyReceiptCmd)
	bindRelayFlags(verifyReceiptCmd)
	utils.CreateAndBindFlag(receiptCheckFlag, verifyReceiptCmd)
}

func runVerifyReceipt(cmd *cobra.Command, args []string) error {
	check, _ := cmd.Flags().GetBool(receiptCheckFlag.Name)
	origin, err := utils.CallOrigin()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return withBackend(func(b *utils.Backend) error {
		return forEachProof(args[0], func(proof *types.ReceiptProof) error {
			var (
				receipt *types.Receipt
				err     error
			)
			if check {
				receipt, err = b.Relay.CheckReceipt(origin, proof)
			} else {
				receipt, err = b.Relay.VerifyReceipt(proof)
			}
			if err != nil {
				log.Global.WithFields(log.Fields{
					"header": proof.HeaderHash,
					"index":  proof.Index,
				}).Error("Receipt proof rejected")
				return err
			}
			return enc.Encode(receipt)
		})
	})
}
