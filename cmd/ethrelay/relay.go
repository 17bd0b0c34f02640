package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/dominant-strategies/go-ethrelay/metrics_config"
	"github.com/dominant-strategies/go-ethrelay/relay"
)

var relayKeepGoingFlag = utils.Flag{
	Name:         "keep-going",
	Abbreviation: "k",
	Value:        false,
	Usage:        "log rejected headers and continue with the next one",
}

var relayCmd = &cobra.Command{
	Use:   "relay <headers.json>...",
	Short: "verifies and stores headers",
	Long: `verifies and stores headers read from JSON files, in order. Each file holds one
or more header objects as returned by eth_getBlockByHash. Use - to read a
stream of headers from stdin.`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRelay,
	Example: `geth-export | ethrelay relay - --account=0x00000000000000000000000000000000000a11ce`,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	bindRelayFlags(relayCmd)
	utils.CreateAndBindFlag(relayKeepGoingFlag, relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	origin, err := utils.CallOrigin()
	if err != nil {
		return err
	}
	keepGoing, _ := cmd.Flags().GetBool(relayKeepGoingFlag.Name)

	return withBackend(func(b *utils.Backend) error {
		if viper.GetBool(utils.MetricsEnabledFlag.Name) {
			metrics_config.StartProcessMetrics(viper.GetString(utils.MetricsAddrFlag.Name))
		}
		events := make(chan relay.RelayHeaderEvent, 16)
		sub := b.Relay.SubscribeRelayHeaderEvent(events)
		defer sub.Unsubscribe()

		var relayed, rejected int
		for _, path := range args {
			err := forEachHeader(path, func(header *types.Header) error {
				if err := b.Relay.RelayHeader(origin, header); err != nil {
					if !keepGoing {
						return err
					}
					rejected++
					log.Global.WithFields(log.Fields{
						"number": header.Number(),
						"hash":   header.Hash(),
						"err":    err,
					}).Warn("Header rejected")
					return nil
				}
				relayed++
				ev := <-events
				if ev.Reorged > 0 {
					log.Global.WithFields(log.Fields{
						"number":  ev.Header.Number(),
						"reorged": ev.Reorged,
					}).Warn("Canonical chain reorganised")
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		log.Global.WithFields(log.Fields{
			"relayed":  relayed,
			"rejected": rejected,
			"best":     b.Relay.BestHeaderHash(),
		}).Info("Relay finished")
		return nil
	})
}
