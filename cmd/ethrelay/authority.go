package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/relay"
	"github.com/ethereum/go-ethereum/common"
)

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "manages the accounts allowed to relay headers and check receipts",
}

var authorityAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "adds an authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccount(args[0], func(r *relay.Relay, origin relay.Origin, addr common.Address) error {
			return r.AddAuthority(origin, addr)
		})
	},
}

var authorityRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "removes an authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAccount(args[0], func(r *relay.Relay, origin relay.Origin, addr common.Address) error {
			return r.RemoveAuthority(origin, addr)
		})
	},
}

var authorityToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "switches authority checking on or off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(r *relay.Relay, origin relay.Origin) error {
			if err := r.ToggleCheckAuthorities(origin); err != nil {
				return err
			}
			fmt.Printf("check-authorities: %t\n", r.CheckAuthorities())
			return nil
		})
	},
}

var authorityListCmd = &cobra.Command{
	Use:   "list",
	Short: "prints the authority set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(func(b *utils.Backend) error {
			for _, addr := range b.Relay.Authorities() {
				fmt.Println(addr.Hex())
			}
			return nil
		})
	},
}

var (
	windowFinalityFlag = utils.Flag{
		Name:  "set-finality",
		Value: int64(-1),
		Usage: "new number of blocks after which headers are too old",
	}
	windowSafeFlag = utils.Flag{
		Name:  "set-safe",
		Value: int64(-1),
		Usage: "new number of confirmations required by receipt checks",
	}
)

var windowCmd = &cobra.Command{
	Use:     "window",
	Short:   "changes the finality and safety windows of an initialised relay",
	Args:    cobra.NoArgs,
	RunE:    runWindow,
	Example: `ethrelay window --set-finality=60 --set-safe=12`,
}

func init() {
	for _, cmd := range []*cobra.Command{authorityAddCmd, authorityRemoveCmd, authorityToggleCmd, authorityListCmd} {
		authorityCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(authorityCmd)
	bindRelayFlags(authorityCmd)

	rootCmd.AddCommand(windowCmd)
	bindRelayFlags(windowCmd)
	utils.CreateAndBindFlag(windowFinalityFlag, windowCmd)
	utils.CreateAndBindFlag(windowSafeFlag, windowCmd)
}

func runWindow(cmd *cobra.Command, args []string) error {
	finality, _ := cmd.Flags().GetInt64(windowFinalityFlag.Name)
	safe, _ := cmd.Flags().GetInt64(windowSafeFlag.Name)
	return withAdmin(func(r *relay.Relay, origin relay.Origin) error {
		if finality >= 0 {
			if err := r.SetNumberOfBlocksFinality(origin, uint64(finality)); err != nil {
				return err
			}
		}
		if safe >= 0 {
			if err := r.SetNumberOfBlocksSafe(origin, uint64(safe)); err != nil {
				return err
			}
		}
		fmt.Printf("finality: %d, safe: %d\n", r.NumberOfBlocksFinality(), r.NumberOfBlocksSafe())
		return nil
	})
}

// withAdmin runs fn with the configured origin. The relay rejects anything
// but root.
func withAdmin(fn func(r *relay.Relay, origin relay.Origin) error) error {
	origin, err := utils.CallOrigin()
	if err != nil {
		return err
	}
	return withBackend(func(b *utils.Backend) error {
		return fn(b.Relay, origin)
	})
}

func withAccount(account string, fn func(r *relay.Relay, origin relay.Origin, addr common.Address) error) error {
	addr, err := utils.ParseAddress(account)
	if err != nil {
		return err
	}
	return withAdmin(func(r *relay.Relay, origin relay.Origin) error {
		return fn(r, origin, addr)
	})
}
