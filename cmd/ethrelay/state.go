package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dominant-strategies/go-ethrelay/cmd/utils"
	"github.com/dominant-strategies/go-ethrelay/core/types"
	"github.com/dominant-strategies/go-ethrelay/relay"
	"github.com/ethereum/go-ethereum/common"
)

var (
	stateFormatFlag = utils.Flag{
		Name:         "format",
		Abbreviation: "f",
		Value:        "table",
		Usage:        "output format (table, json, yaml)",
	}
	stateHashFlag = utils.Flag{
		Name:  "hash",
		Value: new(common.Hash),
		Usage: "show the stored header with this hash",
	}
	stateNumberFlag = utils.Flag{
		Name:  "number",
		Value: int64(-1),
		Usage: "show the canonical header at this number",
	}
	stateDumpFlag = utils.Flag{
		Name:  "dump",
		Value: false,
		Usage: "dump the selected header with all its internal fields",
	}
)

var stateCmd = &cobra.Command{
	Use:     "state",
	Short:   "prints the relay state, or one of its headers",
	Args:    cobra.NoArgs,
	RunE:    runState,
	Example: `ethrelay state --number=8996778 --format=yaml`,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	bindRelayFlags(stateCmd)
	for _, flag := range []utils.Flag{stateFormatFlag, stateHashFlag, stateNumberFlag, stateDumpFlag} {
		utils.CreateAndBindFlag(flag, stateCmd)
	}
}

// relayState is the summary printed by the state command.
type relayState struct {
	Network          string   `json:"network" yaml:"network"`
	Genesis          string   `json:"genesis" yaml:"genesis"`
	Best             string   `json:"best" yaml:"best"`
	BestNumber       uint64   `json:"bestNumber" yaml:"bestNumber"`
	TotalDifficulty  string   `json:"totalDifficulty" yaml:"totalDifficulty"`
	Finality         uint64   `json:"finality" yaml:"finality"`
	Safe             uint64   `json:"safe" yaml:"safe"`
	CheckAuthorities bool     `json:"checkAuthorities" yaml:"checkAuthorities"`
	Authorities      []string `json:"authorities" yaml:"authorities"`
}

func readState(r *relay.Relay) relayState {
	state := relayState{
		Network:          r.Engine().Network().String(),
		Genesis:          r.GenesisHeaderHash().Hex(),
		Best:             r.BestHeaderHash().Hex(),
		TotalDifficulty:  r.BestTotalDifficulty().String(),
		Finality:         r.NumberOfBlocksFinality(),
		Safe:             r.NumberOfBlocksSafe(),
		CheckAuthorities: r.CheckAuthorities(),
		Authorities:      []string{},
	}
	if info := r.HeaderInfoOf(r.BestHeaderHash()); info != nil {
		state.BestNumber = info.Number
	}
	for _, addr := range r.Authorities() {
		state.Authorities = append(state.Authorities, addr.Hex())
	}
	return state
}

func runState(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString(stateFormatFlag.Name)
	number, _ := cmd.Flags().GetInt64(stateNumberFlag.Name)
	dump, _ := cmd.Flags().GetBool(stateDumpFlag.Name)
	hash := *stateHashFlag.Value.(*common.Hash)

	return withBackend(func(b *utils.Backend) error {
		if number >= 0 {
			hash = b.Relay.CanonicalHeaderHashOf(uint64(number))
			if hash == (common.Hash{}) {
				return fmt.Errorf("no canonical header at %d", number)
			}
		}
		if hash == (common.Hash{}) {
			return writeOutput(os.Stdout, format, readState(b.Relay), stateRows)
		}
		header := b.Relay.HeaderOf(hash)
		if header == nil {
			return fmt.Errorf("unknown header %s", hash.Hex())
		}
		if dump {
			spew.Fdump(os.Stdout, header)
			return nil
		}
		return writeOutput(os.Stdout, format, header, func(v interface{}) [][]string {
			return headerRows(v.(*types.Header), b.Relay.HeaderInfoOf(hash))
		})
	})
}

func stateRows(v interface{}) [][]string {
	s := v.(relayState)
	rows := [][]string{
		{"Network", s.Network},
		{"Genesis", s.Genesis},
		{"Best", s.Best},
		{"Best number", strconv.FormatUint(s.BestNumber, 10)},
		{"Total difficulty", s.TotalDifficulty},
		{"Finality", strconv.FormatUint(s.Finality, 10)},
		{"Safe", strconv.FormatUint(s.Safe, 10)},
		{"Check authorities", strconv.FormatBool(s.CheckAuthorities)},
	}
	for _, addr := range s.Authorities {
		rows = append(rows, []string{"Authority", addr})
	}
	return rows
}

func headerRows(h *types.Header, info *types.HeaderInfo) [][]string {
	rows := [][]string{
		{"Hash", h.Hash().Hex()},
		{"Number", strconv.FormatUint(h.Number(), 10)},
		{"Parent", h.ParentHash().Hex()},
		{"Author", h.Author().Hex()},
		{"Time", strconv.FormatUint(h.Time(), 10)},
		{"Difficulty", h.Difficulty().String()},
		{"Receipts root", h.ReceiptsRoot().Hex()},
		{"Mix digest", h.MixDigest().Hex()},
		{"Nonce", strconv.FormatUint(h.Nonce().Uint64(), 10)},
	}
	if info != nil {
		rows = append(rows, []string{"Total difficulty", info.TotalDifficulty.String()})
	}
	return rows
}

// writeOutput renders v as JSON, YAML or a two column table.
func writeOutput(w io.Writer, format string, v interface{}, rows func(interface{}) [][]string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// round trip through JSON so types with custom JSON codecs keep
		// their hex encoding
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(generic)
	case "table", "":
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Field", "Value"})
		table.AppendBulk(rows(v))
		table.Render()
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
