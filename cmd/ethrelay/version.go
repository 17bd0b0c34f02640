package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dominant-strategies/go-ethrelay/params"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints the version of the binary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := params.Version.Err(); err != nil {
			return err
		}
		fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
		fmt.Printf("Release: %d.%d.%d\n", params.Version.Major(), params.Version.Minor(), params.Version.Patch())
		fmt.Println("Go Version:", runtime.Version())
		fmt.Println("Operating System:", runtime.GOOS)
		fmt.Println("Architecture:", runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
