package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "re-derive every structural invariant and report the result",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dtcli check: invariant violated: %v", r)
			}
		}()
		session.DebugCheck(context.Background())
		fmt.Println("ok")
		return nil
	},
}
