package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var insertCmd = &cobra.Command{
	Use:   "insert <pos> <text>",
	Short: "insert text into the session document at a content position",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("dtcli insert: bad position %q: %w", args[0], err)
		}
		text := args[1]
		for _, extra := range args[2:] {
			text += " " + extra
		}
		if err := session.LocalInsert(localAgent(), pos, text); err != nil {
			return err
		}
		fmt.Println(session.Text())
		return nil
	},
}
