package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <pos> <len>",
	Short: "delete a run of characters from the session document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("dtcli delete: bad position %q: %w", args[0], err)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dtcli delete: bad length %q: %w", args[1], err)
		}
		if err := session.LocalDelete(localAgent(), pos, n); err != nil {
			return err
		}
		fmt.Println(session.Text())
		return nil
	},
}
