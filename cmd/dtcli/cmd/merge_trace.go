package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocrdt/texttree"
	"github.com/spf13/cobra"
)

var mergeTraceCmd = &cobra.Command{
	Use:   "merge-trace [file]",
	Short: "apply a stream of remote transactions, one JSON object per line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("dtcli merge-trace: %w", err)
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		applied := 0
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var txn texttree.RemoteTxn
			if err := json.Unmarshal([]byte(line), &txn); err != nil {
				return fmt.Errorf("dtcli merge-trace: line %d: %w", lineNo, err)
			}
			if err := session.ApplyRemoteTxn(txn); err != nil {
				return fmt.Errorf("dtcli merge-trace: applying %v: %w", txn.ID, err)
			}
			applied++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("dtcli merge-trace: %w", err)
		}
		fmt.Printf("applied %d transactions\n", applied)
		fmt.Println(session.Text())
		return nil
	},
}
