package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/mailbox"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Print new random mailbox names",
	Args:  cobra.NoArgs,
	RunE:  runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().IntP("count", "n", 1, "number of mailbox names to generate")
}

func runGen(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("count")
	if n < 1 {
		return fmt.Errorf("count must be positive, got %d", n)
	}
	out := cmd.OutOrStdout()
	for range n {
		m, err := mailbox.GenerateMailbox()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, m)
	}
	return nil
}
