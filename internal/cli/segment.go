package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/forPelevin/takeclean/internal/domain/segment"
	"github.com/forPelevin/takeclean/internal/domain/textnorm"
)

func newSegmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "segment <script.txt>",
		Short: "Show how a script splits into sentences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			spans, err := segment.Segment(textnorm.Normalize(string(b)), s.core.Segment)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(spans))
			for i, sp := range spans {
				rows = append(rows, []string{strconv.Itoa(i), strconv.Itoa(sp.Start), strconv.Itoa(sp.End), sp.Text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "End", "Sentence"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
