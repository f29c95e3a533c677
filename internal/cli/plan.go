package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/forPelevin/takeclean/internal/domain/edl"
	"github.com/forPelevin/takeclean/internal/domain/plan"
	"github.com/forPelevin/takeclean/internal/types"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build an edit decision list from an existing transcript",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}
	cmd.Flags().String("transcript", "", "Transcript JSON ({\"segments\": [...]})")
	cmd.Flags().String("silences", "", "Silence ranges JSON ([{\"start\":..,\"end\":..}])")
	cmd.Flags().String("script", "", "Script text file; omit for script-less cleanup")
	cmd.Flags().Float64("duration", 0, "Recording duration in seconds (default: transcript end)")
	cmd.Flags().String("format", "json", "Output format: json or table")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "table" {
		return fmt.Errorf("unknown format %q", format)
	}

	var in plan.Input
	transcriptPath, _ := cmd.Flags().GetString("transcript")
	if err := readJSON(transcriptPath, &in.Transcript); err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("silences"); p != "" {
		if err := readJSON(p, &in.Silences); err != nil {
			return err
		}
	}
	if p, _ := cmd.Flags().GetString("script"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		in.Script = string(b)
	}
	in.Duration, _ = cmd.Flags().GetFloat64("duration")

	doc, err := plan.Build(cmd.Context(), s.core, in)
	if err != nil {
		return err
	}
	s.logger.Info("plan built", "component", "cli", "actions", len(doc.Actions), "keep", len(doc.Keep))

	if format == "json" {
		return edl.Encode(cmd.OutOrStdout(), doc)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, actionsTable(doc.Actions))
	fmt.Fprintln(out, keepTable(doc.Keep))
	fmt.Fprintf(out, "kept %s s, cut %s s, retakes dropped %d, match timeouts %d\n",
		seconds(doc.Stats.KeptSeconds), seconds(doc.Stats.CutSeconds), doc.Stats.RetakesDropped, doc.Stats.MatchTimeouts)
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func actionsTable(actions []types.CutAction) string {
	rows := make([][]string, 0, len(actions))
	for i, a := range actions {
		target := ""
		if a.Type == types.ActionTightenPause {
			target = strconv.Itoa(a.TargetMS)
		}
		rows = append(rows, []string{strconv.Itoa(i), string(a.Type), seconds(a.Start), seconds(a.End), target, a.Reason})
	}
	return renderTable(
		[]string{"#", "Type", "Start", "End", "Target ms", "Reason"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func keepTable(keep []types.Interval) string {
	rows := make([][]string, 0, len(keep))
	for i, k := range keep {
		rows = append(rows, []string{strconv.Itoa(i), seconds(k.Start), seconds(k.End), seconds(k.Duration())})
	}
	return renderTable(
		[]string{"Keep", "Start", "End", "Length"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	)
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
