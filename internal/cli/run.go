package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/takeclean/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <audio>",
		Short: "Transcribe a recording and write its edit decision list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "", "Output directory (default from config)")
	cmd.Flags().String("script", "", "Script text file; omit for script-less cleanup")
	cmd.Flags().Bool("render", false, "Render the cleaned audio with ffmpeg")
	return cmd
}

func run(cmd *cobra.Command, input string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = s.file.Paths.OutDir
	}
	scriptPath, _ := cmd.Flags().GetString("script")
	render, _ := cmd.Flags().GetBool("render")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Input:      absIn,
		ScriptPath: scriptPath,
		OutDir:     outDir,
		CacheDir:   s.file.Paths.CacheDir,
		Render:     render,
		Logger:     s.logger,
		Core:       s.core,
		Silence:    s.file.Silence,
		Tools:      s.file.Tools,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.EDL)
	return nil
}
