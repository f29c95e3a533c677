//go:build integration

package itest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/takeclean/internal/config"
	"github.com/forPelevin/takeclean/internal/domain/edl"
	"github.com/forPelevin/takeclean/internal/pipeline"
)

func TestE2E(t *testing.T) {
	tmp := t.TempDir()

	// Speak the script with a fluffed first take and a long pause.
	script := "Here is the key idea. Step one is to measure results."
	takes := []string{
		"Here is the key idear.",
		"Here is the key idea.",
		"Step one is to measure results.",
	}
	var parts []string
	for i, text := range takes {
		wav := filepath.Join(tmp, fmt.Sprintf("part%d.wav", i))
		cmd := exec.Command("espeak-ng", "-w", wav, text)
		if b, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
		}
		parts = append(parts, wav)
	}

	in := filepath.Join(tmp, "take.wav")
	args := []string{"-y"}
	for _, p := range parts {
		args = append(args, "-i", p)
	}
	args = append(args,
		"-f", "lavfi", "-t", "2", "-i", "anullsrc=r=22050:cl=mono",
		"-filter_complex", "[0:a][3:a][1:a][2:a]concat=n=4:v=0:a=1[out]",
		"-map", "[out]",
		in,
	)
	if b, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	scriptPath := filepath.Join(tmp, "script.txt")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	file := config.DefaultFile()
	core, err := file.Core()
	if err != nil {
		t.Fatalf("core config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		Input:      in,
		ScriptPath: scriptPath,
		OutDir:     filepath.Join(tmp, "out"),
		CacheDir:   filepath.Join(tmp, "cache"),
		Render:     true,
		Core:       core,
		Silence:    file.Silence,
		Tools:      file.Tools,
	}
	root := mustRepoRoot(t)
	cfg.Tools.WhisperBin = filepath.Join(root, cfg.Tools.WhisperBin)
	cfg.Tools.WhisperModel = filepath.Join(root, cfg.Tools.WhisperModel)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	f, err := os.Open(res.EDL)
	if err != nil {
		t.Fatalf("missing edl: %v", err)
	}
	defer f.Close()
	doc, err := edl.Decode(f)
	if err != nil {
		t.Fatalf("decode edl: %v", err)
	}
	if len(doc.Keep) == 0 {
		t.Fatalf("expected kept material, got none")
	}
	if doc.RunID != res.RunID {
		t.Fatalf("edl run id %q, want %q", doc.RunID, res.RunID)
	}

	srcDur, err := probeDurationSeconds(in)
	if err != nil {
		t.Fatalf("probe input: %v", err)
	}
	cleanDur, err := probeDurationSeconds(filepath.Join(res.RunDir, doc.Stem+".clean.wav"))
	if err != nil {
		t.Fatalf("probe clean render: %v", err)
	}
	if cleanDur >= srcDur {
		t.Fatalf("expected clean render shorter than input: %.2fs >= %.2fs", cleanDur, srcDur)
	}
	if _, err := os.Stat(filepath.Join(res.RunDir, doc.Stem+".clean.ass")); err != nil {
		t.Fatalf("missing subtitles: %v", err)
	}
}
