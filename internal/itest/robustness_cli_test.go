//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 30 * time.Second

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)

	cases := []robustCase{
		{
			name: "no args",
			args: staticArgs("run"),
			wantContains: []string{
				"accepts 1 arg(s), received 0",
			},
		},
		{
			name: "too many args",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", writeMediaFixture(t), "extra"}
			},
			wantContains: []string{
				"accepts 1 arg(s), received 2",
			},
		},
		{
			name: "unknown flag",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", writeMediaFixture(t), "--wat"}
			},
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "aggr non int",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", writeMediaFixture(t), "--aggr", "nope"}
			},
			wantContains: []string{
				`invalid argument "nope" for "--aggr"`,
			},
		},
		{
			name: "plan without transcript",
			args: staticArgs("plan"),
			wantContains: []string{
				`required flag(s) "transcript" not set`,
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_InvalidInput(t *testing.T) {
	repoRoot := mustRepoRoot(t)

	cases := []robustCase{
		{
			name: "missing input path",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", filepath.Join(t.TempDir(), "does-not-exist.wav")}
			},
			wantContains: []string{
				"config: stat input:",
			},
		},
		{
			name: "missing script",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", writeMediaFixture(t), "--script", filepath.Join(t.TempDir(), "nope.txt")}
			},
			wantContains: []string{
				"config: stat script:",
			},
		},
		{
			name: "input is directory",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", t.TempDir()}
			},
			wantContains: []string{
				"ffmpeg extract audio:",
			},
		},
		{
			name: "input is non media file",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", writeMediaFixture(t)}
			},
			wantContains: []string{
				"ffmpeg extract audio:",
			},
		},
		{
			name: "out points to file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tmp := t.TempDir()
				outFile := filepath.Join(tmp, "out-file")
				if err := os.WriteFile(outFile, []byte("x"), 0o644); err != nil {
					t.Fatalf("write out file fixture: %v", err)
				}
				return []string{"run", writeMediaFixture(t), "--out", outFile}
			},
			wantContains: []string{
				"not a directory",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_ConfigFile(t *testing.T) {
	repoRoot := mustRepoRoot(t)

	configWith := func(body string) func(t *testing.T, _ string) []string {
		return func(t *testing.T, _ string) []string {
			t.Helper()
			path := filepath.Join(t.TempDir(), "takeclean.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config fixture: %v", err)
			}
			return []string{"run", writeMediaFixture(t), "--config", path}
		}
	}

	cases := []robustCase{
		{
			name: "unknown detector",
			args: configWith("[silence]\ndetector = \"vad\"\n"),
			wantContains: []string{
				"invalid config: silence.detector",
			},
		},
		{
			name: "threshold out of range",
			args: configWith("[thresholds]\nretake_sim_threshold = 1.5\n"),
			wantContains: []string{
				"invalid config: retake_sim_threshold",
			},
		},
		{
			name: "malformed toml",
			args: configWith("aggressiveness = ["),
			wantContains: []string{
				"parse config:",
			},
		},
		{
			name: "missing env config falls back to defaults",
			args: func(t *testing.T, _ string) []string {
				return []string{"run", writeMediaFixture(t)}
			},
			env: map[string]string{
				"TAKECLEAN_CONFIG": "/nonexistent/dir/takeclean.toml",
			},
			wantContains: []string{
				"ffmpeg extract audio:",
			},
			wantNotContains: []string{
				"invalid config",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

// writeMediaFixture writes a file with a media extension that no decoder accepts.
func writeMediaFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "not-media.wav")
	if err := os.WriteFile(path, []byte("this is not audio"), 0o644); err != nil {
		t.Fatalf("write media fixture: %v", err)
	}
	return path
}

func runRobustCases(t *testing.T, repoRoot string, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, repoRoot, tc.args(t, repoRoot), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/takeclean"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR": "1",
			"TERM":     "dumb",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		res.exitCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
