package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/takeclean/internal/types"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment variables consulted by Load.
const (
	EnvConfig       = "TAKECLEAN_CONFIG"
	EnvWhisperBin   = "TAKECLEAN_WHISPER_BIN"
	EnvWhisperModel = "TAKECLEAN_WHISPER_MODEL"
)

// Silence detector names.
const (
	DetectorEnergy = "energy"
	DetectorFFmpeg = "ffmpeg"
)

// Silence configures the external silence detector.
type Silence struct {
	Detector    string  `toml:"detector"`
	NoiseDB     float64 `toml:"noise_db"`
	MinDuration float64 `toml:"min_duration"`
}

// Tools locates external binaries and models.
type Tools struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	WhisperBin   string `toml:"whisper_bin"`
	WhisperModel string `toml:"whisper_model"`
	Language     string `toml:"language"`
}

// Paths contains working and output directories.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	OutDir   string `toml:"out_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// File is the on-disk configuration.
type File struct {
	Aggressiveness int       `toml:"aggressiveness"`
	Thresholds     Overrides `toml:"thresholds"`
	Silence        Silence   `toml:"silence"`
	Tools          Tools     `toml:"tools"`
	Paths          Paths     `toml:"paths"`
	Logging        Logging   `toml:"logging"`
}

// Core builds the validated core Config described by the file.
func (f File) Core() (Config, error) {
	return New(f.Aggressiveness, f.Thresholds)
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/takeclean/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults are returned with exists=false.
func Load(path string) (File, string, bool, error) {
	f := DefaultFile()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return File{}, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return File{}, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&f); err != nil {
			return File{}, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	f.applyEnv()
	if err := f.normalize(); err != nil {
		return File{}, "", false, err
	}
	if err := f.Validate(); err != nil {
		return File{}, "", false, err
	}
	return f, resolvedPath, exists, nil
}

// Validate checks the file-level sections and the core thresholds.
func (f File) Validate() error {
	switch f.Silence.Detector {
	case DetectorEnergy, DetectorFFmpeg:
	default:
		return invalid("silence.detector must be %q or %q, got %q", DetectorEnergy, DetectorFFmpeg, f.Silence.Detector)
	}
	if !(f.Silence.NoiseDB < 0) {
		return invalid("silence.noise_db must be < 0, got %v", f.Silence.NoiseDB)
	}
	if !(f.Silence.MinDuration > 0) {
		return invalid("silence.min_duration must be > 0, got %v", f.Silence.MinDuration)
	}
	switch f.Logging.Format {
	case "auto", "console", "json":
	default:
		return invalid("logging.format must be auto, console or json, got %q", f.Logging.Format)
	}
	if _, err := f.Core(); err != nil {
		return err
	}
	return nil
}

func (f *File) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvWhisperBin)); v != "" {
		f.Tools.WhisperBin = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWhisperModel)); v != "" {
		f.Tools.WhisperModel = v
	}
}

func (f *File) normalize() error {
	f.Silence.Detector = strings.ToLower(strings.TrimSpace(f.Silence.Detector))
	f.Logging.Format = strings.ToLower(strings.TrimSpace(f.Logging.Format))
	f.Logging.Level = strings.ToLower(strings.TrimSpace(f.Logging.Level))
	for _, p := range []*string{&f.Paths.CacheDir, &f.Paths.OutDir, &f.Tools.WhisperBin, &f.Tools.WhisperModel} {
		if !strings.HasPrefix(*p, "~") {
			continue
		}
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("takeclean.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to path. An existing file
// is left alone.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s already exists", types.ErrInvalidConfig, path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
