package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the monitor needs: where the API lives, which
// offices to watch, and how often to poll.
type Config struct {
	APIURL       string
	DirectoryURL string
	APIKey       string
	Offices      []string // office keys to monitor; empty means all listed offices
	PollSeconds  int
	MetricsBind  string // host:port for /metrics; empty disables the listener
}

const (
	defaultConfigPath   = "~/.config/kolejka/config.toml"
	defaultAPIURL       = "https://api.um.warszawa.pl/api/action/wsstore_get/"
	defaultDirectoryURL = "https://api.um.warszawa.pl/api/action/wsstore_offices/"
	defaultPollSeconds  = 60
)

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIURL:       defaultAPIURL,
		DirectoryURL: defaultDirectoryURL,
		PollSeconds:  defaultPollSeconds,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL       string   `toml:"api_url"`
		DirectoryURL string   `toml:"directory_url"`
		APIKey       string   `toml:"api_key"`
		Offices      []string `toml:"offices"`
		PollSeconds  int      `toml:"poll_seconds"`
		MetricsBind  string   `toml:"metrics_bind"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.DirectoryURL); v != "" {
		cfg.DirectoryURL = v
	}
	cfg.APIKey = strings.TrimSpace(raw.APIKey)
	for _, key := range raw.Offices {
		if key = strings.TrimSpace(key); key != "" {
			cfg.Offices = append(cfg.Offices, key)
		}
	}
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}
	cfg.MetricsBind = strings.TrimSpace(raw.MetricsBind)

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
