package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Live    LiveConfig    `toml:"live"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
	Tracing TracingConfig `toml:"tracing"`
}

type GatewayConfig struct {
	Bind           string   `toml:"bind"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LiveConfig describes the remote multimodal session each client gets.
type LiveConfig struct {
	Model               string   `toml:"model"`
	APIKeyEnv           string   `toml:"api_key_env"`
	APIVersion          string   `toml:"api_version"`
	Capabilities        []string `toml:"capabilities"`
	ResponseModalities  []string `toml:"response_modalities"`
	SystemPrompt        string   `toml:"system_prompt"`
	InputTranscription  bool     `toml:"input_transcription"`
	OutputTranscription bool     `toml:"output_transcription"`
}

type StoreConfig struct {
	DSN string `toml:"dsn"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type TracingConfig struct {
	Enabled     bool    `toml:"enabled"`
	Endpoint    string  `toml:"endpoint"`
	SampleRatio float64 `toml:"sample_ratio"`
}

const (
	CapabilityVision = "vision"
	CapabilityAudio  = "audio"
)

func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Bind:           "all",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		Live: LiveConfig{
			Model:              "gemini-2.0-flash-exp",
			APIKeyEnv:          "GEMINI_API_KEY",
			APIVersion:         "v1alpha",
			Capabilities:       []string{CapabilityVision, CapabilityAudio},
			ResponseModalities: []string{"AUDIO"},
		},
		Store: StoreConfig{
			DSN: filepath.Join(DataDir(), "ada.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var (
	current *Config
	mu      sync.RWMutex
)

func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			setCurrent(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Store.DSN == "" {
		cfg.Store.DSN = filepath.Join(DataDir(), "ada.db")
	}
	if cfg.Live.APIKeyEnv == "" {
		cfg.Live.APIKeyEnv = "GEMINI_API_KEY"
	}

	setCurrent(cfg)
	return cfg, nil
}

func setCurrent(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}

func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}

// LoadEnv reads KEY=VALUE pairs from the given dotenv files into the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// APIKey resolves the live API key from the configured environment variable.
func (c LiveConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

func (c LiveConfig) HasCapability(name string) bool {
	return slices.Contains(c.Capabilities, name)
}

func DataDir() string {
	if dir := os.Getenv("ADA_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ada"
	}
	return filepath.Join(home, ".ada")
}

func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "ada.toml")
}

func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}
