package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hickar/mailcore/internal/pkg/units"
)

type Config struct {
	LogLevel       string `yaml:"log_level"`        // One of debug, info, warn, error.
	LogDir         string `yaml:"log_dir"`          // Optional directory receiving a copy of the logs.
	SaveDir        string `yaml:"save_dir"`         // Default destination directory for saved attachments.
	FileMode       string `yaml:"file_mode"`        // Octal permissions of saved files, e.g. "0644".
	MaxExtractSize string `yaml:"max_extract_size"` // Largest part materialized in memory, e.g. "25MB". Empty means unlimited.
	MboxPath       string `yaml:"mbox_path"`        // Mailbox providing the selected message.
	Selected       int    `yaml:"selected"`         // 0-based index of the selected message within the mailbox.
	Template       string `yaml:"template"`         // Optional summary template used by "show".
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		SaveDir:  ".",
		FileMode: "0644",
	}
}

func LoadConfig(cfgFilepath, envFilepath string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(envFilepath); err == nil {
		if err = godotenv.Load(envFilepath); err != nil {
			return cfg, fmt.Errorf("unable to load environment variables from file: %w", err)
		}
	}

	//nolint:gosec
	fileBytes, err := os.ReadFile(cfgFilepath)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("configuration file at this cfgFilepath doesn't exist: %w", err)
		case errors.Is(err, os.ErrPermission):
			return cfg, fmt.Errorf("permission denied for accessing configuration file: %w", err)
		default:
			return cfg, fmt.Errorf("unexpected error during reading configuration file: %w", err)
		}
	}

	envExpanded := os.ExpandEnv(string(fileBytes))
	if err = yaml.Unmarshal([]byte(envExpanded), &cfg); err != nil {
		return cfg, fmt.Errorf("unable to unmarshal configuration file: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the fields which need parsing before use.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := c.ExtractLimit(); err != nil {
		return err
	}
	if c.Selected < 0 {
		return fmt.Errorf("selected message index must not be negative, got %d", c.Selected)
	}

	return nil
}

// Mode parses FileMode. An empty value means the default of the email package.
func (c Config) Mode() (os.FileMode, error) {
	if c.FileMode == "" {
		return 0, nil
	}

	mode, err := strconv.ParseUint(c.FileMode, 8, 32)
	if err != nil || mode > 0o777 {
		return 0, fmt.Errorf("invalid file mode %q", c.FileMode)
	}

	return os.FileMode(mode), nil
}

// ExtractLimit parses MaxExtractSize into bytes, 0 meaning unlimited.
func (c Config) ExtractLimit() (int64, error) {
	if c.MaxExtractSize == "" {
		return 0, nil
	}

	size, err := units.FromHumanSize(c.MaxExtractSize)
	if err != nil {
		return 0, fmt.Errorf("max_extract_size: %w", err)
	}

	return size, nil
}
