package commons

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"staybook/internal/config"
)

// LoadConfig loads a .env file into the environment when one exists, then
// reads the YAML config with environment overrides applied.
func LoadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
