package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/storyspoiler/packages/core/config"
	"github.com/abdul-hamid-achik/storyspoiler/packages/core/env"
)

// defaultEnvFile is loaded when present and no env file is configured.
const defaultEnvFile = ".env"

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// settings is the resolved configuration plus where it came from.
type settings struct {
	Config *config.Config
	// ConfigFile and EnvFile are empty when nothing was loaded.
	ConfigFile string
	EnvFile    string
	// Missing lists ${VAR} references that had no value.
	Missing []string
}

// resolveSettings layers the config file, overrides and the env file. An
// explicitly named config or env file must exist.
func resolveSettings(configPath, envFile string, overrides *config.Config) (*settings, error) {
	s := &settings{ConfigFile: configPath}
	if s.ConfigFile == "" {
		s.ConfigFile = config.FindConfigFile(".")
	}

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg := fileCfg.Merge(overrides)

	s.EnvFile = cfg.EnvFile
	explicitEnv := s.EnvFile != ""
	if envFile != "" {
		s.EnvFile = envFile
		explicitEnv = true
	}
	if s.EnvFile == "" {
		s.EnvFile = defaultEnvFile
	}

	dotenv, err := env.LoadDotEnv(s.EnvFile)
	if err != nil {
		if explicitEnv || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		s.EnvFile = ""
	}

	s.Missing = cfg.Expand(env.NewLookup(dotenv))
	s.Config = cfg
	return s, nil
}

// watchedFiles lists the files whose changes should trigger a re-run.
func (s *settings) watchedFiles() []string {
	var files []string
	if s.ConfigFile != "" {
		files = append(files, s.ConfigFile)
	}
	if s.EnvFile != "" {
		files = append(files, s.EnvFile)
	} else {
		files = append(files, defaultEnvFile)
	}
	return files
}
