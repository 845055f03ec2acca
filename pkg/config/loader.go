package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Optional dotenv-style files are read first; a key from a file is only used
// when the process environment does not already define it. Missing files are
// ignored.
//
// Example:
//
//	type Config struct {
//	    Port      int    `env:"HTTP_PORT" envDefault:"8000"`
//	    SecretKey string `env:"SECRET_KEY,required"`
//	}
func Load(cfg any, envFiles ...string) error {
	environment := environ()
	for _, path := range envFiles {
		fileVars, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range fileVars {
			if _, set := environment[k]; !set {
				environment[k] = v
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
