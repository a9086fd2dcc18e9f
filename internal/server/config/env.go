package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/interntrack/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read from the environment,
// e.g. ITRACK_SECRET_KEY.
const EnvPrefix = "ITRACK_"

const defaultEnvFile = ".env"

// parseEnv loads a dotenv file into the process environment and then copies
// every ITRACK_* variable that is set onto config. Unset variables leave the
// current value untouched.
//
// The dotenv path comes from -env-file; without it ".env" is tried and a
// missing file is not an error. Variables already present in the environment
// win over the file.
func parseEnv(config *Config, args []string) error {
	path := flagx.EnvFilePath(args)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
