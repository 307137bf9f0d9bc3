package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
)

// DotEnvFile is loaded by LoadDotEnv. Variables already set in the
// environment take precedence.
const DotEnvFile = ".env.local"

// LoadDotEnv loads DotEnvFile from the working directory if it exists.
func LoadDotEnv() {
	if _, err := os.Stat(DotEnvFile); err != nil {
		return
	}

	if err := gotenv.Load(DotEnvFile); err != nil {
		log.Warn().Err(err).Str("file", DotEnvFile).Msg("Failed to load env file")
	}
}
