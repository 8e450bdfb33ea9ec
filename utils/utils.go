package utils

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func init() {
	// .env is optional outside the server binaries; they call LoadDotEnv on
	// the variables they actually need and fail fast there.
	_ = godotenv.Load()
}

func LoadDotEnv(varName string) string {
	envVar := os.Getenv(varName)
	if envVar == "" {
		log.Fatal().Msgf("Environment variable %s not set", varName)
	}
	return envVar
}

// LoadDotEnvOr reads an environment variable with a fallback for the
// optional knobs (debounce, retention window, page size).
func LoadDotEnvOr(varName, fallback string) string {
	if envVar := os.Getenv(varName); envVar != "" {
		return envVar
	}
	return fallback
}

// ParseDate parses an ISO8601 date string, returning nil on failure.
func ParseDate(date string) *time.Time {
	parsedDate, err := time.Parse(time.RFC3339, date)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing date")
		return nil
	}
	return &parsedDate
}
