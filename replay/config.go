package replay

import (
	"os"
	"strconv"
	"strings"
)

const (
	// EnvRPCURL is the optional upstream JSON-RPC endpoint
	EnvRPCURL = "TRACECHECK_RPC_URL"

	// EnvCacheDir is the optional directory for the upstream response cache.
	// The cache is disabled when absent
	EnvCacheDir = "TRACECHECK_CACHE_DIR"

	// EnvCI marks execution inside an automated, non-interactive environment
	EnvCI = "CI"
)

// Config holds the environment-provided settings, populated once at
// process start. Missing and empty variables are equivalent
type Config struct {
	// RPCURL is the upstream provider endpoint. Empty means not configured
	RPCURL string

	// CacheDir is where upstream responses are cached across runs.
	// Empty disables caching
	CacheDir string

	// CI is set when running in an automated environment
	CI bool
}

// ConfigFromEnv reads the environment once. Values are trimmed and
// treated as absent if empty after trimming
func ConfigFromEnv() *Config {
	return &Config{
		RPCURL:   lookupEnv(EnvRPCURL),
		CacheDir: lookupEnv(EnvCacheDir),
		CI:       lookupEnvBool(EnvCI),
	}
}

func lookupEnv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func lookupEnvBool(name string) bool {
	raw := lookupEnv(name)
	if raw == "" {
		return false
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}

	return value
}
