package ciutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/phrazzld/sciencepath/internal/redact"
)

// Environment variable names read by this package.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	EnvTestDatabaseURL = "SCIENCE_TEST_DATABASE_URL"
	EnvTestRedisURL    = "SCIENCE_TEST_REDIS_URL"

	// legacy names still honoured with a warning
	EnvDatabaseURL = "DATABASE_URL"
	EnvRedisURL    = "REDIS_URL"
)

// IsCI reports whether the process runs under a known CI provider.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" ||
		os.Getenv(EnvGitHubActions) != "" ||
		os.Getenv(EnvGitLabCI) != "" ||
		os.Getenv(EnvJenkinsURL) != "" ||
		os.Getenv(EnvCircleCI) != ""
}

// GetEnvWithFallbacks returns the first non-empty variable in envVars, or
// defaultValue. Using any name but the first logs a warning with the value
// redacted.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("using legacy environment variable",
				"used_var", envVar,
				"preferred_var", envVars[0],
				"value", redact.String(val))
		}
		return val
	}
	return defaultValue
}

// TestDatabaseURL returns the Postgres DSN for integration tests.
func TestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", logger)
}

// TestRedisURL returns the Redis URL for integration tests.
func TestRedisURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestRedisURL, EnvRedisURL}, "", logger)
}

// RequireURL skips t when url is empty on a developer machine and fails it
// under CI, where the service is expected to be provisioned.
func RequireURL(t testing.TB, name, url string) {
	t.Helper()
	if url != "" {
		return
	}
	if IsCI() {
		t.Fatalf("%s must be set in CI", name)
	}
	t.Skipf("%s not set", name)
}
