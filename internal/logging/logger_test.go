package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-session-auth/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	level string
	file  string
}

func (c testConfig) GetLogLevel() string { return c.level }
func (c testConfig) GetLogFile() string  { return c.file }
func (c testConfig) IsDev() bool         { return false }

func TestNew_WritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.log")

	logger, closer := logging.New(testConfig{level: "debug", file: path})
	logger.Info().Str("user_id", "u-1").Msg("session created")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"user_id":"u-1"`)
	require.Contains(t, string(data), "session created")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, closer := logging.New(testConfig{level: "chatty"})
	defer closer.Close()

	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
