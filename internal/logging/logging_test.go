package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "staticenv.log")
	logger, closer := New(path)
	logger.WithField("environment", "production").Info("saved variables")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "saved variables")
	assert.Contains(t, string(data), "environment=production")
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	assert.Equal(t, logrus.DebugLevel, levelFromEnv())

	t.Setenv(LevelEnv, "nonsense")
	assert.Equal(t, logrus.InfoLevel, levelFromEnv())

	t.Setenv(LevelEnv, "")
	assert.Equal(t, logrus.InfoLevel, levelFromEnv())
}
