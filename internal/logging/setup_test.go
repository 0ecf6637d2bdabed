package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/facilisimo/sorteos/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func restoreLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
}

func TestSetup_Levels(t *testing.T) {
	restoreLogger(t)

	Setup(&config.Config{LogFormat: "text"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	Setup(&config.Config{LogFormat: "text", Debug: true})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetup_Formatter(t *testing.T) {
	restoreLogger(t)

	Setup(&config.Config{LogFormat: "json"})
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	Setup(&config.Config{LogFormat: "text"})
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}

func TestSetup_LogFile(t *testing.T) {
	restoreLogger(t)

	path := filepath.Join(t.TempDir(), "sorteo.log")
	closer := Setup(&config.Config{LogFormat: "json", LogFile: path})

	file, ok := closer.(*lumberjack.Logger)
	require.True(t, ok, "the closer is the rotating file")
	assert.Equal(t, path, file.Filename)

	logrus.Info("winners saved")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"winners saved"`)
}

func TestSetup_NoLogFile(t *testing.T) {
	restoreLogger(t)

	closer := Setup(&config.Config{LogFormat: "text"})
	assert.NoError(t, closer.Close())
}
