package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neuroscreen/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesPerLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := Init(config.LoggingConfig{Directory: dir, MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	require.NoError(t, err)

	log.Info("screening submitted")
	log.Warn("classifier slow")
	_ = log.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var info, warn string
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), "-info.log"):
			info = filepath.Join(dir, e.Name())
		case strings.HasSuffix(e.Name(), "-warn.log"):
			warn = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, info)
	require.NotEmpty(t, warn)

	data, err := os.ReadFile(info)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"screening submitted"`)
	assert.NotContains(t, string(data), "classifier slow")
}
