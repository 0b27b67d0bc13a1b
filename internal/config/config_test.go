package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  name: clubvid
  port: 9000
minio:
  endpoint: localhost:9000
  bucket: media
  secret_key: from-file
elasticsearch:
  hosts: ["localhost:9200"]
media:
  probe_timeout: 5
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "clubvid", cfg.App.Name)
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "media", cfg.MinIO.Bucket)
	assert.Equal(t, time.Hour, cfg.MinIO.SignedURLDuration())
	assert.Equal(t, 5*time.Second, cfg.Media.ProbeTimeoutDuration())
	assert.Equal(t, 320, cfg.Media.ThumbnailWidth)
	assert.Equal(t, "ffprobe", cfg.Media.FFprobePath)
	assert.Equal(t, "videos", cfg.Elasticsearch.VideosIndex())
	assert.Equal(t, "video_events", cfg.Kafka.VideoEventsTopic())
	assert.Equal(t, "clubvid-search-sync", cfg.Kafka.GroupID)
	assert.Equal(t, 9100, cfg.App.MetricsPort)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MINIO_SECRET_KEY", "from-env")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MinIO.SecretKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
