package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: short
  expire_hours: 2
storage:
  type: minio
exam:
  poll_interval_seconds: 3
`)
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("ACADEMIC_EXAM_RECOMPUTE_WORKERS", "8")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 3*time.Second, cfg.Exam.PollInterval())
	assert.Equal(t, 8, cfg.Exam.RecomputeWorkers)
	assert.Equal(t, 256, cfg.Exam.EventBuffer)
	assert.Equal(t, "logs/app.log", cfg.Log.Path)
	assert.Equal(t, dir, cfg.Path)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigRejectsNonPositivePollInterval(t *testing.T) {
	dir := writeConfig(t, `
storage:
  type: minio
exam:
  poll_interval_seconds: 0
`)
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
