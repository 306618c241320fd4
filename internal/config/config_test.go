package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Project.Version)
	assert.Equal(t, filepath.Join(dir, "spec"), cfg.SpecDir())
	assert.Equal(t, filepath.Join(dir, "spec", "analyzer.seq"), cfg.SequencePath())
	assert.Equal(t, filepath.Join(dir, "input", "text.txt_log"), cfg.LogDir())
	assert.Equal(t, []string{".pat", ".nlp"}, cfg.Project.PassExtensions)
	assert.Equal(t, ":8080", cfg.WebAddr())
	assert.Equal(t, "info", cfg.Project.Logging.Level)
	assert.Empty(t, cfg.LogOutput())
}

func TestNewConfigParsesYaml(t *testing.T) {
	dir := t.TempDir()
	configYAML := `
version: 1
spec_dir: rules
sequence_file: main.seq
log_dir: /var/tmp/anlog
author: Ada
pass_extensions: [nlp, .pat]
web:
  port: 9000
logging:
  level: debug
  output: logs/passeq.log
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(configYAML), 0o644))

	cfg, err := NewConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rules"), cfg.SpecDir())
	assert.Equal(t, filepath.Join(dir, "rules", "main.seq"), cfg.SequencePath())
	assert.Equal(t, "/var/tmp/anlog", cfg.LogDir())
	assert.Equal(t, "Ada", cfg.Project.Author)
	assert.Equal(t, []string{".nlp", ".pat"}, cfg.Project.PassExtensions)
	assert.Equal(t, ":9000", cfg.WebAddr())
	assert.Equal(t, "debug", cfg.Project.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "logs", "passeq.log"), cfg.LogOutput())
}

func TestNewConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvAuthor, "Grace")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvWebPort, "7070")

	cfg, err := NewConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "Grace", cfg.Project.Author)
	assert.Equal(t, "warn", cfg.Project.Logging.Level)
	assert.Equal(t, ":7070", cfg.WebAddr())

	t.Setenv(EnvWebPort, "lots")
	_, err = NewConfig(dir)
	assert.Error(t, err)
}

func TestNewConfigValidation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("web:\n  port: 70000\n"), 0o644))
	_, err := NewConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web.port")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("version: [oops\n"), 0o644))
	_, err = NewConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}

func TestInitWritesDefaultsOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "analyzer")
	require.NoError(t, Init(dir))

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sequence_file: analyzer.seq")

	cfg, err := NewConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "spec"), cfg.SpecDir())

	require.NoError(t, os.WriteFile(path, []byte("author: Kept\n"), 0o644))
	require.NoError(t, Init(dir))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "author: Kept\n", string(data))
}
