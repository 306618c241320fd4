package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passeq/internal/config"
	"passeq/internal/sequence"
)

func loadTestSequence(t *testing.T) (*sequence.Sequence, string) {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.NewConfig(dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.SpecDir(), 0o755))
	lines := "nlp alpha # first\nfolder grp1 # group\nnlp beta # inside\nend grp1 # group end\nnlp gamma # after"
	require.NoError(t, os.WriteFile(cfg.SequencePath(), []byte(lines), 0o644))

	seq, err := sequence.Load(sequence.Options{SpecDir: cfg.SpecDir()})
	require.NoError(t, err)
	return seq, cfg.SequencePath()
}

func TestRunCommandMove(t *testing.T) {
	seq, path := loadTestSequence(t)

	var out bytes.Buffer
	require.NoError(t, runCommand(seq, []string{"move", "nlp", "gamma", "up"}, &out))
	assert.Contains(t, out.String(), "Passes: 1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "nlp\tgamma\t# after\nend\tgrp1\t# group end"))
}

func TestRunCommandEdits(t *testing.T) {
	seq, _ := loadTestSequence(t)
	var out bytes.Buffer

	require.NoError(t, runCommand(seq, []string{"rename", "folder", "grp1", "grp9"}, &out))
	assert.True(t, seq.Find("end", "grp9").Exists())

	require.NoError(t, runCommand(seq, []string{"deactivate", "nlp", "alpha"}, &out))
	assert.False(t, seq.Find("nlp", "alpha").Active)

	require.NoError(t, runCommand(seq, []string{"new-pass", "nlp", "gamma", "late", "code"}, &out))
	assert.Equal(t, "late", seq.LastItem().Name)
	assert.FileExists(t, filepath.Join(seq.SpecDir(), "late.nlp"))

	require.NoError(t, runCommand(seq, []string{"delete", "folder", "grp9", "boundary"}, &out))
	assert.False(t, seq.Find("nlp", "beta").InFolder)

	require.NoError(t, runCommand(seq, []string{"insert", "1", filepath.Join(seq.SpecDir(), "late.nlp")}, &out))
	assert.Equal(t, "late", seq.ByRow(1).Name)
}

func TestRunCommandErrors(t *testing.T) {
	seq, _ := loadTestSequence(t)
	var out bytes.Buffer

	assert.ErrorIs(t, runCommand(seq, []string{"move", "nlp"}, &out), errUsage)
	assert.Error(t, runCommand(seq, []string{"move", "nlp", "alpha", "left"}, &out))
	assert.Error(t, runCommand(seq, []string{"frobnicate"}, &out))
	assert.Error(t, runCommand(seq, []string{"insert", "x", "y"}, &out))
	assert.Error(t, runCommand(seq, []string{"new-pass", "nlp", "alpha", "p", "poem"}, &out))
	assert.Empty(t, out.String())
}

func TestReportFailureFlushesLog(t *testing.T) {
	flushed := false
	prev := syncLog
	syncLog = func() error {
		flushed = true
		return nil
	}
	t.Cleanup(func() { syncLog = prev })

	var out bytes.Buffer
	code := reportFailure(&out, errors.New("disk full"))
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: disk full\n", out.String())
	assert.True(t, flushed)
}
