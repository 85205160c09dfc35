package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"cachegate/internal/auth"
)

func TestRunKeygenWritesUsableKeypair(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "keys.yaml")

	require.NoError(t, runKeygen(out, false))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc authKeyYAML
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.NotEmpty(t, doc.Auth.PublicKey)
	assert.NotEmpty(t, doc.Auth.PrivateKey)

	_, err = auth.New(doc.Auth.PublicKey, doc.Auth.PrivateKey, "")
	assert.NoError(t, err)
}

func TestRunKeygenRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "keys.yaml")
	require.NoError(t, runKeygen(out, false))

	err := runKeygen(out, false)
	assert.ErrorContains(t, err, "already exists")
}

func TestRunKeygenForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "keys.yaml")
	require.NoError(t, runKeygen(out, false))
	assert.NoError(t, runKeygen(out, true))
}
