package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/canvass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "canvass version "+strings.TrimSpace(canvass.Version)+"\n", out)
}

func TestSurveysCommands(t *testing.T) {
	out, err := execute(t, "surveys", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "CULTURE_DISCRIMINATION")

	out, err = execute(t, "surveys", "show", "CULTURE_DISCRIMINATION")
	require.NoError(t, err)
	assert.Contains(t, out, "id: CULTURE_DISCRIMINATION")

	_, err = execute(t, "surveys", "show", "NOPE")
	assert.Error(t, err)
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "session", "ls", "--store", "file", "--store-dsn", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = execute(t, "session", "inspect", "CULTURE_DISCRIMINATION/none", "--store", "file", "--store-dsn", dir)
	assert.Error(t, err)
}
