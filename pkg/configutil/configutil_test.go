package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url        string   `json:"url"`
	Recipients []string `json:"recipients"`
	Verbose    bool     `json:"verbose"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, name, `{
		// comments are allowed
		url: "https://example.test/login",
		recipients: ["+440000000001"],
	}`)
	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "https://example.test/login", cfg.Url)
	require.Equal(t, []string{"+440000000001"}, cfg.Recipients)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{verbose: true, recipients: ["+440000000002"]}`)
	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "https://example.test/login", cfg.Url)
	require.Equal(t, []string{"+440000000002"}, cfg.Recipients)
	require.True(t, cfg.Verbose)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")
	writeFile(t, name, `{url: `)

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "a/config.local.json5", localName("a/config.json5"))
	require.Equal(t, "telemetry.local.json5", localName("telemetry.json5"))
}

func TestOverlay(t *testing.T) {
	out, err := Overlay(
		testConfig{Url: "a", Recipients: []string{"1"}},
		testConfig{Url: "b"},
	)
	require.NoError(t, err)
	require.Equal(t, testConfig{Url: "b", Recipients: []string{"1"}}, out)
}
