package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	locations "github.com/paulstuart/go-locations"
	"github.com/paulstuart/go-locations/internal/logger"
)

const sampleDat = "../../testdata/location.dat"

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, config{Src: locations.LocationDatFile, Dest: locations.LocationJSONFile}, cfg)
}

func TestLoadConfigEnv(t *testing.T) {
	env := envMap(map[string]string{
		"LOCATION_SRC":  "env.dat",
		"LOCATION_DEST": "env.json",
		"LOCATION_GOB":  "true",
	})
	cfg, err := loadConfig(nil, env)
	require.NoError(t, err)
	assert.Equal(t, "env.dat", cfg.Src)
	assert.Equal(t, "env.json", cfg.Dest)
	assert.True(t, cfg.WithGob)

	// flags win over the environment
	cfg, err = loadConfig([]string{"-src", "flag.dat", "-gob=false", "-v"}, env)
	require.NoError(t, err)
	assert.Equal(t, "flag.dat", cfg.Src)
	assert.Equal(t, "env.json", cfg.Dest)
	assert.False(t, cfg.WithGob)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigBadFlag(t *testing.T) {
	_, err := loadConfig([]string{"-nope"}, envMap(nil))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "assets", locations.LocationJSONFile)
	var out, logs bytes.Buffer
	cfg := config{Src: sampleDat, Dest: dest, WithGob: true, Verbose: true}

	require.NoError(t, run(cfg, &out, logger.New(&logs, "info", "")))
	assert.Equal(t, "Successfully extracted 4 countries to "+dest+"\n", out.String())
	assert.Contains(t, logs.String(), "reason=orphan")

	_, err := os.Stat(dest)
	require.NoError(t, err)
	doc, err := locations.LoadDocument(locations.GobFileFor(dest))
	require.NoError(t, err)
	assert.Len(t, doc, 4)
}

func TestRunMissingSource(t *testing.T) {
	var out bytes.Buffer
	cfg := config{Src: filepath.Join(t.TempDir(), "nope.dat"), Dest: filepath.Join(t.TempDir(), "out.json")}
	assert.Error(t, run(cfg, &out, logger.New(&out, "error", "")))
	assert.Empty(t, out.String())
}
