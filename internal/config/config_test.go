package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barryw/novavm/internal/config"
)

func TestDefaultUsesCMOSVariantAndStandardAddresses(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "cmos", cfg.CPU.Variant)
	assert.Equal(t, uint16(0xA000), cfg.Devices.VGCBase)
	assert.Equal(t, uint64(10_000_000), cfg.Scheduler.FrequencyHz)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.CPU.Variant = "nmos"
	cfg.Devices.XRAMSize = 1024

	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nmos", loaded.CPU.Variant)
	assert.Equal(t, 1024, loaded.Devices.XRAMSize)
}

func TestLoadOnMissingFileReturnsDefaultAndError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Equal(t, config.Default(), cfg)
}
