package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "X720 Sensor", c.Name)
	assert.Equal(t, uint16(0x36), c.Address)
	assert.Equal(t, 1, c.Bus)
	assert.Equal(t, "1", c.BusName())
	assert.Equal(t, []string{"voltage", "capacity"}, c.Monitored)
	assert.Equal(t, 30*time.Second, c.ScanInterval)
	assert.Equal(t, ":3000", c.Listen)
	assert.False(t, c.Debug)
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "x720.yaml", `
name: UPS
i2c_address: 0x37
i2c_bus: 0
monitored_conditions:
  - capacity
scan_interval: 5s
debug: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "UPS", c.Name)
	assert.Equal(t, uint16(0x37), c.Address)
	assert.Equal(t, "0", c.BusName())
	assert.Equal(t, []string{"capacity"}, c.Monitored)
	assert.Equal(t, 5*time.Second, c.ScanInterval)
	assert.True(t, c.Debug)
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "x720.toml", `
name = "Garage UPS"
listen = "127.0.0.1:8080"
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Garage UPS", c.Name)
	assert.Equal(t, "127.0.0.1:8080", c.Listen)
	assert.Equal(t, uint16(0x36), c.Address)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("X720_I2C_ADDRESS", "0x40")
	t.Setenv("X720_SCAN_INTERVAL", "1m")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x40), c.Address)
	assert.Equal(t, time.Minute, c.ScanInterval)
}

func TestEnvMonitoredConditions(t *testing.T) {
	tests := []struct {
		env      string
		expected []string
	}{
		{"voltage,capacity", []string{"voltage", "capacity"}},
		{"capacity, voltage", []string{"capacity", "voltage"}},
		{"voltage capacity", []string{"voltage", "capacity"}},
		{"capacity", []string{"capacity"}},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("X720_MONITORED_CONDITIONS", tt.env)
			c, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.Monitored)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Setenv("X720_MONITORED_CONDITIONS", "voltage,current")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"address too large", "i2c_address: 0x80\n"},
		{"address zero", "i2c_address: 0\n"},
		{"negative bus", "i2c_bus: -1\n"},
		{"unknown condition", "monitored_conditions: [voltage, current]\n"},
		{"zero interval", "scan_interval: 0s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "x720.yaml", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
