// Package config loads the daemon configuration from an optional file and
// X720_* environment variables.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"x720/internal/sensor"
	"x720/internal/x720"
)

const (
	DefaultName         = "X720 Sensor"
	DefaultBus          = 1
	DefaultScanInterval = 30 * time.Second
	DefaultListen       = ":3000"
)

type Config struct {
	Name         string
	Address      uint16
	Bus          int
	Monitored    []string
	ScanInterval time.Duration
	Listen       string
	Debug        bool
}

// BusName is the periph bus name for the configured /dev/i2c-N.
func (c *Config) BusName() string {
	return strconv.Itoa(c.Bus)
}

// Load reads path, if not empty, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("name", DefaultName)
	v.SetDefault("i2c_address", x720.Addr)
	v.SetDefault("i2c_bus", DefaultBus)
	v.SetDefault("monitored_conditions", sensor.DefaultMonitored)
	v.SetDefault("scan_interval", DefaultScanInterval)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("debug", false)

	v.SetEnvPrefix("x720")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	addr := v.GetInt("i2c_address")
	if addr <= 0 || addr > 0x7f {
		return nil, errors.Errorf("i2c_address 0x%02x is not a 7-bit address", addr)
	}
	c := &Config{
		Name:         v.GetString("name"),
		Address:      uint16(addr),
		Bus:          v.GetInt("i2c_bus"),
		Monitored:    splitList(v.GetStringSlice("monitored_conditions")),
		ScanInterval: v.GetDuration("scan_interval"),
		Listen:       v.GetString("listen"),
		Debug:        v.GetBool("debug"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// splitList also accepts comma separated entries, as given in
// X720_MONITORED_CONDITIONS=voltage,capacity.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, f := range strings.Split(s, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Bus < 0 {
		return errors.Errorf("i2c_bus %d must not be negative", c.Bus)
	}
	if len(c.Monitored) == 0 {
		return errors.New("monitored_conditions is empty")
	}
	for _, m := range c.Monitored {
		if !sensor.Valid(m) {
			return errors.Errorf("unknown monitored condition %q", m)
		}
	}
	if c.ScanInterval <= 0 {
		return errors.Errorf("scan_interval %s must be positive", c.ScanInterval)
	}
	return nil
}
