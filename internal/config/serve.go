package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the HTTP server.
type ServeConfig struct {
	Source          SourceConfig
	Listen          string
	DefaultBase     string
	DefaultQuotes   []string
	Parallelism     int
	ShutdownTimeout time.Duration
	LogLevel        string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ServeConfig{}, err
	}
	v.SetDefault("listen", ":8080")
	v.SetDefault("base", "DAI")
	v.SetDefault("quote", []string{"ETH"})
	v.SetDefault("parallelism", 4)
	v.SetDefault("shutdown-timeout", 10*time.Second)

	return ServeConfig{
		Source:          loadSource(v),
		Listen:          v.GetString("listen"),
		DefaultBase:     v.GetString("base"),
		DefaultQuotes:   getStringSlice(v, "quote"),
		Parallelism:     v.GetInt("parallelism"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}
