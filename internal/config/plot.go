package config

import "github.com/spf13/pflag"

// PlotConfig holds configuration for the plot and export commands.
type PlotConfig struct {
	Source      SourceConfig
	Base        string
	Quotes      []string
	Out         string
	Format      string
	Width       int
	Height      int
	TracesOut   string
	PGDSN       string
	BatchSize   int
	Verify      bool
	Parallelism int
	LogLevel    string
}

// LoadPlot merges config file, environment variables, and flags into PlotConfig.
func LoadPlot(cfgFile string, flags *pflag.FlagSet) (PlotConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PlotConfig{}, err
	}
	v.SetDefault("base", "DAI")
	v.SetDefault("quote", []string{"ETH"})
	v.SetDefault("format", "png")
	v.SetDefault("width", 1280)
	v.SetDefault("height", 720)
	v.SetDefault("batch-size", 1000)
	v.SetDefault("parallelism", 4)

	return PlotConfig{
		Source:      loadSource(v),
		Base:        v.GetString("base"),
		Quotes:      getStringSlice(v, "quote"),
		Out:         v.GetString("out"),
		Format:      v.GetString("format"),
		Width:       v.GetInt("width"),
		Height:      v.GetInt("height"),
		TracesOut:   v.GetString("traces-out"),
		PGDSN:       v.GetString("pg-dsn"),
		BatchSize:   v.GetInt("batch-size"),
		Verify:      v.GetBool("verify"),
		Parallelism: v.GetInt("parallelism"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
