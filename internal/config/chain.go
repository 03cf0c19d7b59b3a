package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// BlocktimesConfig holds configuration for schedule sampling.
type BlocktimesConfig struct {
	RPCURL       string
	Start        string
	Delta        time.Duration
	Count        int
	FromBlock    uint64
	Out          string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadBlocktimes merges config file, environment variables, and flags into BlocktimesConfig.
func LoadBlocktimes(cfgFile string, flags *pflag.FlagSet) (BlocktimesConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return BlocktimesConfig{}, err
	}
	v.SetDefault("delta", time.Hour)
	v.SetDefault("out", "./data/blocktimes.json")

	return BlocktimesConfig{
		RPCURL:       v.GetString("rpc"),
		Start:        v.GetString("start"),
		Delta:        v.GetDuration("delta"),
		Count:        v.GetInt("count"),
		FromBlock:    v.GetUint64("from-block"),
		Out:          v.GetString("out"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// VerifyConfig holds configuration for catalog verification.
type VerifyConfig struct {
	Source   SourceConfig
	RPCURL   string
	LogLevel string
}

// LoadVerify merges config file, environment variables, and flags into VerifyConfig.
func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return VerifyConfig{}, err
	}
	return VerifyConfig{
		Source:   loadSource(v),
		RPCURL:   v.GetString("rpc"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseInt(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return tm.Unix(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
