package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Sink selection values.
const (
	SinkCSV      = "csv"
	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	ChainID           uint64
	Sender            string
	StartTime         uint64
	EndTime           uint64
	WindowSize        uint64
	Sink              string
	Out               string
	EtherscanAPIKey   string
	EtherscanBaseURL  string
	PGDSN             string
	GoogleCredentials string
	GoogleFolderID    string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	NoProgress        bool
	LogLevel          string
}

// Load merges a .env file, config file, environment variables, and flags
// into Config. Environment variables use the SCANNER_ prefix.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	// The original deployments of this tool are dotenv-driven; a missing
	// .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("window-size", uint64(2000))
	v.SetDefault("sink", SinkCSV)
	v.SetDefault("out", "./data/records.csv")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", false)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		ChainID:           v.GetUint64("chain-id"),
		Sender:            v.GetString("sender"),
		StartTime:         v.GetUint64("start-timestamp"),
		EndTime:           v.GetUint64("end-timestamp"),
		WindowSize:        v.GetUint64("window-size"),
		Sink:              v.GetString("sink"),
		Out:               v.GetString("out"),
		EtherscanAPIKey:   v.GetString("etherscan-api-key"),
		EtherscanBaseURL:  v.GetString("etherscan-url"),
		PGDSN:             v.GetString("pg-dsn"),
		GoogleCredentials: v.GetString("google-credentials"),
		GoogleFolderID:    v.GetString("google-folder-id"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		NoProgress:        v.GetBool("no-progress"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate fails fast on missing or unparseable settings, naming the
// offending key.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"rpc", c.RPCURL},
		{"sender", c.Sender},
		{"etherscan-api-key", c.EtherscanAPIKey},
	}
	for _, setting := range required {
		if setting.value == "" {
			return fmt.Errorf("required setting %q is not set", setting.key)
		}
	}
	if c.ChainID == 0 {
		return fmt.Errorf("required setting %q is not set", "chain-id")
	}
	if c.StartTime == 0 {
		return fmt.Errorf("required setting %q is not set", "start-timestamp")
	}
	if c.EndTime == 0 {
		return fmt.Errorf("required setting %q is not set", "end-timestamp")
	}
	if c.EndTime < c.StartTime {
		return fmt.Errorf("end-timestamp must be >= start-timestamp")
	}
	if !common.IsHexAddress(c.Sender) {
		return fmt.Errorf("failed to parse %q: %s is not a hex address", "sender", c.Sender)
	}
	if c.WindowSize == 0 {
		return fmt.Errorf("window-size must be greater than zero")
	}

	switch c.Sink {
	case SinkCSV:
		if c.Out == "" {
			return fmt.Errorf("required setting %q is not set", "out")
		}
	case SinkSheets:
		if c.GoogleCredentials == "" {
			return fmt.Errorf("required setting %q is not set", "google-credentials")
		}
		if c.GoogleFolderID == "" {
			return fmt.Errorf("required setting %q is not set", "google-folder-id")
		}
	case SinkPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("required setting %q is not set", "pg-dsn")
		}
	default:
		return fmt.Errorf("unknown sink %q (want %s, %s, or %s)", c.Sink, SinkCSV, SinkSheets, SinkPostgres)
	}

	return nil
}
