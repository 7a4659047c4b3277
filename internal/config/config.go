package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BRIDGEWATCH"

// Config holds configuration for the run command.
type Config struct {
	RPCURL            string
	RPCRateLimit      float64
	RPCBurst          int
	Address           string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	PollInterval      time.Duration
	Follow            bool
	ExpectedChainID   uint64
	MetricsAddr       string
	LogLevel          string
	Topic0Map         map[string]string
}

// ActionConfig holds configuration for the action command.
type ActionConfig struct {
	RPCURL          string
	TxHash          string
	EventIndex      uint16
	ExpectedChainID uint64
	LogLevel        string
	Topic0Map       map[string]string
}

// DescribeConfig holds configuration for the describe command.
type DescribeConfig struct {
	RPCURL          string
	ExpectedChainID uint64
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":         uint64(2000),
		"rpc-burst":          10,
		"out":                "./data/actions.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"poll-interval":      12 * time.Second,
		"log-level":          "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		RPCRateLimit:      v.GetFloat64("rpc-rps"),
		RPCBurst:          v.GetInt("rpc-burst"),
		Address:           strings.TrimSpace(v.GetString("address")),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		PollInterval:      v.GetDuration("poll-interval"),
		Follow:            v.GetBool("follow"),
		ExpectedChainID:   v.GetUint64("expected-chain-id"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
		Topic0Map:         getStringMap(v, "topic0-map"),
	}

	return cfg, nil
}

// LoadAction merges config file, environment variables, and flags into ActionConfig.
func LoadAction(cfgFile string, flags *pflag.FlagSet) (ActionConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return ActionConfig{}, err
	}

	index := v.GetUint64("index")
	if index > uint64(^uint16(0)) {
		return ActionConfig{}, fmt.Errorf("event index %d out of range", index)
	}

	return ActionConfig{
		RPCURL:          v.GetString("rpc"),
		TxHash:          strings.TrimSpace(v.GetString("tx")),
		EventIndex:      uint16(index),
		ExpectedChainID: v.GetUint64("expected-chain-id"),
		LogLevel:        v.GetString("log-level"),
		Topic0Map:       getStringMap(v, "topic0-map"),
	}, nil
}

// LoadDescribe merges config file, environment variables, and flags into DescribeConfig.
func LoadDescribe(cfgFile string, flags *pflag.FlagSet) (DescribeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return DescribeConfig{}, err
	}

	return DescribeConfig{
		RPCURL:          v.GetString("rpc"),
		ExpectedChainID: v.GetUint64("expected-chain-id"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(input, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
