package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Log sources.
const (
	SourceRPC       = "rpc"
	SourceHypersync = "hypersync"
)

// Record stores.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreJSONL    = "jsonl"
)

// Cursor backends. CursorStore keeps cursors next to the records.
const (
	CursorStore = "store"
	CursorFile  = "file"
	CursorNone  = "none"
)

const DefaultStartBlock uint64 = 20614965

// Subscription is one (contract, event) pair ingested by its own loop.
type Subscription struct {
	Name      string `mapstructure:"name"`
	Address   string `mapstructure:"address"`
	Topic0    string `mapstructure:"topic0"`
	FromBlock uint64 `mapstructure:"from"`
}

// DefaultSubscriptions are the ORA prompt and callback contracts on mainnet.
var DefaultSubscriptions = []Subscription{
	{
		Name:      "prompt-requests",
		Address:   "0x61423153f111BCFB28dd264aBA8d9b5C452228D2",
		Topic0:    "0xa0faead83d70148ae18b694377f9bef079251342ab90e14af0f9ef68b891269f",
		FromBlock: DefaultStartBlock,
	},
	{
		Name:      "prompt-answers",
		Address:   "0x0a0f4321214bb6c7811dd8a71cf587bdaf03f0a0",
		Topic0:    "0xb7b413554c4e94c80cfbb175a0e4727f2f425d29b980195c49dac293c2914fc0",
		FromBlock: DefaultStartBlock,
	},
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ChainID         uint64
	Source          string
	RPCURL          string
	TimestampRPCURL string
	RPCTimeout      time.Duration
	HypersyncURL    string
	HypersyncToken  string
	Store           string
	DatabaseURL     string
	SQLitePath      string
	Out             string
	Cursor          string
	CursorDir       string
	FromBlock       uint64
	ToBlock         uint64
	BatchSize       uint64
	PollInterval    time.Duration
	RetryBackoff    time.Duration
	RetryMaxBackoff time.Duration
	TimestampRetry  int
	HTTPAddr        string
	LogLevel        string
	Subscriptions   []Subscription
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database-url", "INDEXER_DATABASE_URL", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault("chain-id", uint64(0))
	v.SetDefault("source", SourceHypersync)
	v.SetDefault("rpc", "https://rpc.ankr.com/eth")
	v.SetDefault("rpc-timeout", 30*time.Second)
	v.SetDefault("hypersync-url", "https://eth.hypersync.xyz")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("sqlite-path", "./data/ora.db")
	v.SetDefault("out", "-")
	v.SetDefault("cursor", CursorStore)
	v.SetDefault("cursor-dir", "./data/cursors")
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("poll-interval", time.Second)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("retry-max-backoff", 30*time.Second)
	v.SetDefault("timestamp-retries", 3)
	v.SetDefault("log-level", "info")
	v.SetDefault("subscriptions", subscriptionDefaults())

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

	var subs []Subscription
	if err := v.UnmarshalKey("subscriptions", &subs); err != nil {
		return Config{}, fmt.Errorf("parse subscriptions: %w", err)
	}

	cfg := Config{
		ChainID:         v.GetUint64("chain-id"),
		Source:          strings.ToLower(v.GetString("source")),
		RPCURL:          v.GetString("rpc"),
		TimestampRPCURL: v.GetString("timestamp-rpc"),
		RPCTimeout:      v.GetDuration("rpc-timeout"),
		HypersyncURL:    v.GetString("hypersync-url"),
		HypersyncToken:  v.GetString("hypersync-token"),
		Store:           strings.ToLower(v.GetString("store")),
		DatabaseURL:     v.GetString("database-url"),
		SQLitePath:      v.GetString("sqlite-path"),
		Out:             v.GetString("out"),
		Cursor:          strings.ToLower(v.GetString("cursor")),
		CursorDir:       v.GetString("cursor-dir"),
		FromBlock:       v.GetUint64("from"),
		ToBlock:         v.GetUint64("to"),
		BatchSize:       v.GetUint64("batch-size"),
		PollInterval:    v.GetDuration("poll-interval"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		RetryMaxBackoff: v.GetDuration("retry-max-backoff"),
		TimestampRetry:  v.GetInt("timestamp-retries"),
		HTTPAddr:        v.GetString("http-addr"),
		LogLevel:        v.GetString("log-level"),
		Subscriptions:   cleanSubscriptions(subs),
	}
	if cfg.TimestampRPCURL == "" {
		cfg.TimestampRPCURL = cfg.RPCURL
	}

	return cfg, nil
}

func subscriptionDefaults() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(DefaultSubscriptions))
	for _, sub := range DefaultSubscriptions {
		out = append(out, map[string]interface{}{
			"name":    sub.Name,
			"address": sub.Address,
			"topic0":  sub.Topic0,
			"from":    sub.FromBlock,
		})
	}
	return out
}

func cleanSubscriptions(subs []Subscription) []Subscription {
	out := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		sub.Name = strings.TrimSpace(sub.Name)
		sub.Address = strings.TrimSpace(sub.Address)
		sub.Topic0 = strings.TrimSpace(sub.Topic0)
		if sub.Name == "" && sub.Address == "" && sub.Topic0 == "" {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// StartBlock is the first block a subscription fetches when no cursor is
// stored. A global from flag overrides the per-subscription value.
func (c Config) StartBlock(sub Subscription) uint64 {
	if c.FromBlock != 0 {
		return c.FromBlock
	}
	return sub.FromBlock
}

// Validate checks the settings needed by the run command.
func (c Config) Validate() error {
	var errs []error
	switch c.Source {
	case SourceRPC, SourceHypersync:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database url is required for the postgres store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required for the sqlite store"))
		}
	case StoreJSONL:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.Cursor {
	case CursorStore:
		if c.Store == StoreJSONL {
			errs = append(errs, errors.New("the jsonl store cannot hold cursors, use cursor=file or cursor=none"))
		}
	case CursorFile, CursorNone:
	default:
		errs = append(errs, fmt.Errorf("unknown cursor backend %q", c.Cursor))
	}
	if c.RPCURL == "" {
		errs = append(errs, errors.New("rpc url is required"))
	}
	if c.Source == SourceHypersync && c.HypersyncURL == "" {
		errs = append(errs, errors.New("hypersync url is required"))
	}
	if c.BatchSize == 0 {
		errs = append(errs, errors.New("batch size must be greater than zero"))
	}
	if c.ToBlock != 0 && c.FromBlock > c.ToBlock {
		errs = append(errs, fmt.Errorf("from block %d is after to block %d", c.FromBlock, c.ToBlock))
	}
	if len(c.Subscriptions) == 0 {
		errs = append(errs, errors.New("at least one subscription is required"))
	}
	seen := make(map[string]struct{}, len(c.Subscriptions))
	for i, sub := range c.Subscriptions {
		if sub.Name == "" {
			errs = append(errs, fmt.Errorf("subscription %d: name is required", i))
			continue
		}
		if _, ok := seen[sub.Name]; ok {
			errs = append(errs, fmt.Errorf("subscription %s: duplicate name", sub.Name))
		}
		seen[sub.Name] = struct{}{}
		if sub.Address == "" || sub.Topic0 == "" {
			errs = append(errs, fmt.Errorf("subscription %s: address and topic0 are required", sub.Name))
		}
	}
	return errors.Join(errs...)
}
