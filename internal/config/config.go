package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains every setting that influences how the predictor loads data,
// builds team features and serves predictions.
type Config struct {
	Data        DataConfig        `yaml:"data"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Sentiment   SentimentConfig   `yaml:"sentiment"`
	Cache       CacheConfig       `yaml:"cache"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Fetch       FetchConfig       `yaml:"fetch"`
}

type DataConfig struct {
	Dir           string `yaml:"dir"`            // directory holding season CSV files
	MatchPattern  string `yaml:"match_pattern"`  // glob (relative to Dir) selecting season files
	SentimentFile string `yaml:"sentiment_file"` // team,sentiment_label CSV
	ModelPath     string `yaml:"model_path"`     // exported forest artifact
}

type AggregationConfig struct {
	// MinMatches excludes teams with fewer matches than this from the feature set.
	// 1 keeps every team that appears at least once.
	MinMatches int `yaml:"min_matches"`
}

type SentimentConfig struct {
	PositiveThreshold float64 `yaml:"positive_threshold"`
	NegativeThreshold float64 `yaml:"negative_threshold"`
	TextColumn        string  `yaml:"text_column"`
	TeamColumn        string  `yaml:"team_column"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"` // none, sqlite or redis
	SQLitePath    string        `yaml:"sqlite_path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	TopFeatures    int      `yaml:"top_features"`
	PromptDir      string   `yaml:"prompt_dir"` // extra MCP prompts as JSON files, optional
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Output   string `yaml:"output"` // console, file, both or stderr
	File     string `yaml:"file"`
	DateTime bool   `yaml:"date_time"`
	Colour   bool   `yaml:"colour"`
}

type FetchConfig struct {
	BaseURL string   `yaml:"base_url"`
	League  string   `yaml:"league"` // football-data.co.uk division code, E0 is the Premier League
	Seasons []string `yaml:"seasons"`
	Prefix  string   `yaml:"prefix"` // file name prefix for downloaded seasons
}

const (
	CacheNone   = "none"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir:           "data",
			MatchPattern:  "PL *.csv",
			SentimentFile: "data/team_sentiment.csv",
			ModelPath:     "models/match_outcome_forest.json",
		},
		Aggregation: AggregationConfig{
			MinMatches: 1,
		},
		Sentiment: SentimentConfig{
			PositiveThreshold: 0.05,
			NegativeThreshold: -0.05,
			TextColumn:        "text",
			TeamColumn:        "team",
		},
		Cache: CacheConfig{
			Backend:    CacheSQLite,
			SQLitePath: ".matchpredict/features.db",
			RedisAddr:  "localhost:6379",
			TTL:        24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			TopFeatures:    5,
		},
		Log: LogConfig{
			Level:  "info",
			Output: "console",
			File:   "/tmp/matchpredict.log",
			Colour: true,
		},
		Fetch: FetchConfig{
			BaseURL: "https://www.football-data.co.uk/mmz4281",
			League:  "E0",
			Seasons: []string{"2020/2021", "2021/2022", "2022/2023", "2023/2024", "2024/2025"},
			Prefix:  "PL",
		},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Data.Dir = getEnv("MATCHPREDICT_DATA_DIR", c.Data.Dir)
	c.Data.MatchPattern = getEnv("MATCHPREDICT_MATCH_PATTERN", c.Data.MatchPattern)
	c.Data.SentimentFile = getEnv("MATCHPREDICT_SENTIMENT_FILE", c.Data.SentimentFile)
	c.Data.ModelPath = getEnv("MATCHPREDICT_MODEL_PATH", c.Data.ModelPath)
	c.Cache.Backend = getEnv("MATCHPREDICT_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.SQLitePath = getEnv("MATCHPREDICT_SQLITE_PATH", c.Cache.SQLitePath)
	c.Cache.RedisAddr = getEnv("MATCHPREDICT_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("MATCHPREDICT_REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Server.Addr = getEnv("MATCHPREDICT_ADDR", c.Server.Addr)
	c.Server.PromptDir = getEnv("MATCHPREDICT_PROMPT_DIR", c.Server.PromptDir)
	c.Log.Level = getEnv("MATCHPREDICT_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("MATCHPREDICT_MIN_MATCHES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MATCHPREDICT_MIN_MATCHES must be an integer, got: %q", v)
		}
		c.Aggregation.MinMatches = n
	}
	if v := os.Getenv("MATCHPREDICT_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

// Validate ensures all configuration values are within reasonable ranges
func (c *Config) Validate() error {
	var errs []error

	if c.Data.MatchPattern == "" {
		errs = append(errs, errors.New("data.match_pattern must not be empty"))
	}
	if c.Data.ModelPath == "" {
		errs = append(errs, errors.New("data.model_path must not be empty"))
	}
	if c.Aggregation.MinMatches < 1 {
		errs = append(errs, fmt.Errorf("aggregation.min_matches must be at least 1, got: %d", c.Aggregation.MinMatches))
	}
	if c.Sentiment.PositiveThreshold < 0 || c.Sentiment.PositiveThreshold > 1 {
		errs = append(errs, fmt.Errorf("sentiment.positive_threshold must be between 0 and 1, got: %f", c.Sentiment.PositiveThreshold))
	}
	if c.Sentiment.NegativeThreshold > 0 || c.Sentiment.NegativeThreshold < -1 {
		errs = append(errs, fmt.Errorf("sentiment.negative_threshold must be between -1 and 0, got: %f", c.Sentiment.NegativeThreshold))
	}
	switch c.Cache.Backend {
	case CacheNone, CacheSQLite, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of none, sqlite, redis, got: %q", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheSQLite && c.Cache.SQLitePath == "" {
		errs = append(errs, errors.New("cache.sqlite_path is required for the sqlite backend"))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
	}
	if c.Server.TopFeatures < 1 || c.Server.TopFeatures > 12 {
		errs = append(errs, fmt.Errorf("server.top_features must be between 1 and 12, got: %d", c.Server.TopFeatures))
	}
	switch c.Log.Output {
	case "console", "file", "both", "stderr":
	default:
		errs = append(errs, fmt.Errorf("log.output must be one of console, file, both, stderr, got: %q", c.Log.Output))
	}

	return errors.Join(errs...)
}

// MatchGlob joins the data directory and the season file pattern.
func (c *Config) MatchGlob() string {
	if c.Data.Dir == "" {
		return c.Data.MatchPattern
	}
	return strings.TrimSuffix(c.Data.Dir, "/") + "/" + c.Data.MatchPattern
}

// LogOutputRune maps the log.output name onto the logger's output selector.
func (c *Config) LogOutputRune() rune {
	switch c.Log.Output {
	case "file":
		return 'f'
	case "both":
		return 'b'
	case "stderr":
		return 'e'
	default:
		return 'c'
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
