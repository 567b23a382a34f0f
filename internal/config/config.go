package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lodygens/cryptobot/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Pairs    []PairConfig   `yaml:"pairs"`
	Interval Duration       `yaml:"interval"`
	LogLevel string         `yaml:"log_level"`
	Telegram TelegramConfig `yaml:"telegram"`
	Redis    RedisConfig    `yaml:"redis"`
	Kraken   KrakenConfig   `yaml:"kraken"`
	Notifier NotifierConfig `yaml:"notifier"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Archive  ArchiveConfig  `yaml:"archive"`
	HTTP     HTTPConfig     `yaml:"http"`
	Replay   ReplayConfig   `yaml:"replay"`
}

// PairConfig keeps the raw interval text; the ingestion loop runs on the global Interval.
type PairConfig struct {
	Pair     string `yaml:"pair"`
	Interval string `yaml:"interval"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIBase  string `yaml:"api_base"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Database int    `yaml:"database"`
}

type KrakenConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

type NotifierConfig struct {
	Type string `yaml:"type"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ArchiveConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type ReplayConfig struct {
	ChunkSize int      `yaml:"chunk_size"`
	Delay     Duration `yaml:"delay"`
}

// Duration accepts Go duration text ("1h", "250ms") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) D() time.Duration { return time.Duration(d) }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// Load reads the YAML file, applies environment overrides and defaults, then validates.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %w", domain.ErrConfig, path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse: %w", domain.ErrConfig, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Database = atoiDef(getEnv("REDIS_DB", strconv.Itoa(c.Redis.Database)), c.Redis.Database)
	c.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	c.Telegram.ChatID = getEnv("TELEGRAM_CHAT_ID", c.Telegram.ChatID)
	c.Archive.DatabaseURL = getEnv("DATABASE_URL", c.Archive.DatabaseURL)
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Kraken.BaseURL == "" {
		c.Kraken.BaseURL = DefaultKrakenBaseURL
	}
	if c.Kraken.Timeout <= 0 {
		c.Kraken.Timeout = Duration(DefaultKrakenTimeout)
	}
	if c.Telegram.APIBase == "" {
		c.Telegram.APIBase = DefaultTelegramAPIBase
	}
	if c.Notifier.Type == "" {
		c.Notifier.Type = NotifierTelegram
	}
	if c.Replay.ChunkSize <= 0 {
		c.Replay.ChunkSize = DefaultReplayChunkSize
	}
	if c.Replay.Delay <= 0 {
		c.Replay.Delay = Duration(DefaultReplayDelay)
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Pairs) == 0 {
		errs = append(errs, errors.New("pairs: at least one pair is required"))
	}
	for i, p := range c.Pairs {
		if !domain.ValidatePair(p.Pair) {
			errs = append(errs, fmt.Errorf("pairs[%d]: invalid pair %q", i, p.Pair))
		}
	}
	if c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required"))
	}
	if c.Redis.Database < 0 {
		errs = append(errs, fmt.Errorf("redis.database: %d is negative", c.Redis.Database))
	}
	switch c.Notifier.Type {
	case NotifierTelegram:
		if c.Telegram.BotToken == "" {
			errs = append(errs, errors.New("telegram.bot_token is required"))
		}
		if c.Telegram.ChatID == "" {
			errs = append(errs, errors.New("telegram.chat_id is required"))
		} else if !validChatID(c.Telegram.ChatID) {
			errs = append(errs, fmt.Errorf("telegram.chat_id: %q is neither a numeric id nor an @channel handle", c.Telegram.ChatID))
		}
	case NotifierKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.topic is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("notifier.type: unsupported %q", c.Notifier.Type))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfig, errors.Join(errs...))
	}
	return nil
}

var channelHandle = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9_]{4,31}$`)

func validChatID(id string) bool {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return true
	}
	return channelHandle.MatchString(id)
}

func (c Config) PairList() []domain.Pair {
	out := make([]domain.Pair, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		out = append(out, domain.Pair(p.Pair))
	}
	return out
}

// Destination names the single channel notifications go to.
func (c Config) Destination() string {
	if c.Notifier.Type == NotifierKafka {
		return c.Kafka.Topic
	}
	return c.Telegram.ChatID
}

// UnscheduledIntervals lists pairs whose own interval differs from the global tick
// or cannot be parsed. Only the global tick is scheduled.
func (c Config) UnscheduledIntervals() (differs []string, invalid []string) {
	for _, p := range c.Pairs {
		if p.Interval == "" {
			continue
		}
		d, err := time.ParseDuration(p.Interval)
		if err != nil {
			invalid = append(invalid, p.Pair)
			continue
		}
		if d != c.Interval.D() {
			differs = append(differs, p.Pair)
		}
	}
	return differs, invalid
}
