package config

import "time"

const (
	NotifierTelegram = "telegram"
	NotifierKafka    = "kafka"
)

const (
	DefaultConfigPath      = "config.yaml"
	DefaultInterval        = time.Hour
	DefaultLogLevel        = "info"
	DefaultKrakenBaseURL   = "https://api.kraken.com"
	DefaultKrakenTimeout   = 10 * time.Second
	DefaultTelegramAPIBase = "https://api.telegram.org"
	DefaultReplayChunkSize = 100
	DefaultReplayDelay     = 100 * time.Millisecond
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultHTTPReadTimeout = 5 * time.Second
	DefaultNotifyTimeout   = 10 * time.Second
)
