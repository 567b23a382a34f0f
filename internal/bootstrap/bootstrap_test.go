package bootstrap

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/lodygens/cryptobot/internal/config"
	"github.com/lodygens/cryptobot/internal/domain"
	"github.com/lodygens/cryptobot/internal/infrastructure/kafka"
	"github.com/lodygens/cryptobot/internal/infrastructure/telegram"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func baseConfig(redisURL string) config.Config {
	return config.Config{
		Pairs:    []config.PairConfig{{Pair: "XBTUSD", Interval: "1h"}},
		Telegram: config.TelegramConfig{BotToken: "t", ChatID: "1", APIBase: "http://127.0.0.1:1"},
		Redis:    config.RedisConfig{URL: redisURL, Database: 3},
		Notifier: config.NotifierConfig{Type: config.NotifierTelegram},
	}
}

func TestBuildRedis_SelectsDatabase(t *testing.T) {
	mr := miniredis.RunT(t)
	client, cleanup, err := BuildRedis(context.Background(), baseConfig("redis://"+mr.Addr()+"/"))
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.DB(3).Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestBuildRedis_Errors(t *testing.T) {
	_, _, err := BuildRedis(context.Background(), baseConfig("not a url"))
	require.ErrorIs(t, err, domain.ErrConfig)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, _, err = BuildRedis(context.Background(), baseConfig("redis://"+addr+"/"))
	require.ErrorIs(t, err, domain.ErrStore)
}

func TestBuildNotifier(t *testing.T) {
	cfg := baseConfig("redis://localhost:6379/")
	n, cleanup, err := BuildNotifier(cfg)
	require.NoError(t, err)
	cleanup()
	require.IsType(t, &telegram.Notifier{}, n)

	cfg.Notifier.Type = config.NotifierKafka
	cfg.Kafka = config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "prices"}
	n, cleanup, err = BuildNotifier(cfg)
	require.NoError(t, err)
	cleanup()
	require.IsType(t, &kafka.Notifier{}, n)

	cfg.Notifier.Type = "pigeon"
	_, _, err = BuildNotifier(cfg)
	require.ErrorIs(t, err, domain.ErrConfig)
}

func TestBuildArchive_DisabledWithoutURL(t *testing.T) {
	a, cleanup, err := BuildArchive(context.Background(), baseConfig(""), zap.NewNop())
	require.NoError(t, err)
	cleanup()
	require.Nil(t, a)
}

func TestInitApp_StoreDownIsFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, cleanup, err := InitApp(context.Background(), baseConfig("redis://"+addr+"/"), zap.NewNop())
	cleanup()
	require.ErrorIs(t, err, domain.ErrStore)
}
