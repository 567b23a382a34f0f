package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lodygens/cryptobot/internal/application"
	"github.com/lodygens/cryptobot/internal/config"
	"github.com/lodygens/cryptobot/internal/domain"
	httpserver "github.com/lodygens/cryptobot/internal/infrastructure/http"
	"github.com/lodygens/cryptobot/internal/infrastructure/httpx"
	"github.com/lodygens/cryptobot/internal/infrastructure/kafka"
	"github.com/lodygens/cryptobot/internal/infrastructure/kraken"
	"github.com/lodygens/cryptobot/internal/infrastructure/pg"
	redisstore "github.com/lodygens/cryptobot/internal/infrastructure/redis"
	"github.com/lodygens/cryptobot/internal/infrastructure/telegram"
	"github.com/lodygens/cryptobot/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired components shared by both run modes.
type App struct {
	Cfg      config.Config
	Log      *zap.Logger
	Store    *redisstore.Store
	Source   application.QuoteSource
	Notifier application.Notifier
	Archive  application.QuoteArchive
	Clock    application.Clock

	// MaxTicks bounds the ingestion loop; zero runs until cancelled.
	MaxTicks int
}

// BuildRedis connects to the configured database and pings it. Failure is a store
// connection error and fatal for both modes.
func BuildRedis(ctx context.Context, cfg config.Config) (*redis.Client, func(), error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("%w: redis.url: %w", domain.ErrConfig, err)
	}
	opts.DB = cfg.Redis.Database
	client := redis.NewClient(opts)
	cleanup := func() { _ = client.Close() }
	if err := client.Ping(ctx).Err(); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("%w: connect %s db %d: %w", domain.ErrStore, opts.Addr, opts.DB, err)
	}
	return client, cleanup, nil
}

func BuildQuoteSource(cfg config.Config) application.QuoteSource {
	return &kraken.Client{
		BaseURL: cfg.Kraken.BaseURL,
		HTTP:    &httpx.Client{HTTP: &http.Client{Timeout: cfg.Kraken.Timeout.D()}},
	}
}

func BuildNotifier(cfg config.Config) (application.Notifier, func(), error) {
	switch cfg.Notifier.Type {
	case config.NotifierKafka:
		n := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return n, func() { _ = n.Close() }, nil
	case config.NotifierTelegram:
		return &telegram.Notifier{
			APIBase: cfg.Telegram.APIBase,
			Token:   cfg.Telegram.BotToken,
			ChatID:  cfg.Telegram.ChatID,
			Client:  &http.Client{Timeout: config.DefaultNotifyTimeout},
		}, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("%w: notifier.type %q", domain.ErrConfig, cfg.Notifier.Type)
	}
}

// BuildArchive returns a nil archive when archive.database_url is empty.
func BuildArchive(ctx context.Context, cfg config.Config, log *zap.Logger) (application.QuoteArchive, func(), error) {
	if cfg.Archive.DatabaseURL == "" {
		return nil, func() {}, nil
	}
	db, err := pg.Connect(ctx, cfg.Archive.DatabaseURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("archive connect: %w", err)
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return pg.NewArchiveRepo(db), cleanup, nil
}

// InitApp wires every component. The returned cleanup is safe to call on error.
func InitApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	client, closeRedis, err := BuildRedis(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	cleanups = append(cleanups, closeRedis)

	notifier, closeNotifier, err := BuildNotifier(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	cleanups = append(cleanups, closeNotifier)

	archive, closeArchive, err := BuildArchive(ctx, cfg, log)
	if err != nil {
		// the archive is optional; run without it
		log.Warn("archive disabled", zap.Error(err))
		archive = nil
	} else {
		cleanups = append(cleanups, closeArchive)
	}

	return &App{
		Cfg:      cfg,
		Log:      log,
		Store:    redisstore.New(client),
		Source:   BuildQuoteSource(cfg),
		Notifier: notifier,
		Archive:  archive,
		Clock:    application.RealClock(),
	}, cleanup, nil
}

func (a *App) clock() application.Clock {
	if a.Clock == nil {
		return application.RealClock()
	}
	return a.Clock
}

func (a *App) NewIngestor() *application.Ingestor {
	opts := []application.IngestOption{application.WithIngestLogger(a.Log.Named("ingest"))}
	if a.Archive != nil {
		opts = append(opts, application.WithArchive(a.Archive))
	}
	return application.NewIngestor(a.Cfg.PairList(), a.Source, a.Store, a.Notifier, opts...)
}

// RunIngest starts the optional status API and blocks in the tick loop until ctx is done.
func (a *App) RunIngest(ctx context.Context) error {
	differs, invalid := a.Cfg.UnscheduledIntervals()
	if len(invalid) > 0 {
		a.Log.Warn("unparseable pair intervals ignored", zap.Strings("pairs", invalid))
	}
	if len(differs) > 0 {
		a.Log.Info("pair intervals differ from the global tick; global tick applies",
			zap.Strings("pairs", differs), zap.Duration("interval", a.Cfg.Interval.D()))
	}

	a.Log.Info("ingest starting",
		zap.Int("pairs", len(a.Cfg.Pairs)),
		zap.String("notifier", a.Cfg.Notifier.Type),
		zap.String("destination", a.Cfg.Destination()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpDone := make(chan error, 1)
	if a.Cfg.HTTP.Addr != "" {
		srv := httpserver.NewServer(a.Store, a.Cfg.PairList())
		srv.SetReadyCheck(a.Store.Ping)
		if ar, ok := a.Archive.(httpserver.ArchiveReader); ok {
			srv.SetArchive(ar)
		}
		go func() {
			httpDone <- httpserver.Run(ctx, a.Cfg.HTTP.Addr, httpserver.NewRouter(srv), a.Log.Named("http"))
		}()
	} else {
		close(httpDone)
	}

	w := &worker.TickWorker{
		Ingestor: a.NewIngestor(),
		Interval: a.Cfg.Interval.D(),
		Clock:    a.clock(),
		Log:      a.Log.Named("worker"),
		MaxTicks: a.MaxTicks,
	}
	w.Start(ctx)
	cancel()
	if err := <-httpDone; err != nil {
		return fmt.Errorf("status api: %w", err)
	}
	return nil
}

func (a *App) RunReplay(ctx context.Context) (application.ReplayReport, error) {
	a.Log.Info("replay starting", zap.String("destination", a.Cfg.Destination()))
	r := application.NewReplayer(a.Cfg.PairList(), a.Store, a.Notifier,
		application.WithClock(a.clock()),
		application.WithChunkSize(a.Cfg.Replay.ChunkSize),
		application.WithDelay(a.Cfg.Replay.Delay.D()),
		application.WithReplayLogger(a.Log.Named("replay")),
	)
	return r.Run(ctx)
}
