package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Its-donkey/shrine-live/internal/config"
	"github.com/Its-donkey/shrine-live/internal/ui/i18n"
	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
	"github.com/Its-donkey/shrine-live/internal/ui/prayer"
	uiserver "github.com/Its-donkey/shrine-live/internal/ui/server"
	"github.com/Its-donkey/shrine-live/internal/ui/state"
	"github.com/Its-donkey/shrine-live/logging"
)

func main() {
	ctx, stop := signalContext(context.Background())
	defer stop()

	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the configuration")
	listen := flag.String("listen", "", "address to serve the site (overrides server.addr)")
	templatesDir := flag.String("templates", "", "directory overriding the embedded page templates")
	assetsDir := flag.String("assets", "", "directory holding styles.css, main.wasm and wasm_exec.js")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *listen != "" {
		cfg.Server.Addr = *listen
	}
	if *templatesDir != "" {
		cfg.Site.TemplatesDir = *templatesDir
	}
	if *assetsDir != "" {
		cfg.Site.AssetsDir = *assetsDir
	}

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server error: %v", err)
	}
}

// signalContext is cancelled by SIGINT or SIGTERM. The handlers are released
// once it fires, so a second signal kills the process without waiting for
// graceful shutdown.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

func run(ctx context.Context, cfg config.Config) error {
	logger, closeLogs, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	store, ready, closeStore, err := newFeedStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}

	prayers, closePrayers, err := newPrayerService(cfg)
	if err != nil {
		return err
	}
	defer closePrayers()

	feed := livestream.NewFeed(store, logger)
	source := livestream.NewHTTPSource(livestream.HTTPSourceOptions{
		BaseURL: cfg.API.BaseURL,
		Client:  &http.Client{Timeout: cfg.APITimeout()},
		Limiter: livestream.NewLimiter(cfg.Livestream.RequestsPerSecond, cfg.Livestream.Burst),
	})
	poller := livestream.NewPoller(livestream.PollerOptions{
		Source:   source,
		Interval: cfg.PollInterval(),
		Window:   cfg.Window(),
		Location: loc,
		Logger:   logger,
	})
	var thumbnails *livestream.ThumbnailResolver
	if cfg.Livestream.ResolveThumbnails {
		thumbnails = livestream.NewThumbnailResolver(&http.Client{Timeout: cfg.APITimeout()}, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		poller.Run(gctx, func(obs livestream.Observation) {
			if thumbnails != nil {
				obs = thumbnails.Enrich(gctx, obs)
			}
			feed.Publish(gctx, obs)
		})
		return nil
	})
	g.Go(func() error {
		return uiserver.Run(gctx, uiserver.Options{
			Listen:       cfg.Server.Addr,
			APIBase:      cfg.API.BaseURL,
			SiteName:     cfg.Site.Name,
			TemplatesDir: cfg.Site.TemplatesDir,
			AssetsDir:    cfg.Site.AssetsDir,
			Location:     loc,
			ClearOnLapse: cfg.Livestream.ClearOnLapse,
			Catalog:      catalog,
			Feed:         feed,
			Prayers:      prayer.NewController(prayers, logger),
			Logger:       logger,
			Ready:        ready,
		})
	})
	return g.Wait()
}

func newLogger(cfg config.Config) (*logging.Logger, func(), error) {
	writers := []io.Writer{os.Stdout}
	closeFn := func() {}
	if cfg.Logging.Dir != "" {
		fw, err := logging.NewFileWriter(logging.FileOptions{Dir: cfg.Logging.Dir, Name: "shrine.log"})
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, fw)
		closeFn = func() { _ = fw.Close() }
	}
	return logging.New(cfg.Site.Name, logging.ParseLevel(cfg.Logging.Level), writers...), closeFn, nil
}

// newCatalog loads the string tables, overlaid with site.locales_dir, and
// applies site.default_language.
func newCatalog(cfg config.Config) (*i18n.Catalog, error) {
	catalog, err := i18n.Load(cfg.Site.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	if err := catalog.SetDefault(cfg.Site.DefaultLanguage); err != nil {
		return nil, err
	}
	return catalog, nil
}

// newFeedStore picks the observation store. The returned probe backs /healthz.
func newFeedStore(cfg config.Config) (livestream.Store, func(context.Context) error, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rdb := state.NewRedisClient(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		ready := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return state.NewRedisFeedStore(rdb, "", cfg.CacheTTL()), ready, func() { _ = rdb.Close() }, nil
	case config.CacheMemory, "":
		return state.NewFeedCache(cfg.CacheTTL()), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}
}

func newPrayerService(cfg config.Config) (prayer.Service, func(), error) {
	switch cfg.Prayer.Transport {
	case config.TransportAMQP:
		broker, err := prayer.DialBroker(cfg.Prayer.AMQPURL, cfg.Prayer.Exchange)
		if err != nil {
			return nil, nil, err
		}
		svc := prayer.NewQueueService(broker.Channel, cfg.Prayer.Exchange, cfg.Prayer.RoutingKey)
		return svc, func() { _ = broker.Close() }, nil
	case config.TransportHTTP, "":
		return prayer.NewHTTPService(cfg.API.BaseURL, &http.Client{Timeout: cfg.APITimeout()}), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported prayer transport %q", cfg.Prayer.Transport)
	}
}
