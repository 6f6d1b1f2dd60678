package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"eventwatch/internal/config"
	"eventwatch/internal/engine"
	"eventwatch/internal/feed"
	"eventwatch/internal/scheduler"
	"eventwatch/internal/storage"
	"eventwatch/internal/transport/telegram"
	"eventwatch/pkg/logx"
)

// App wires config, logging, storage, the Telegram adapter, the engine
// and the scheduler, and owns their lifecycle.
type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	db      storage.Store
	adapter *telegram.Adapter
	feedc   *feed.Client
	eng     *engine.Engine
	sched   *scheduler.Service

	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	cfgm.SetLogger(logs.Logger().With(logx.String("comp", "config")))
	cfgm.SetValidator(func(ctx context.Context, c *config.Config) error {
		return c.Validate()
	})

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	feedTimeout, err := config.ParseDurationOrDefault("feed.timeout", cfg.Feed.Timeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	checkEvery, err := config.ParseDurationOrDefault("watch.check_every", cfg.Watch.CheckEvery, 5*time.Minute)
	if err != nil {
		return nil, err
	}
	drainEvery, err := config.ParseDurationOrDefault("watch.drain_every", cfg.Watch.DrainEvery, 5*time.Second)
	if err != nil {
		return nil, err
	}
	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logs.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	feedc, err := feed.NewClient(feed.Config{
		URL:       cfg.Feed.URL,
		Cookie:    cfg.Feed.Cookie,
		UserAgent: cfg.Feed.UserAgent,
		Timeout:   feedTimeout,
	}, logs.Logger().With(logx.String("comp", "feed")))
	if err != nil {
		return nil, err
	}

	storePath := strings.TrimSpace(cfg.Storage.Path)
	if storePath == "" {
		storePath = "./eventwatch_store"
	}
	db, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        storePath,
		BusyTimeout: busyTimeout,
	}, logs.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	engLog := logs.Logger().With(logx.String("comp", "engine"))
	store := engine.NewEventStore(db, cfg.Watch.MaxStored, engLog)
	reg := engine.NewRegistry(db, cfg.Telegram.AdminChatID, engLog)
	disp := engine.NewDispatcher(adapter, reg, cfg.Watch.RatePerSec, engLog)
	eng := engine.New(engine.Options{
		RecentCount: cfg.Watch.RecentCount,
		SeedOnStart: cfg.Watch.SeedOnStart,
	}, feedc, store, reg, disp, adapter.Updates(), engLog)

	sched := scheduler.New(scheduler.Config{
		CheckEvery: checkEvery,
		DrainEvery: drainEvery,
	}, logs.Logger().With(logx.String("comp", "scheduler")))

	return &App{
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		db:      db,
		adapter: adapter,
		feedc:   feedc,
		eng:     eng,
		sched:   sched,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.eng.Load(ctx); err != nil {
		return fmt.Errorf("load engine state: %w", err)
	}
	if err := a.adapter.Start(ctx); err != nil {
		return err
	}

	a.eng.AnnounceStarted(ctx)

	if err := a.sched.Start(ctx, a.eng.Tick, a.eng.Poll); err != nil {
		return err
	}

	// Config watch: lets the operator swap the session cookie (and
	// logging knobs) by editing the file, no restart.
	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	sub := a.cfgm.Subscribe(1)
	a.watchWG.Add(2)
	go func() {
		defer a.watchWG.Done()
		if err := a.cfgm.Watch(wctx); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()
	go func() {
		defer a.watchWG.Done()
		for {
			select {
			case <-wctx.Done():
				a.cfgm.Unsubscribe(sub)
				return
			case c := <-sub:
				if c == nil {
					continue
				}
				a.applyReload(c)
			}
		}
	}()

	a.log.Info("started")
	return nil
}

func (a *App) applyReload(c *config.Config) {
	a.feedc.SetCookie(c.Feed.Cookie)
	a.logs.Apply(logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	})
	a.log.Info("config applied", logx.String("cookie", maskCookie(c.Feed.Cookie)))
}

// maskCookie keeps credentials out of the logs while still letting the
// operator see that a new one landed.
func maskCookie(cookie string) string {
	s := strings.TrimSpace(cookie)
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.watchWG.Wait()

	a.sched.Stop(ctx)
	err := a.adapter.Stop(ctx)
	if a.db != nil {
		_ = a.db.Close()
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return err
}
