// Package scheduler owns the two periodic triggers: the slow
// change-detection cycle and the fast command drain. Both fire once at
// startup. Serialization is the engine's job (its run mutex); the
// scheduler only provides the beat.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"eventwatch/pkg/logx"
)

type Config struct {
	CheckEvery time.Duration // scheduled cycle, default 5m
	DrainEvery time.Duration // command drain, default 5s
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config

	parser cron.Parser
	c      *cron.Cron
}

func New(cfg Config, log logx.Logger) *Service {
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = 5 * time.Minute
	}
	if cfg.DrainEvery <= 0 {
		cfg.DrainEvery = 5 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		cfg:    cfg,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start registers both triggers and kicks each once immediately.
func (s *Service) Start(ctx context.Context, cycle, drain func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	c := cron.New(cron.WithParser(s.parser))

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.CheckEvery), func() { cycle(ctx) }); err != nil {
		return fmt.Errorf("register cycle trigger: %w", err)
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.DrainEvery), func() { drain(ctx) }); err != nil {
		return fmt.Errorf("register drain trigger: %w", err)
	}

	s.c = c
	c.Start()
	s.log.Info("scheduler started",
		logx.Duration("check_every", s.cfg.CheckEvery),
		logx.Duration("drain_every", s.cfg.DrainEvery))

	// Startup kick: one cycle and one drain right away.
	go func() {
		cycle(ctx)
		drain(ctx)
	}()

	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	stopCtx := s.c.Stop()
	s.c = nil

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}
