package engine

import (
	"context"

	"golang.org/x/time/rate"

	"eventwatch/internal/transport"
	"eventwatch/pkg/logx"
)

// Dispatcher fans messages out to the registry. Delivery is best-effort:
// one unreachable recipient is logged and skipped, never retried within
// the same cycle, and never aborts the rest of the fan-out.
type Dispatcher struct {
	log     logx.Logger
	chat    transport.Sender
	reg     *Registry
	limiter *rate.Limiter
}

func NewDispatcher(chat transport.Sender, reg *Registry, ratePerSec int, log logx.Logger) *Dispatcher {
	if ratePerSec <= 0 {
		ratePerSec = 3
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		log:  log,
		chat: chat,
		reg:  reg,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

// Broadcast sends text to every current subscriber, in registry order.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) {
	for _, id := range d.reg.Snapshot() {
		if err := d.limiter.Wait(ctx); err != nil {
			return
		}
		if err := d.chat.SendText(ctx, id, text); err != nil {
			d.log.Warn("broadcast delivery failed", logx.Int64("chat_id", id), logx.Err(err))
		}
	}
}

// Reply sends text to exactly one recipient (command responses that
// should not be broadcast).
func (d *Dispatcher) Reply(ctx context.Context, chatID int64, text string) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}
	if err := d.chat.SendText(ctx, chatID, text); err != nil {
		d.log.Warn("reply delivery failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}
