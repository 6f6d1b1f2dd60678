package engine

import (
	"context"
	"strings"

	"eventwatch/internal/feed"
	"eventwatch/internal/transport"
	"eventwatch/pkg/logx"
)

// drain consumes every pending inbound message and dispatches it. The
// cursor advances to the highest consumed update id even when a message
// carries no recognizable command.
func (e *Engine) drain(ctx context.Context) {
	for {
		select {
		case m := <-e.updates:
			if m.UpdateID > e.cursor {
				e.cursor = m.UpdateID
			}
			e.handleMessage(ctx, m)
		default:
			return
		}
	}
}

func (e *Engine) handleMessage(ctx context.Context, m transport.Message) {
	// Self-registration: first contact makes you a subscriber, no
	// explicit command needed.
	added, err := e.reg.Add(ctx, m.ChatID)
	if err != nil {
		e.log.Error("persist registry failed", logx.Int64("chat_id", m.ChatID), logx.Err(err))
	}
	if added {
		e.log.Info("subscriber registered", logx.Int64("chat_id", m.ChatID), logx.String("user", m.FromName))
	}

	switch normalizeCommand(m.Text) {
	case "ping":
		e.disp.Reply(ctx, m.ChatID, msgPong)
	case "check":
		e.runCycle(ctx, true, m.ChatID)
	case "status":
		e.sessionStatus(ctx, m.ChatID)
	case "last5", "recent":
		e.replyRecent(ctx, m.ChatID)
	case "start", "help":
		e.disp.Reply(ctx, m.ChatID, helpText)
	default:
		e.disp.Reply(ctx, m.ChatID, helpText)
	}
}

// normalizeCommand reduces raw message text to a bare command token:
// strip the leading slash, drop the @botname routing suffix, lowercase.
func normalizeCommand(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "/")
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// sessionStatus does one fetch purely to classify the session, replying
// to the invoker only.
func (e *Engine) sessionStatus(ctx context.Context, chatID int64) {
	_, err := e.feed.FetchRecords(ctx)
	switch feed.ClassifySession(err) {
	case feed.SessionValid:
		e.disp.Reply(ctx, chatID, msgSessionActive)
	case feed.SessionExpired:
		e.log.Warn("session expired", logx.Err(err))
		e.disp.Reply(ctx, chatID, msgSessionExpired)
	default:
		e.log.Warn("activity fetch failed", logx.Err(err))
		e.disp.Reply(ctx, chatID, msgUnreachable)
	}
}

func (e *Engine) replyRecent(ctx context.Context, chatID int64) {
	events, err := e.recentEvents(ctx)
	switch feed.ClassifySession(err) {
	case feed.SessionExpired:
		e.log.Warn("session expired", logx.Err(err))
		e.disp.Reply(ctx, chatID, msgSessionExpired)
		return
	case feed.FeedUnreachable:
		e.log.Warn("activity fetch failed", logx.Err(err))
		e.disp.Reply(ctx, chatID, msgUnreachable)
		return
	}
	e.disp.Reply(ctx, chatID, formatRecent(events))
}
