package engine

import (
	"fmt"
	"strings"

	"eventwatch/internal/feed"
)

const (
	msgStarted        = "🤖 Event monitor started."
	msgPong           = "🏓 Pong! Bot running."
	msgNoNewEvents    = "No new events."
	msgSessionExpired = "⚠️ Session expired. Update the portal cookie."
	msgSessionActive  = "✅ Session active."
	msgUnreachable    = "Could not reach the portal. Try again later."
	msgNoEvents       = "No events on record yet."

	helpText = "Commands:\n" +
		"/ping - check the bot\n" +
		"/check - manual event check\n" +
		"/status - check login session\n" +
		"/last5 - show recent events\n" +
		"/help - show commands"
)

func formatNewEvent(e feed.Event) string {
	return fmt.Sprintf("📢 New event: %s\nCategory: %s\nMode: %s", e.Title, e.Category, e.Location)
}

func formatRecent(events []feed.Event) string {
	if len(events) == 0 {
		return msgNoEvents
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Last %d events:\n", len(events)))
	for i, e := range events {
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, e.Title, e.Category, e.Location)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSeeded(n int) string {
	return fmt.Sprintf("Watching the portal. %d current events recorded as known.", n)
}
