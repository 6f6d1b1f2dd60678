package storage

// Package storage persists the engine's two documents:
//   - the event store  (newest-first, capped by the engine)
//   - the subscriber registry
//
// A malformed or missing document is never fatal: loads fall back to the
// empty default so the bot keeps running after a bad shutdown.
