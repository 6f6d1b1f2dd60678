// Package engine is the change-detection and notification core:
// normalize -> filter -> diff -> persist -> broadcast, plus the
// command-driven control loop that lets subscribers poke it.
//
// All engine state (event store, subscriber registry, drain cursor) is
// process-local and mutated synchronously. The two periodic triggers
// (slow cycle, fast drain) share one run mutex; an overlapping trigger
// skips instead of interleaving.
package engine
