// Package session holds per-visitor conversation state: a bounded transcript,
// a turn counter, activity timestamps and the contact facts derived from the
// conversation so far.
//
// The Store interface is the domain contract; InMemoryStore is the volatile
// process-local implementation. State never survives a restart and is never
// shared across instances. Each returned session is a snapshot copy so
// callers cannot mutate store internals; a turn reads its snapshot once at
// the start and writes once at the end via RecordTurn (last write wins for
// concurrent turns of the same session key).
package session
