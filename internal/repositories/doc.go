// Package repositories implements SQLite persistence for the identity session.
//
// [SessionRepository] implements [models.Repository] for [models.Session] and adds the
// single-active-session operations used by the auth gateway: Save, Current and Clear.
// Sessions are soft-deleted via deleted_at timestamps and excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (session #3) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
