// Package repositories implements persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// User records support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : Account persistence with username and provider id lookups, plus atomic list mutations
//   - [SessionRepository] : SQLite-backed session tokens
//   - [RedisSessionStore] : Redis-backed session tokens with server-side expiry
//
// A user's items live in a JSON array column so that appending, removing and
// seeding are each a single UPDATE statement and never a read-modify-write.
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
