// Package session manages live game sessions and their storage.
//
// Manager keeps sessions in memory keyed by a case-insensitive ID. Generated
// IDs are 4 hex characters from crypto/rand. With a SessionPersistence
// attached, every new session is written through, and Get falls back to
// storage for sessions that are not in memory (after a restart or after
// CleanupExpiredSessions evicted them).
//
// Two stores are provided:
//   - FilePersistence writes <id>.json into a sessions directory
//   - SQLitePersistence keeps one row per session in a "sessions" table
//
// A persisted record holds the board config next to the game state, so a
// session can be restored even if its config file has since changed.
//
// The package also saves end-of-game snapshots (SaveSnapshot, SnapshotStore)
// and single player records (SavePlayerRecord, LoadPlayerRecord).
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("monopoly.db", configManager)
//	manager := session.NewManagerWithPersistence(store)
//	sess, err := manager.Create("", "umd", config, players)
package session
