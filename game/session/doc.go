// Package session provides session management for the Klondike game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiration
//   - Optional persistence to JSON files or a SQLite database
//
// Core Types:
//
// Manager is the session manager behind service.SessionManager. Each
// service.Session owns its own engine instance plus creation and last
// access times.
//
// Session Identifiers:
//
// Generated IDs are 4 lowercase hex characters from crypto/rand. Callers may
// pick their own ID made of letters, digits, '-' and '_'. Lookups are
// case-insensitive.
//
// Persistence:
//
// FilePersistence writes one JSON document per session; SQLitePersistence
// keeps one row per session in a sessions table. Both store the config ID
// and the full game state, and a loaded state must pass the engine's
// invariant check before it is adopted. A manager with persistence loads
// sessions lazily on Get, so an evicted session comes back on its next use.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions.db", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	defer manager.Close()
//
//	sess, err := manager.Create("", config)
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions evicts sessions idle longer than a given age. With
// persistence the session is saved first and stays loadable.
package session
