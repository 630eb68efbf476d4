// Package store provides persistent storage for the console using SQLite.
//
// # Architecture
//
// A single Store interface covers everything the console keeps locally:
//
//   - WebSession: the server-side half of a login. The browser only holds a
//     signed cookie naming the session; the bearer token and user record
//     returned by the API live here.
//   - ChatMessage: the visible message log of a chat conversation.
//   - AuditEntry: every create/update/delete issued through the dashboard and
//     how the API answered it.
//
// SQLiteStore implements Store on modernc.org/sqlite (pure Go, no cgo).
// MockStore is an in-memory implementation for tests.
//
// # Timestamps
//
// Timestamps are stored as fixed-width UTC strings so that expiry checks can
// be done with plain string comparison in SQL.
//
// # Usage
//
//	s, err := store.NewSQLiteStore("/var/lib/shopdesk/console.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
package store
