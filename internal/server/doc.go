// Package server assembles shopdesk: the SQLite store, the API client,
// sessions, the admin console, the chat pages, and the background loops
// (assistant status poller, session verifier, session sweeper). Run serves
// until its context is canceled and then shuts down within five seconds.
package server
