// Package dashboard is the admin console's controller core.
//
// Pages turn each operator action into a Command and hand it to
// Controller.Handle together with the caller's session. The controller
// applies it to that session's State (role-gated tabs, the active section
// and its rows, at most one update modal, at most one pending delete) and
// returns a View to render plus an Outcome telling the page whether the
// session has ended.
package dashboard
