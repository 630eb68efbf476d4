// Package session manages console logins for the admin dashboard and the
// end-user chat.
//
// The API's bearer token never reaches the browser. It is kept in a
// server-side session record; the browser holds a short HS256-signed cookie
// naming that record. Require guards pages so that a request without a live
// session is redirected to its login page before any handler code runs.
package session
