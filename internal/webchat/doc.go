// Package webchat serves the end-user pages: login, the signed-in chat,
// and an anonymous chat widget.
//
// The signed-in chat keys its conversation on the session, so a new login
// starts a new conversation. The widget keys its conversation on a random
// cookie scoped to /widget.
//
// Sends follow post/redirect/get: the form posts, the exchange runs to
// completion, and the browser is redirected back to the page, which shows
// the updated log with the input enabled again.
package webchat
