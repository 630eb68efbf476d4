// Package chat connects the end-user chat pages to the conversational
// webhook.
//
// Exchange runs one turn at a time: the user's message is logged first, then
// the webhook is called and each non-empty reply fragment is logged as an
// assistant message. A failed call adds a single assistant message naming
// the failure class and never surfaces as a page error. StatusPoller and
// Verifier run in the background, independent of any send.
package chat
