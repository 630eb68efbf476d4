// Package webadmin serves the operator console under /admin.
//
// # Overview
//
// Operators log in against the shop API, then manage the collections their
// role allows: products, orders, users, FAQ entries, unanswered questions
// and roles. Every page is rendered on the server; there is no client
// script.
//
// # Flow
//
// Handlers translate each request into a dashboard command, hand it to the
// dashboard controller, and render the returned view:
//
//	GET  /admin/s/{section}               Activate
//	POST /admin/s/{section}/create        Create
//	GET  /admin/s/{section}/{id}/edit     OpenEdit
//	POST /admin/s/{section}/{id}/edit     SubmitEdit
//	POST /admin/s/{section}/{id}/cancel   CancelEdit
//	GET  /admin/s/{section}/{id}/delete   RequestDelete
//	POST /admin/s/{section}/{id}/delete   ConfirmDelete
//
// POST handlers render the resulting page directly instead of redirecting,
// so a flash message belongs to exactly one response.
//
// # Authentication
//
// Login posts the credentials to the API and keeps the returned bearer
// token in a server-side session. A 401 from any later API call ends the
// session and sends the browser back to the login page.
//
// All POSTs carry a double-submit CSRF token.
//
// # Activity
//
// GET /admin/audit lists recent mutations from the audit log for the
// Application Admin and System Admin roles.
package webadmin
