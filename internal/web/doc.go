// Package web holds the pieces the admin and chat pages share: CSRF
// double-submit cookies and a renderer for embedded html/template pages.
package web
