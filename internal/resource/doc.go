// Package resource describes the shop collections the admin console manages.
//
// Each Kind knows its column headings, how to decode a row of its list
// response, the edit schema for one of its records, and its create form.
// The set of kinds is closed; the compiler rejects implementations outside
// this package.
//
// Edit payloads are partial: BuildUpdate keeps only the fields the operator
// filled in, keyed by the snake_case name derived from the field id.
package resource
