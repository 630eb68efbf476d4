// Package apiclient is the console's view of the shop REST API.
//
// Every call takes a context and applies its own timeout: session checks use
// the verify timeout, everything else the request timeout. Nothing is
// retried. Errors fall into three shapes: ErrUnauthorized for a 401 on an
// authenticated call, *TransportError for timeouts, unreachable hosts, and
// unusable responses, and *BusinessError for a success:false envelope whose
// message is meant for the operator.
package apiclient
