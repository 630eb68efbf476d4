// ABOUTME: Error taxonomy for REST API calls.
// ABOUTME: Unauthorized sentinel, transport failures by class, and server-reported business errors.

package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrUnauthorized is returned when an authenticated call receives a 401.
// Callers treat it as a forced logout.
var ErrUnauthorized = errors.New("unauthorized")

// TransportClass groups transport failures for display.
type TransportClass string

const (
	ClassTimeout     TransportClass = "timeout"
	ClassUnreachable TransportClass = "unreachable"
	ClassStatus      TransportClass = "status"
	ClassOther       TransportClass = "other"
)

// TransportError is a failure to get a usable response from the API.
type TransportError struct {
	Op         string
	Class      TransportClass
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Class {
	case ClassStatus:
		return fmt.Sprintf("%s: server returned status %d", e.Op, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Class, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Class)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// BusinessError is a response with success:false. Message is shown verbatim.
type BusinessError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// Classify maps an http.Client.Do error to a transport class.
func Classify(err error) TransportClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassUnreachable
	}
	return ClassOther
}

// UserMessage renders any client error as the text shown to an operator.
func UserMessage(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		if be.Message == "" {
			return "Request failed"
		}
		return be.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		switch te.Class {
		case ClassTimeout:
			return "Request timed out. Please try again."
		case ClassUnreachable:
			return "Connection error. Please try again."
		case ClassStatus:
			return fmt.Sprintf("Server error: %d", te.StatusCode)
		}
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Your session has ended. Please log in again."
	}
	return "Connection error. Please try again."
}
