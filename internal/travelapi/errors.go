package travelapi

import "fmt"

// EnvelopeError reports a response whose envelope code was not SUCCESS.
type EnvelopeError struct {
	Endpoint string
	Code     string
	Message  string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("travelapi: %s: envelope code %q", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("travelapi: %s: envelope code %q: %s", e.Endpoint, e.Code, e.Message)
}

// StatusError reports a non-2xx HTTP status from the backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("travelapi: %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("travelapi: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
