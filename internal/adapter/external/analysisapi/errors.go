package analysisapi

import "fmt"

// ValidationError reports a bad date range. It is returned before any
// request is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError reports a non-2xx response from the analysis endpoint
type TransportError struct {
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// ApplicationError carries the error field of an otherwise successful response
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}
