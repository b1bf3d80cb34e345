package webloaderapi

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// TransportError is returned when the backend cannot be reached or the response cannot be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "backend is unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is returned when the backend answers with a non-2xx status
// or reports an error inside an otherwise successful response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded with %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsAPIError extracts an APIError from the error chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}

	return nil, false
}
