package view

import (
	"github.com/webloader/dashboard/internal/querykind"
	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/pkg/errors"
)

const TransportErrorMessage = "Could not connect to the server"

// ClassifyError maps an error to the class and the message shown to the user.
// Backend messages are shown verbatim, fallback is used when the backend did not send one.
func ClassifyError(err error, fallback string) (ErrorClass, string) {
	var verr *querykind.ValidationError
	if errors.As(err, &verr) {
		return ErrorValidation, verr.Error()
	}

	if webloaderapi.IsTransportError(err) {
		return ErrorTransport, TransportErrorMessage
	}

	if apiErr, ok := webloaderapi.AsAPIError(err); ok && apiErr.Message != "" {
		return ErrorApplication, apiErr.Message
	}

	return ErrorApplication, fallback
}

// NewPanelFromError builds an error panel for err.
func NewPanelFromError(title string, err error, fallback string) *Panel {
	class, msg := ClassifyError(err, fallback)
	return NewErrorPanel(title, class, msg)
}
