package restapi

import (
	"net/http"
	"strconv"

	"github.com/webloader/dashboard/internal/analysisjob"
	"github.com/webloader/dashboard/internal/view"

	"github.com/pkg/errors"
)

var ErrInvalidLimit = errors.New("limit must be a positive integer")

const submitFailedMessage = "Error processing the analysis"

// submitError maps a failed submission to the message and the status code of the response.
func submitError(err error) (string, int) {
	if analysisjob.IsValidation(err) {
		return errors.Cause(err).Error(), http.StatusBadRequest
	}

	_, msg := view.ClassifyError(err, submitFailedMessage)

	return msg, http.StatusBadGateway
}

// parseLimit reads the optional limit query parameter, zero means the default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, ErrInvalidLimit
	}

	return limit, nil
}
