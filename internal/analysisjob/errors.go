package analysisjob

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("job not found")

	ErrAnalysisTypeRequired = errors.New("analysis type is required")
	ErrDockerUnavailable    = errors.New("Docker is not available, start the required containers first")
)

// IsValidation reports whether err was caused by the submitted form, before anything was sent.
func IsValidation(err error) bool {
	return errors.Is(err, ErrAnalysisTypeRequired) || errors.Is(err, ErrDockerUnavailable)
}
