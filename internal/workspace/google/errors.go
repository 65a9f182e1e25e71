package google

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/api/googleapi"
)

// APIError wraps a Google API failure with the operation name and HTTP
// status so callers can report upstream failures distinctly from internal
// ones.
type APIError struct {
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// wrapErr logs and wraps an API failure. Authorization failures get an
// actionable hint since a 403 from these APIs nearly always means a missing
// scope or an API not enabled in the project.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	status := 0
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		status = gerr.Code
	}
	if status == http.StatusForbidden {
		log.Printf("⚠️ %s failed (HTTP 403): PERMISSION_DENIED - check API enabled in Google Cloud, OAuth scopes, Workspace admin approval", op)
	} else {
		log.Printf("⚠️ %s failed (HTTP %d): %v", op, status, err)
	}
	return &APIError{Op: op, Status: status, Err: err}
}

// IsUpstreamStatus returns the HTTP status carried by an upstream API
// error, or 0 when the error is not one.
func IsUpstreamStatus(err error) int {
	var aerr *APIError
	if errors.As(err, &aerr) {
		return aerr.Status
	}
	return 0
}
