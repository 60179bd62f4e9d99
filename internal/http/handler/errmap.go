package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/willysamz/ha-matrix-api/internal/domain/routing"
	"github.com/willysamz/ha-matrix-api/internal/matrix"
)

// Failure classes surfaced to API clients. Batch entries carry these as
// machine-readable codes; single operations map them to HTTP statuses.
const (
	codeOutOfRange    = "out_of_range"
	codeNameNotFound  = "name_not_found"
	codeAmbiguousName = "ambiguous_name"
	codeUnreachable   = "device_unreachable"
	codeBadStatus     = "device_error"
	codeParse         = "parse_error"
	codeUnknown       = "internal_error"
)

// errorCode classifies an error from the routing core.
func errorCode(err error) string {
	switch {
	case errors.Is(err, routing.ErrOutOfRange):
		return codeOutOfRange
	case errors.Is(err, routing.ErrNameNotFound):
		return codeNameNotFound
	case errors.Is(err, routing.ErrAmbiguousName):
		return codeAmbiguousName
	case errors.Is(err, matrix.ErrUnreachable):
		return codeUnreachable
	case errors.Is(err, matrix.ErrBadStatus):
		return codeBadStatus
	case errors.Is(err, matrix.ErrParse):
		return codeParse
	default:
		return codeUnknown
	}
}

// statusForError maps an error class to an HTTP status: resolution and
// validation failures are the client's fault (400), a device that answers
// garbage or an error status is a bad gateway (502), a device that does
// not answer at all is service-unavailable (503).
func statusForError(err error) int {
	switch errorCode(err) {
	case codeOutOfRange, codeNameNotFound, codeAmbiguousName:
		return http.StatusBadRequest
	case codeUnreachable:
		return http.StatusServiceUnavailable
	case codeBadStatus, codeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

//
// ----- Helpers -----

// bind strictly decodes a JSON request body: unknown fields rejected.
func bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	return decodeJSON(req.Body, obj)
}

func decodeJSON(r io.Reader, obj any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(obj); err != nil {
		return err
	}
	return nil
}
