package httperrors

import (
	"errors"
	"net/http"

	dErrors "fleetgate/pkg/domain-errors"
)

// ToHTTPStatus maps a domain error code to an HTTP status so transport
// handlers never invent status codes ad hoc.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeOrgNotOperational:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves the HTTP status for any error. Non-domain errors map to 500.
func StatusFor(err error) int {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return ToHTTPStatus(de.Code)
	}
	return http.StatusInternalServerError
}

// CodeFor extracts the stable domain code for any error, defaulting to internal_error.
func CodeFor(err error) dErrors.Code {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return dErrors.CodeInternal
}
