package httperrors

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/infra/webauthn"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/pkg/errors"
)

var (
	ErrBadRequestMalformedCredential = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidCredential, "Credential response could not be parsed.")
)

var passkeyErrors = []struct {
	target error
	code   int
	kind   types.PublicHTTPErrorType
	title  string
}{
	{webauthn.ErrUnknownUser, http.StatusNotFound, types.PublicHTTPErrorTypeResourceNotFound, "User not found."},
	{webauthn.ErrSessionNotFound, http.StatusBadRequest, types.PublicHTTPErrorTypeRegistrationSession, "Registration session is unknown or expired."},
	{webauthn.ErrInvalidCredential, http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidCredential, "Passkey credential failed verification."},
	{webauthn.ErrPasskeyExists, http.StatusConflict, types.PublicHTTPErrorTypePasskeyExists, "Passkey is already registered."},
}

// NewFromPasskeyError 将 passkey 注册错误映射为 HTTP 错误；未知错误为 500
func NewFromPasskeyError(err error) *HTTPError {
	for _, pe := range passkeyErrors {
		if errors.Is(err, pe.target) {
			e := NewHTTPError(pe.code, pe.kind, pe.title)
			e.Internal = err
			return e
		}
	}

	e := NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
	e.Internal = err
	return e
}
