package httperrors

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/types"
)

var (
	ErrBadRequestMalformedBody  = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeMalformedBody, "Request body is not valid JSON.")
	ErrUnauthorizedInvalidToken = NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeInvalidToken, "Bearer token is missing, malformed or expired.")
)
