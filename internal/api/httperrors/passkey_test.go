package httperrors_test

import (
	"net/http"
	"testing"

	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/infra/webauthn"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewFromPasskeyError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind types.PublicHTTPErrorType
	}{
		{webauthn.ErrUnknownUser, http.StatusNotFound, types.PublicHTTPErrorTypeResourceNotFound},
		{webauthn.ErrSessionNotFound, http.StatusBadRequest, types.PublicHTTPErrorTypeRegistrationSession},
		{errors.Wrap(webauthn.ErrInvalidCredential, "origin mismatch"), http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidCredential},
		{webauthn.ErrPasskeyExists, http.StatusConflict, types.PublicHTTPErrorTypePasskeyExists},
		{errors.New("redis down"), http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := httperrors.NewFromPasskeyError(tt.err)
			assert.Equal(t, int64(tt.code), *e.Status)
			assert.Equal(t, tt.kind, *e.Type)
		})
	}
}
