package httperrors_test

import (
	"net/http"
	"testing"

	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/infra/invocation"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	"github.com/SafeMPC/mint-service/internal/infra/submission"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewFromClaimError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind types.PublicHTTPErrorType
	}{
		{errors.Wrap(mint.ErrResourceNotFound, "user u1"), http.StatusNotFound, types.PublicHTTPErrorTypeResourceNotFound},
		{mint.ErrWalletNotLinked, http.StatusUnprocessableEntity, types.PublicHTTPErrorTypeWalletNotLinked},
		{mint.ErrPasskeyRequired, http.StatusUnprocessableEntity, types.PublicHTTPErrorTypePasskeyRequired},
		{mint.ErrNotEnoughSupply, http.StatusConflict, types.PublicHTTPErrorTypeNotEnoughSupply},
		{mint.ErrAlreadyClaimed, http.StatusConflict, types.PublicHTTPErrorTypeAlreadyClaimed},
		{mint.ErrDuplicateAttempt, http.StatusConflict, types.PublicHTTPErrorTypeDuplicateAttempt},
		{&invocation.SimulationError{Pass: invocation.SecondPass, Message: "auth"}, http.StatusBadGateway, types.PublicHTTPErrorTypeSimulationFailed},
		{&submission.SubmitError{Status: "FAILED"}, http.StatusBadGateway, types.PublicHTTPErrorTypeSubmitFailed},
		{errors.New("boom"), http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := httperrors.NewFromClaimError(tt.err)
			assert.Equal(t, int64(tt.code), *e.Status)
			assert.Equal(t, tt.kind, *e.Type)
			assert.Equal(t, tt.err, e.Internal)
		})
	}
}
