package httperrors

import (
	"net/http"

	"github.com/SafeMPC/mint-service/internal/infra/expiration"
	"github.com/SafeMPC/mint-service/internal/infra/invocation"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	"github.com/SafeMPC/mint-service/internal/infra/submission"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/pkg/errors"
)

var claimErrors = []struct {
	target error
	code   int
	kind   types.PublicHTTPErrorType
	title  string
}{
	{mint.ErrResourceNotFound, http.StatusNotFound, types.PublicHTTPErrorTypeResourceNotFound, "User or collection not found."},
	{mint.ErrWalletNotLinked, http.StatusUnprocessableEntity, types.PublicHTTPErrorTypeWalletNotLinked, "No wallet is linked to this account."},
	{mint.ErrPasskeyRequired, http.StatusUnprocessableEntity, types.PublicHTTPErrorTypePasskeyRequired, "A registered passkey is required."},
	{mint.ErrNotEnoughSupply, http.StatusConflict, types.PublicHTTPErrorTypeNotEnoughSupply, "Collection supply is exhausted."},
	{mint.ErrAlreadyClaimed, http.StatusConflict, types.PublicHTTPErrorTypeAlreadyClaimed, "NFT already claimed for this session."},
	{mint.ErrDuplicateAttempt, http.StatusConflict, types.PublicHTTPErrorTypeDuplicateAttempt, "A mint for this session is already in progress."},
	{invocation.ErrSimulationFailed, http.StatusBadGateway, types.PublicHTTPErrorTypeSimulationFailed, "Contract simulation failed."},
	{submission.ErrSubmitFailed, http.StatusBadGateway, types.PublicHTTPErrorTypeSubmitFailed, "Transaction submission failed."},
	{expiration.ErrLedgerEntryNotFound, http.StatusBadGateway, types.PublicHTTPErrorTypeLedgerUnavailable, "Contract instance not found on ledger."},
}

// NewFromClaimError 将铸造流程错误映射为 HTTP 错误；未知错误为 500
func NewFromClaimError(err error) *HTTPError {
	for _, ce := range claimErrors {
		if errors.Is(err, ce.target) {
			e := NewHTTPError(ce.code, ce.kind, ce.title)
			e.Internal = err
			return e
		}
	}

	e := NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
	e.Internal = err
	return e
}
