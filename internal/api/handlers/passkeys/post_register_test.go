package passkeys_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/SafeMPC/mint-service/internal/infra/mint"
	"github.com/SafeMPC/mint-service/internal/infra/storage"
	"github.com/SafeMPC/mint-service/internal/test"
	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopMint struct{}

func (noopMint) Claim(ctx context.Context, req mint.ClaimRequest) (*mint.ClaimResult, error) {
	return nil, errors.New("not implemented")
}

func TestPostRegisterBegin(t *testing.T) {
	test.WithTestServer(t, noopMint{}, func(s *api.Server) {
		s.Store.(*storage.MemoryStore).PutUser(storage.User{ID: "user-1"})

		res := test.PerformRequest(t, s, http.MethodPost, "/api/v1/passkeys/register/begin", nil, test.HeadersWithAuth(t, s, "user-1"))
		require.Equal(t, http.StatusOK, res.Code)

		var response struct {
			Options struct {
				PublicKey struct {
					Challenge string `json:"challenge"`
					RP        struct {
						ID string `json:"id"`
					} `json:"rp"`
					User struct {
						Name string `json:"name"`
					} `json:"user"`
				} `json:"publicKey"`
			} `json:"options"`
		}
		test.ParseResponseAndValidate(t, res, &response)
		assert.NotEmpty(t, response.Options.PublicKey.Challenge)
		assert.Equal(t, s.Config.WebAuthn.RPID, response.Options.PublicKey.RP.ID)
		assert.Equal(t, "user-1", response.Options.PublicKey.User.Name)
	})
}

func TestPostRegisterBeginUnknownUser(t *testing.T) {
	test.WithTestServer(t, noopMint{}, func(s *api.Server) {
		res := test.PerformRequest(t, s, http.MethodPost, "/api/v1/passkeys/register/begin", nil, test.HeadersWithAuth(t, s, "nobody"))
		require.Equal(t, http.StatusNotFound, res.Code)

		var response httperrors.HTTPError
		test.ParseResponseAndValidate(t, res, &response)
		assert.Equal(t, types.PublicHTTPErrorTypeResourceNotFound, *response.Type)
	})
}

func TestPostRegisterRequiresToken(t *testing.T) {
	test.WithTestServer(t, noopMint{}, func(s *api.Server) {
		res := test.PerformRequest(t, s, http.MethodPost, "/api/v1/passkeys/register/begin", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrUnauthorizedInvalidToken)

		res = test.PerformRequest(t, s, http.MethodPost, "/api/v1/passkeys/register/finish", test.GenericPayload{}, nil)
		test.RequireHTTPError(t, res, httperrors.ErrUnauthorizedInvalidToken)
	})
}

func TestPostRegisterFinishMalformed(t *testing.T) {
	test.WithTestServer(t, noopMint{}, func(s *api.Server) {
		s.Store.(*storage.MemoryStore).PutUser(storage.User{ID: "user-1"})

		payload := test.GenericPayload{"id": "abc", "type": "public-key"}
		res := test.PerformRequest(t, s, http.MethodPost, "/api/v1/passkeys/register/finish", payload, test.HeadersWithAuth(t, s, "user-1"))
		test.RequireHTTPError(t, res, httperrors.ErrBadRequestMalformedCredential)

		passkeys, err := s.Store.ListPasskeys(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Empty(t, passkeys)
	})
}
