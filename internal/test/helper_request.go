package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SafeMPC/mint-service/internal/api"
	"github.com/SafeMPC/mint-service/internal/api/httperrors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// GenericPayload 任意 JSON 请求体
type GenericPayload map[string]interface{}

// PerformRequest 直接调用 echo 处理请求
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, values := range headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)
	return res
}

// HeadersWithAuth 为用户签发令牌并返回 Authorization 头
func HeadersWithAuth(t *testing.T, s *api.Server, userID string) http.Header {
	t.Helper()

	token, err := s.JWT.Generate(userID, time.Hour)
	require.NoError(t, err)

	headers := http.Header{}
	headers.Set(echo.HeaderAuthorization, "Bearer "+token)
	return headers
}

// ParseResponseAndValidate 解析 JSON 响应
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
}

// RequireHTTPError 校验错误响应的状态码与类型
func RequireHTTPError(t *testing.T, res *httptest.ResponseRecorder, expected *httperrors.HTTPError) {
	t.Helper()

	require.Equal(t, int(*expected.Status), res.Code)

	var got httperrors.HTTPError
	ParseResponseAndValidate(t, res, &got)
	require.NotNil(t, got.Type)
	require.Equal(t, *expected.Type, *got.Type)
}
