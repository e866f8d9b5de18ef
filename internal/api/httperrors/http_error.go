package httperrors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/SafeMPC/mint-service/internal/types"
	"github.com/go-openapi/errors"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
)

// HTTPError 带公开错误体的 HTTP 错误
type HTTPError struct {
	types.PublicHTTPError
	Internal error `json:"-"`
}

// HTTPValidationError 请求体校验错误
type HTTPValidationError struct {
	types.PublicHTTPValidationError
	Internal error `json:"-"`
}

// NewHTTPError 创建 HTTP 错误
func NewHTTPError(code int, errorType types.PublicHTTPErrorType, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Status: swag.Int64(int64(code)),
			Type:   &errorType,
			Title:  swag.String(title),
		},
	}
}

// NewHTTPErrorWithDetail 创建附带 detail 的 HTTP 错误
func NewHTTPErrorWithDetail(code int, errorType types.PublicHTTPErrorType, title string, detail string) *HTTPError {
	e := NewHTTPError(code, errorType, title)
	e.Detail = detail
	return e
}

// NewFromEcho 转换 echo 内置错误
func NewFromEcho(e *echo.HTTPError) *HTTPError {
	return NewHTTPError(e.Code, types.PublicHTTPErrorTypeGeneric, http.StatusText(e.Code))
}

// NewFromValidation 转换 go-openapi 校验错误
func NewFromValidation(err error) *HTTPValidationError {
	details := make([]*types.HTTPValidationErrorDetail, 0)
	collectValidationErrors(err, &details)

	errorType := types.PublicHTTPErrorTypeGeneric
	return &HTTPValidationError{
		PublicHTTPValidationError: types.PublicHTTPValidationError{
			PublicHTTPError: types.PublicHTTPError{
				Status: swag.Int64(http.StatusBadRequest),
				Type:   &errorType,
				Title:  swag.String(http.StatusText(http.StatusBadRequest)),
			},
			ValidationErrors: details,
		},
		Internal: err,
	}
}

func collectValidationErrors(err error, details *[]*types.HTTPValidationErrorDetail) {
	switch e := err.(type) {
	case *errors.CompositeError:
		for _, inner := range e.Errors {
			collectValidationErrors(inner, details)
		}
	case *errors.Validation:
		*details = append(*details, &types.HTTPValidationErrorDetail{
			Key:   swag.String(e.Name),
			In:    swag.String(e.In),
			Error: swag.String(e.Error()),
		})
	default:
		*details = append(*details, &types.HTTPValidationErrorDetail{
			Key:   swag.String("general"),
			In:    swag.String("body"),
			Error: swag.String(err.Error()),
		})
	}
}

func (e *HTTPError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTPError %d (%s): %s", *e.Status, *e.Type, *e.Title)
	if e.Detail != "" {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}
	if e.Internal != nil {
		fmt.Fprintf(&b, ", %v", e.Internal)
	}
	return b.String()
}

func (e *HTTPValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTPValidationError %d (%s): %s", *e.Status, *e.Type, *e.Title)
	for _, detail := range e.ValidationErrors {
		fmt.Fprintf(&b, " - %s", *detail.Error)
	}
	return b.String()
}
