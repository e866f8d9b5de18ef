package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// PublicHTTPErrorType 对外暴露的错误类型
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric             PublicHTTPErrorType = "generic"
	PublicHTTPErrorTypeMalformedBody       PublicHTTPErrorType = "MALFORMED_BODY"
	PublicHTTPErrorTypeInvalidToken        PublicHTTPErrorType = "INVALID_TOKEN"
	PublicHTTPErrorTypeResourceNotFound    PublicHTTPErrorType = "RESOURCE_NOT_FOUND"
	PublicHTTPErrorTypeWalletNotLinked     PublicHTTPErrorType = "WALLET_NOT_LINKED"
	PublicHTTPErrorTypePasskeyRequired     PublicHTTPErrorType = "PASSKEY_REQUIRED"
	PublicHTTPErrorTypeNotEnoughSupply     PublicHTTPErrorType = "NOT_ENOUGH_SUPPLY"
	PublicHTTPErrorTypeAlreadyClaimed      PublicHTTPErrorType = "ALREADY_CLAIMED"
	PublicHTTPErrorTypeDuplicateAttempt    PublicHTTPErrorType = "DUPLICATE_ATTEMPT"
	PublicHTTPErrorTypeSimulationFailed    PublicHTTPErrorType = "SIMULATION_FAILED"
	PublicHTTPErrorTypeSubmitFailed        PublicHTTPErrorType = "SUBMIT_FAILED"
	PublicHTTPErrorTypeLedgerUnavailable   PublicHTTPErrorType = "LEDGER_ENTRY_NOT_FOUND"
	PublicHTTPErrorTypeRegistrationSession PublicHTTPErrorType = "REGISTRATION_SESSION_INVALID"
	PublicHTTPErrorTypeInvalidCredential   PublicHTTPErrorType = "INVALID_CREDENTIAL"
	PublicHTTPErrorTypePasskeyExists       PublicHTTPErrorType = "PASSKEY_EXISTS"
)

var publicHTTPErrorTypeEnum = []interface{}{
	PublicHTTPErrorTypeGeneric,
	PublicHTTPErrorTypeMalformedBody,
	PublicHTTPErrorTypeInvalidToken,
	PublicHTTPErrorTypeResourceNotFound,
	PublicHTTPErrorTypeWalletNotLinked,
	PublicHTTPErrorTypePasskeyRequired,
	PublicHTTPErrorTypeNotEnoughSupply,
	PublicHTTPErrorTypeAlreadyClaimed,
	PublicHTTPErrorTypeDuplicateAttempt,
	PublicHTTPErrorTypeSimulationFailed,
	PublicHTTPErrorTypeSubmitFailed,
	PublicHTTPErrorTypeLedgerUnavailable,
	PublicHTTPErrorTypeRegistrationSession,
	PublicHTTPErrorTypeInvalidCredential,
	PublicHTTPErrorTypePasskeyExists,
}

// Validate validates PublicHTTPErrorType
func (m PublicHTTPErrorType) Validate(formats strfmt.Registry) error {
	if err := validate.EnumCase("type", "body", m, publicHTTPErrorTypeEnum, true); err != nil {
		return err
	}
	return nil
}

// PublicHTTPError 错误响应
type PublicHTTPError struct {
	// 面向开发者的补充信息
	Detail string `json:"detail,omitempty"`

	// HTTP 状态码
	// Required: true
	Status *int64 `json:"status"`

	// 简短描述
	// Required: true
	Title *string `json:"title"`

	// Required: true
	Type *PublicHTTPErrorType `json:"type"`
}

// Validate validates PublicHTTPError
func (m *PublicHTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("status", "body", m.Status); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("title", "body", m.Title); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("type", "body", m.Type); err != nil {
		res = append(res, err)
	} else if err := m.Type.Validate(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PublicHTTPError) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *PublicHTTPError) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PublicHTTPError) UnmarshalBinary(b []byte) error {
	var res PublicHTTPError
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// HTTPValidationErrorDetail 单个字段的校验错误
type HTTPValidationErrorDetail struct {
	// Required: true
	Error *string `json:"error"`

	// Required: true
	In *string `json:"in"`

	// Required: true
	Key *string `json:"key"`
}

// Validate validates HTTPValidationErrorDetail
func (m *HTTPValidationErrorDetail) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("error", "body", m.Error); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("in", "body", m.In); err != nil {
		res = append(res, err)
	}
	if err := validate.Required("key", "body", m.Key); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PublicHTTPValidationError 请求体校验失败
type PublicHTTPValidationError struct {
	PublicHTTPError

	// Required: true
	ValidationErrors []*HTTPValidationErrorDetail `json:"validationErrors"`
}

// Validate validates PublicHTTPValidationError
func (m *PublicHTTPValidationError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.PublicHTTPError.Validate(formats); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("validationErrors", "body", m.ValidationErrors); err != nil {
		res = append(res, err)
	}
	for i, detail := range m.ValidationErrors {
		if detail == nil {
			continue
		}
		if err := detail.Validate(formats); err != nil {
			if ve, ok := err.(*errors.Validation); ok {
				return ve.ValidateName("validationErrors" + "." + swag.FormatInt64(int64(i)))
			}
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
