package nfts

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// PostClaimNFTPayload 领取请求体
type PostClaimNFTPayload struct {
	// 合约元数据中的资源标识
	// Required: true
	// Max Length: 256
	Resource *string `json:"resource"`

	// Required: true
	// Max Length: 128
	SessionID *string `json:"session_id"`
}

// Validate validates PostClaimNFTPayload
func (m *PostClaimNFTPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validateResource(formats); err != nil {
		res = append(res, err)
	}

	if err := m.validateSessionID(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *PostClaimNFTPayload) validateResource(formats strfmt.Registry) error {
	if err := validate.Required("resource", "body", m.Resource); err != nil {
		return err
	}
	if err := validate.MinLength("resource", "body", *m.Resource, 1); err != nil {
		return err
	}
	if err := validate.MaxLength("resource", "body", *m.Resource, 256); err != nil {
		return err
	}
	return nil
}

func (m *PostClaimNFTPayload) validateSessionID(formats strfmt.Registry) error {
	if err := validate.Required("session_id", "body", m.SessionID); err != nil {
		return err
	}
	if err := validate.MinLength("session_id", "body", *m.SessionID, 1); err != nil {
		return err
	}
	if err := validate.MaxLength("session_id", "body", *m.SessionID, 128); err != nil {
		return err
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PostClaimNFTPayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *PostClaimNFTPayload) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PostClaimNFTPayload) UnmarshalBinary(b []byte) error {
	var res PostClaimNFTPayload
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// ClaimNFTResponse 领取结果
type ClaimNFTResponse struct {
	// Required: true
	TransactionHash *string `json:"transaction_hash"`

	// 十进制 token id；合约未返回整数时为空
	TokenID string `json:"token_id"`
}

// Validate validates ClaimNFTResponse
func (m *ClaimNFTResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("transaction_hash", "body", m.TransactionHash); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *ClaimNFTResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *ClaimNFTResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *ClaimNFTResponse) UnmarshalBinary(b []byte) error {
	var res ClaimNFTResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
