package passkeys

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
	"github.com/go-webauthn/webauthn/protocol"
)

// PasskeyRegistrationOptions 传给 navigator.credentials.create() 的选项
type PasskeyRegistrationOptions struct {
	// Required: true
	Options *protocol.CredentialCreation `json:"options"`
}

// Validate validates PasskeyRegistrationOptions
func (m *PasskeyRegistrationOptions) Validate(formats strfmt.Registry) error {
	if err := validate.Required("options", "body", m.Options); err != nil {
		return err
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PasskeyRegistrationOptions) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// PasskeyRegistrationResponse 注册完成
type PasskeyRegistrationResponse struct {
	// Base64URL 凭证 ID
	// Required: true
	CredentialID *string `json:"credential_id"`

	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"created_at"`
}

// Validate validates PasskeyRegistrationResponse
func (m *PasskeyRegistrationResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("credential_id", "body", m.CredentialID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("created_at", "body", m.CreatedAt); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PasskeyRegistrationResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *PasskeyRegistrationResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PasskeyRegistrationResponse) UnmarshalBinary(b []byte) error {
	var res PasskeyRegistrationResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
