package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// HealthStatus 健康检查结果
type HealthStatus struct {
	// Required: true
	Status *string `json:"status"`

	// 各依赖的检查结果（ok 或错误信息）
	Checks map[string]string `json:"checks,omitempty"`

	// Format: date-time
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

// Validate validates HealthStatus
func (m *HealthStatus) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("status", "body", m.Status); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *HealthStatus) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}
