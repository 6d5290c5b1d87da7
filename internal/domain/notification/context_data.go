// internal/domain/notification/context_data.go
package notification

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidContextData is returned when a payload does not match its event type.
var ErrInvalidContextData = errors.New("invalid notification context data")

// ContextData is the structured payload stored with a lifecycle notification.
// The detail section is keyed by EventType: vaccinations carry Vaccination,
// checkups and screenings carry Checkup, never both.
type ContextData struct {
	EventCode      string `json:"eventCode" validate:"required"`
	EventName      string `json:"eventName" validate:"required"`
	EventType      string `json:"eventType" validate:"required,oneof=vaccination checkup screening"`
	DaysUntil      int    `json:"daysUntil"`
	LeadDays       int    `json:"leadDays" validate:"min=0"`
	RemindAt       string `json:"remindAt" validate:"required,datetime=2006-01-02"`
	Stage          string `json:"stage" validate:"required,oneof=infant adolescent adult elderly"`
	AgeMonths      int    `json:"ageMonths" validate:"min=0"`
	CatalogVersion string `json:"catalogVersion" validate:"required"`

	Vaccination *VaccinationDetails `json:"vaccination,omitempty" validate:"omitempty"`
	Checkup     *CheckupDetails     `json:"checkup,omitempty" validate:"omitempty"`
}

type VaccinationDetails struct {
	Series     string `json:"series" validate:"required"`
	DoseNumber int    `json:"doseNumber" validate:"min=1"`
}

type CheckupDetails struct {
	Program string `json:"program" validate:"required"`
}

var contextValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field rules and that exactly the detail section matching
// EventType is present.
func (c ContextData) Validate() error {
	if err := contextValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContextData, err)
	}
	if c.EventType == "vaccination" {
		if c.Vaccination == nil || c.Checkup != nil {
			return fmt.Errorf("%w: vaccination payload requires only vaccination details", ErrInvalidContextData)
		}
		return nil
	}
	if c.Checkup == nil || c.Vaccination != nil {
		return fmt.Errorf("%w: %s payload requires only checkup details", ErrInvalidContextData, c.EventType)
	}
	return nil
}

// Marshal validates and encodes the payload for the jsonb column.
func (c ContextData) Marshal() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

// UnmarshalContextData decodes a stored payload.
func UnmarshalContextData(raw []byte) (ContextData, error) {
	var c ContextData
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidContextData, err)
	}
	return c, nil
}
