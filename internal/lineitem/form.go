package lineitem

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

// FormValue is a string that also accepts a bare JSON number, since clients
// submit orderId, priority and rate as either.
type FormValue string

// UnmarshalJSON accepts a JSON string, number or null.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

// Form is the inbound line-item creation request. Field names mirror the
// legacy web form this tool replaces.
type Form struct {
	OrderID      FormValue `json:"orderId"`
	LineItemName string    `json:"lineItemName"`
	Sizes        string    `json:"sizes"`
	Type         string    `json:"type"`
	Priority     FormValue `json:"priority"`
	Rate         FormValue `json:"rate"`
	Start        string    `json:"start"`
	End          string    `json:"end"`

	IsVideo        bool `json:"isVideo"`
	Cents          bool `json:"cents"`
	SameAdvertiser bool `json:"sameAdvertiser"`

	Keys      []string `json:"keys"`
	Values    []string `json:"values"`
	Operators []string `json:"operators"`
}

// Validate checks every required field is present and non-empty, failing
// with a ValidationError naming the first offender.
func (f *Form) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"orderId", string(f.OrderID)},
		{"lineItemName", f.LineItemName},
		{"sizes", f.Sizes},
		{"type", f.Type},
		{"priority", string(f.Priority)},
		{"rate", string(f.Rate)},
	}
	for _, field := range required {
		if field.value == "" {
			return models.NewValidationError(field.name)
		}
	}
	return nil
}

func (f *Form) orderID() (int64, error) {
	id, err := strconv.ParseInt(string(f.OrderID), 10, 64)
	if err != nil {
		return 0, &models.ValidationError{Field: "orderId", Reason: "not a number"}
	}
	return id, nil
}

func (f *Form) priority() (int, error) {
	p, err := strconv.Atoi(string(f.Priority))
	if err != nil {
		return 0, &models.ValidationError{Field: "priority", Reason: "not a number"}
	}
	return p, nil
}

func (f *Form) rate() (float64, error) {
	r, err := strconv.ParseFloat(string(f.Rate), 64)
	if err != nil {
		return 0, &models.ValidationError{Field: "rate", Reason: "not a number"}
	}
	return r, nil
}
