package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Form is the create/edit form. Values are kept as typed, the way an HTML
// form would hold them; the API accepts numeric strings for the mark.
type Form struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Mark  string `json:"mark"`
}

// Field names accepted by SetField.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
	FieldMark  = "mark"
)

// ErrMarkAboveMax is returned by SetField for a mark entry above 100. The
// entry is dropped and the form keeps its previous mark.
var ErrMarkAboveMax = errors.New("mark cannot be greater than 100")

// Set assigns value to the named field.
func (f *Form) Set(field, value string) error {
	switch strings.ToLower(field) {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPhone:
		f.Phone = value
	case FieldMark:
		// Only an entry that reads as a number above 100 is stopped here;
		// everything else is left for the server to judge.
		if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && v > 100 {
			return ErrMarkAboveMax
		}
		f.Mark = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}
