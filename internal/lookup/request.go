package lookup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/freezethaw-cli/internal/dataset"
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = eris.New("lookup: invalid request")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		return dataset.ValidSeason(fl.Field().String())
	})
	return v
}

// Request is a station lookup. An empty Season selects the most recent one;
// a zero MaxKM selects the service default.
type Request struct {
	State     string  `json:"state" yaml:"state" validate:"required"`
	Latitude  float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Longitude float64 `json:"lon" yaml:"lon" validate:"longitude"`
	Season    string  `json:"season,omitempty" yaml:"season,omitempty" validate:"omitempty,season"`
	MaxKM     float64 `json:"max_km,omitempty" yaml:"max_km,omitempty" validate:"gte=0"`
}

// Normalize trims whitespace from the text fields.
func (r *Request) Normalize() {
	r.State = strings.TrimSpace(r.State)
	r.Season = strings.TrimSpace(r.Season)
}

// Validate checks the request fields. Errors wrap ErrInvalidRequest.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return eris.Wrap(ErrInvalidRequest, err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return eris.Wrap(ErrInvalidRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "latitude":
		return "latitude must be between -90 and 90"
	case "longitude":
		return "longitude must be between -180 and 180"
	case "season":
		return fmt.Sprintf("season %q must look like YYYY-YYYY", fe.Value())
	case "gte":
		return "max_km must not be negative"
	default:
		return fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
}
