package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is shared across handlers. Constructing a validator caches
// struct metadata, so one instance serves the whole API surface.
var validate = validator.New()

// Validatable is implemented by request types whose rules go beyond what
// struct tags can express.
type Validatable interface {
	Validate() error
}

// DecodeJSON reads the request body into dst. The decoder drains the body;
// callers never rewind or close it themselves.
func DecodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// ValidateRequest runs dst's own Validate method when it has one, otherwise
// the struct-tag validator.
func ValidateRequest(dst any) error {
	if v, ok := dst.(Validatable); ok {
		return v.Validate()
	}
	return validate.Struct(dst)
}
