// Package bind decodes and validates a JSON request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/canteen/pkg/validate"
)

// MaxBodyBytes caps every decoded body.
const MaxBodyBytes = 1 << 20

// JSON decodes r.Body into dest and runs its validate tags.
// It returns (errs, nil) when fields fail validation and (nil, err) when the
// body is malformed or too large.
func JSON(w http.ResponseWriter, r *http.Request, dest interface{}) (validate.Errors, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if errs := validate.Struct(dest); len(errs) > 0 {
		return errs, nil
	}
	return nil, nil
}
