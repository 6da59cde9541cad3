// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

// DefaultMaxBodyBytes applies when JSON is called with a non-positive limit.
const DefaultMaxBodyBytes int64 = 4 << 20

var (
	// ErrBodyTooLarge is wrapped when the body exceeds the limit.
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrInvalidJSON is wrapped when the body is not a single JSON value.
	ErrInvalidJSON = errors.New("invalid JSON")
)

// JSON decodes one JSON value from r.Body into dest, reading at most
// maxBytes, then validates dest. A decode failure returns a nil Errors and
// an error wrapping ErrBodyTooLarge or ErrInvalidJSON.
func JSON(w http.ResponseWriter, r *http.Request, dest any, maxBytes int64) (validate.Errors, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))

	if err := dec.Decode(dest); err != nil {
		return nil, decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the JSON value")
		}
		return nil, decodeError(err)
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w (max %d bytes)", ErrBodyTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
}
