package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyBody      = errors.New("response body is empty")
	errNotObject      = errors.New("response body is not a JSON object")
	errFieldMissing   = errors.New("response field is missing")
	errFieldNotScalar = errors.New("response field is not a scalar")
)

// decodeCapture extracts a top-level scalar field from a JSON object body.
// Strings are returned as-is, numbers by their literal text and booleans as
// "true"/"false". Null and blank strings count as missing; objects and arrays
// are rejected.
func decodeCapture(body []byte, field string) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", errEmptyBody
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return "", errNotObject
	}
	raw, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", errFieldMissing, field)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return "", errNotObject
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: %q is blank", errFieldMissing, field)
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "", fmt.Errorf("%w: %q is null", errFieldMissing, field)
	default:
		return "", fmt.Errorf("%w: %q", errFieldNotScalar, field)
	}
}
