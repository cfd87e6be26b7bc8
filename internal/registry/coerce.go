package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

// MetadataPrefix reserves a key namespace that can never collide with
// domain columns. Such keys are always dropped before writing.
const MetadataPrefix = "_"

const dateLayout = "2006-01-02"

// CoerceFields converts the proposed field map into store-ready values.
// Undeclared keys and reserved metadata keys are dropped without error;
// declared keys are coerced per their field type.
func CoerceFields(kind *Kind, fields map[string]interface{}) (map[string]interface{}, error) {
	coerced := make(map[string]interface{}, len(fields))
	for key, raw := range fields {
		if strings.HasPrefix(key, MetadataPrefix) {
			continue
		}
		field, ok := kind.Field(key)
		if !ok {
			continue
		}
		value, err := coerceValue(field, raw)
		if err != nil {
			return nil, err
		}
		coerced[key] = value
	}
	return coerced, nil
}

func coerceValue(field Field, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch field.Type {
	case FieldDate:
		return coerceDate(field, raw)
	case FieldNumber:
		return coerceNumber(raw), nil
	case FieldEnum:
		return coerceEnum(field, raw)
	case FieldBool:
		return coerceBool(field, raw)
	default:
		return coerceString(field, raw)
	}
}

func coerceDate(field Field, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		if ts, err := time.Parse(dateLayout, trimmed); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
			return ts, nil
		}
		return nil, validationError(field.Name, "must be a YYYY-MM-DD date")
	default:
		return nil, validationError(field.Name, "must be a YYYY-MM-DD date")
	}
}

// coerceNumber tolerates partial input: blank or unparsable values fall
// back to zero instead of rejecting the whole mutation.
func coerceNumber(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func coerceEnum(field Field, raw interface{}) (interface{}, error) {
	value, ok := raw.(string)
	if !ok {
		return nil, validationError(field.Name, "must be a string")
	}
	trimmed := strings.TrimSpace(value)
	for _, allowed := range field.Enum {
		if strings.EqualFold(trimmed, allowed) {
			return allowed, nil
		}
	}
	return nil, validationError(field.Name, fmt.Sprintf("must be one of %s", strings.Join(field.Enum, ", ")))
}

func coerceBool(field Field, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, validationError(field.Name, "must be a boolean")
		}
		return parsed, nil
	default:
		return nil, validationError(field.Name, "must be a boolean")
	}
}

func coerceString(field Field, raw interface{}) (interface{}, error) {
	value, ok := raw.(string)
	if !ok {
		return nil, validationError(field.Name, "must be a string")
	}
	return strings.TrimSpace(value), nil
}

func validationError(fieldName, constraint string) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s %s", fieldName, constraint))
}
