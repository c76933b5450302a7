package workflow

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/kandev/dbchat/internal/common/errors"
)

type typeFamily int

const (
	familyText typeFamily = iota
	familyInteger
	familyFloat
	familyBoolean
)

var typeFamilies = map[string]typeFamily{
	"integer":   familyInteger,
	"int":       familyInteger,
	"int2":      familyInteger,
	"int4":      familyInteger,
	"int8":      familyInteger,
	"smallint":  familyInteger,
	"bigint":    familyInteger,
	"serial":    familyInteger,
	"bigserial": familyInteger,
	"tinyint":   familyInteger,
	"mediumint": familyInteger,

	"numeric":          familyFloat,
	"decimal":          familyFloat,
	"real":             familyFloat,
	"float":            familyFloat,
	"float4":           familyFloat,
	"float8":           familyFloat,
	"double":           familyFloat,
	"double precision": familyFloat,

	"boolean": familyBoolean,
	"bool":    familyBoolean,
}

// familyOf classifies a declared column type, ignoring case and any
// precision suffix such as (10,2).
func familyOf(dataType string) typeFamily {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return typeFamilies[t]
}

// Coerce converts raw input to the Go value bound for a column of dataType.
// Failures are validation errors; rejectionKey names the reply to send.
func Coerce(dataType, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch familyOf(dataType) {
	case familyInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, apperrors.Validation("value", "not an integer")
		}
		return n, nil
	case familyFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, apperrors.Validation("value", "not a number")
		}
		return f, nil
	case familyBoolean:
		switch strings.ToLower(s) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, apperrors.Validation("value", "not a boolean")
	default:
		return s, nil
	}
}

// rejectionKey returns the message key explaining why Coerce rejected a value
// for dataType.
func rejectionKey(dataType string) string {
	switch familyOf(dataType) {
	case familyInteger:
		return "invalid_integer"
	case familyFloat:
		return "invalid_float"
	case familyBoolean:
		return "invalid_boolean"
	default:
		return "invalid_identifier"
	}
}
