package validation

import (
	"fmt"
	"mime/multipart"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const passwordSymbols = "#?!@$%^&*-"

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case *multipart.FileHeader:
		return "file"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func expectedString(value any) string {
	return "Expected string, received " + typeName(value)
}

// stringRule adapts a check on strings; non-string values fail with a type message.
func stringRule(check func(string) bool, message string) Rule {
	return func(value any, _ Payload) string {
		s, ok := value.(string)
		if !ok {
			return expectedString(value)
		}
		if !check(s) {
			return message
		}
		return ""
	}
}

// String requires a string value.
func String() Rule {
	return stringRule(func(string) bool { return true }, "")
}

// NonEmpty rejects blank strings.
func NonEmpty(message string) Rule {
	return stringRule(func(s string) bool { return strings.TrimSpace(s) != "" }, message)
}

// MinLen counts characters, not bytes.
func MinLen(n int, message string) Rule {
	return stringRule(func(s string) bool { return utf8.RuneCountInString(s) >= n }, message)
}

func MaxLen(n int, message string) Rule {
	return stringRule(func(s string) bool { return utf8.RuneCountInString(s) <= n }, message)
}

func Matches(re *regexp.Regexp, message string) Rule {
	return stringRule(re.MatchString, message)
}

// StrongPassword requires an upper and a lower case letter, a digit and a symbol
// from #?!@$%^&*- with at least six characters overall.
func StrongPassword(message string) Rule {
	return stringRule(isStrongPassword, message)
}

func isStrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < 6 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func Email(message string) Rule {
	return stringRule(func(s string) bool { return validate.Var(s, "required,email") == nil }, message)
}

func UUID(message string) Rule {
	return stringRule(IsUUID, message)
}

// IsUUID reports whether s is a canonical UUID.
func IsUUID(s string) bool {
	return validate.Var(s, "required,uuid") == nil
}

func OneOf(message string, allowed ...string) Rule {
	return stringRule(func(s string) bool { return slices.Contains(allowed, s) }, message)
}

// Boolean accepts JSON booleans and the form values "true" and "false".
func Boolean(message string) Rule {
	return func(value any, _ Payload) string {
		if _, ok := AsBool(value); ok {
			return ""
		}
		return message
	}
}

// PositiveInt accepts whole numbers above zero given as numbers or numeric strings.
func PositiveInt(message string) Rule {
	return func(value any, _ Payload) string {
		if n, ok := AsInt(value); ok && n > 0 {
			return ""
		}
		return message
	}
}

// Date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func Date(message string) Rule {
	return stringRule(func(s string) bool {
		_, ok := ParseDate(s)
		return ok
	}, message)
}

// EqualsField requires the value to equal another field of the payload.
func EqualsField(other, message string) Rule {
	return func(value any, payload Payload) string {
		otherValue, _ := payload.Lookup(other)
		want, ok := otherValue.(string)
		got, isString := value.(string)
		if !ok || !isString || want != got {
			return message
		}
		return ""
	}
}

// FileOptions bounds an uploaded file.
type FileOptions struct {
	MaxBytes int64
	// MIMETypes is the allow-list. Files without a declared type are accepted.
	MIMETypes []string
}

// File requires a non-empty upload within the size limit and of an allowed type.
func File(opts FileOptions) Rule {
	return func(value any, _ Payload) string {
		fh, ok := value.(*multipart.FileHeader)
		if !ok || fh == nil {
			return "Input not instance of File"
		}
		if fh.Size <= 0 {
			return "File required"
		}
		if opts.MaxBytes > 0 && fh.Size > opts.MaxBytes {
			return fmt.Sprintf("Max size %d bytes", opts.MaxBytes)
		}
		contentType := FileContentType(fh)
		if contentType != "" && len(opts.MIMETypes) > 0 && !slices.Contains(opts.MIMETypes, contentType) {
			return "Allowed types: " + strings.Join(opts.MIMETypes, ", ")
		}
		return ""
	}
}

// FileContentType returns the declared media type of an upload without parameters.
func FileContentType(fh *multipart.FileHeader) string {
	if fh == nil {
		return ""
	}
	contentType := fh.Header.Get("Content-Type")
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// AsBool converts booleans and "true"/"false" strings.
func AsBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// AsInt converts whole JSON numbers and numeric strings.
func AsInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ParseDate parses RFC 3339 timestamps and YYYY-MM-DD dates (UTC midnight).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
