// Package validation checks decoded request payloads against declarative
// schemas. Validation stops at the first failing rule in declared field order.
package validation

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind separates absent input from input that is present but wrong.
type Kind int

const (
	KindMissing Kind = iota
	KindInvalid
)

const missingRequiredFields = "Missing required fields"

// Error is a single validation failure.
type Error struct {
	Kind    Kind
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// StatusCode maps missing fields to 400 and invalid values to 422.
func (e *Error) StatusCode() int {
	if e.Kind == KindMissing {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// PublicMessage is the message returned to the client.
func (e *Error) PublicMessage() string {
	if e.Kind == KindMissing {
		if e.Path == "" {
			return missingRequiredFields
		}
		return fmt.Sprintf("Missing '%s' field", e.Path)
	}
	return e.Message
}

// Missing reports an absent field. An empty path yields the generic message.
func Missing(path string) *Error {
	return &Error{Kind: KindMissing, Path: path}
}

// Invalid reports a present field whose value breaks a rule.
func Invalid(path, message string) *Error {
	return &Error{Kind: KindInvalid, Path: path, Message: message}
}

// Rule inspects a present value and returns a failure message, or "" when the
// value is acceptable. The full payload is available for cross-field rules.
type Rule func(value any, payload Payload) string

// Field declares one payload entry. Name may be a dotted path into nested objects.
type Field struct {
	Name     string
	Optional bool
	Rules    []Rule
}

// Required declares a field that must be present.
func Required(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

// Optional declares a field whose rules only run when it is present.
func Optional(name string, rules ...Rule) Field {
	return Field{Name: name, Optional: true, Rules: rules}
}

// Check is a schema-level rule evaluated after every field passed.
type Check func(payload Payload) *Error

// Schema is an ordered set of fields plus schema-level checks.
type Schema struct {
	Fields []Field
	Checks []Check
}

// NewSchema builds a schema from fields in declaration order.
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// With appends schema-level checks.
func (s Schema) With(checks ...Check) Schema {
	s.Checks = append(append([]Check(nil), s.Checks...), checks...)
	return s
}

// Validate returns the first failure, or nil when the payload is acceptable.
func (s Schema) Validate(payload Payload) error {
	if payload == nil {
		payload = Payload{}
	}

	for _, field := range s.Fields {
		value, present := payload.Lookup(field.Name)
		if !present {
			if field.Optional {
				continue
			}
			return Missing(field.Name)
		}
		for _, rule := range field.Rules {
			if message := rule(value, payload); message != "" {
				return Invalid(field.Name, message)
			}
		}
	}

	for _, check := range s.Checks {
		if err := check(payload); err != nil {
			return err
		}
	}
	return nil
}

// RequireOneOf fails with a pathless missing error unless at least one of the
// named fields holds a non-blank value.
func RequireOneOf(names ...string) Check {
	return func(payload Payload) *Error {
		for _, name := range names {
			if value, ok := payload.Lookup(name); ok {
				if s, isString := value.(string); !isString || strings.TrimSpace(s) != "" {
					return nil
				}
			}
		}
		return Missing("")
	}
}
