package searchdef

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrIO               ErrorKind = "io"
	ErrSQL              ErrorKind = "sql"
	ErrConfig           ErrorKind = "config"
	ErrSchema           ErrorKind = "schema"
	ErrDuplicateProfile ErrorKind = "duplicate_profile"
	ErrUnknownProfile   ErrorKind = "unknown_profile"
	ErrInheritanceCycle ErrorKind = "inheritance_cycle"
	ErrTypeFormat       ErrorKind = "type_format"
	ErrNotFound         ErrorKind = "not_found"
	ErrConflict         ErrorKind = "conflict"
)

// Error is the single error type returned by schema compilation and the
// config store. Schema, Profile and Field locate the offending declaration.
type Error struct {
	Kind    ErrorKind
	Message string
	Schema  string
	Profile string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	var loc []string
	if e.Schema != "" {
		loc = append(loc, "schema="+e.Schema)
	}
	if e.Profile != "" {
		loc = append(loc, "profile="+e.Profile)
	}
	if e.Field != "" {
		loc = append(loc, "field="+e.Field)
	}
	if len(loc) > 0 {
		base = fmt.Sprintf("%s (%s)", base, strings.Join(loc, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func SchemaError(schema, msg string) *Error {
	return &Error{Kind: ErrSchema, Schema: schema, Message: msg}
}

func DuplicateProfileError(schema, profile string) *Error {
	return &Error{Kind: ErrDuplicateProfile, Schema: schema, Profile: profile, Message: "rank profile already registered"}
}

func UnknownProfileError(schema, profile string) *Error {
	return &Error{Kind: ErrUnknownProfile, Schema: schema, Profile: profile, Message: "rank profile not found"}
}

// InheritanceCycleError reports the chain of profile names that closes the
// cycle, first name repeated at the end.
func InheritanceCycleError(schema string, members []string) *Error {
	return &Error{
		Kind:    ErrInheritanceCycle,
		Schema:  schema,
		Profile: members[0],
		Message: "inheritance cycle: " + strings.Join(members, " -> "),
	}
}

func TypeFormatError(field string, cause error) *Error {
	return &Error{Kind: ErrTypeFormat, Field: field, Message: "malformed type declaration", Cause: cause}
}

// InSchema stamps a schema name on err if it is an *Error without one.
func InSchema(err error, schema string) error {
	var e *Error
	if errors.As(err, &e) && e.Schema == "" {
		e.Schema = schema
	}
	return err
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
