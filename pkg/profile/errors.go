package profile

import "fmt"

// ErrorKind classifies why a profile field was rejected.
type ErrorKind string

const (
	KindInvalidEnsure ErrorKind = "invalid_ensure"
	KindInvalidType   ErrorKind = "invalid_type"
	KindInvalidFormat ErrorKind = "invalid_format"
	KindMissingField  ErrorKind = "missing_field"
)

// ValidationError reports the first rejected field of a profile. Validation
// is all-or-nothing per profile: a spec that fails any check produces no
// declarations at all. The profile name is part of the message so operators
// can locate the offending entry.
type ValidationError struct {
	Profile string
	Field   string
	Kind    ErrorKind
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindInvalidEnsure:
		return fmt.Sprintf("profile %q: ensure must be %q or %q", e.Profile, EnsurePresent, EnsureAbsent)
	case KindInvalidType:
		return fmt.Sprintf("profile %q: field %q has the wrong type", e.Profile, e.Field)
	case KindInvalidFormat:
		return fmt.Sprintf("profile %q: field %q is malformed", e.Profile, e.Field)
	case KindMissingField:
		return fmt.Sprintf("profile %q: field %q is required", e.Profile, e.Field)
	default:
		return fmt.Sprintf("profile %q: field %q is invalid", e.Profile, e.Field)
	}
}

func invalidEnsure(profile string) error {
	return &ValidationError{Profile: profile, Field: "ensure", Kind: KindInvalidEnsure}
}

func invalidType(profile, field string) error {
	return &ValidationError{Profile: profile, Field: field, Kind: KindInvalidType}
}

func invalidFormat(profile, field string) error {
	return &ValidationError{Profile: profile, Field: field, Kind: KindInvalidFormat}
}

func missingField(profile, field string) error {
	return &ValidationError{Profile: profile, Field: field, Kind: KindMissingField}
}
