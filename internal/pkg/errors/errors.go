package errors

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid document name")
	ErrInvalidData = errors.New("invalid json")
	ErrIO          = errors.New("io failure")
	ErrRegenerate  = errors.New("index regeneration failed")
	ErrTooMany     = errors.New("too many requests")
	ErrTooLarge    = errors.New("payload too large")
)

// Kind is the discriminant reported next to an error message.
type Kind string

const (
	KindNone                Kind = ""
	KindNotFound            Kind = "not_found"
	KindInvalidName         Kind = "invalid_name"
	KindInvalidData         Kind = "invalid_data"
	KindIOFailure           Kind = "io_failure"
	KindRegenerationFailure Kind = "regeneration_failure"
	KindRateLimited         Kind = "rate_limited"
	KindTooLarge            Kind = "too_large"
	KindUnknown             Kind = "unknown"
)

// KindOf reports the most specific kind carried by err.
// Regeneration wins over the others since a regeneration error may wrap
// store errors raised while reading documents.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRegenerate):
		return KindRegenerationFailure
	case errors.Is(err, ErrInvalidName):
		return KindInvalidName
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidData):
		return KindInvalidData
	case errors.Is(err, ErrIO):
		return KindIOFailure
	case errors.Is(err, ErrTooMany):
		return KindRateLimited
	case errors.Is(err, ErrTooLarge):
		return KindTooLarge
	default:
		return KindUnknown
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidData(err error) bool {
	return errors.Is(err, ErrInvalidData)
}

func IsInvalidName(err error) bool {
	return errors.Is(err, ErrInvalidName)
}
