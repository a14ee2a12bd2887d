package errs

import (
	"errors"
	"net/http"
)

// Key is a stable, client-facing error identifier together with the HTTP
// status it maps to.
type Key struct {
	Name   string
	Status int
}

var (
	KeyRequestBodyInvalid    = Key{Name: "requestBodyInvalid", Status: http.StatusBadRequest}
	KeyEmailInvalid          = Key{Name: "emailInvalid", Status: http.StatusBadRequest}
	KeyPasswordInvalid       = Key{Name: "passwordInvalid", Status: http.StatusBadRequest}
	KeyEmailDomainNotAllowed = Key{Name: "emailDomainNotAllowed", Status: http.StatusBadRequest}
	KeyEmailTaken            = Key{Name: "emailTaken", Status: http.StatusConflict}
	KeyModifyNonexistent     = Key{Name: "modifyNonexistent", Status: http.StatusNotFound}
	KeyNotFound              = Key{Name: "notFound", Status: http.StatusNotFound}
	KeyUnauthorized          = Key{Name: "unauthorized", Status: http.StatusUnauthorized}
	KeyForbidden             = Key{Name: "forbidden", Status: http.StatusForbidden}
	KeyBadCredentials        = Key{Name: "badCredentials", Status: http.StatusUnauthorized}
	KeyVerificationInvalid   = Key{Name: "verificationInvalid", Status: http.StatusGone}
	KeyRateLimited           = Key{Name: "rateLimited", Status: http.StatusTooManyRequests}
	KeyInternal              = Key{Name: "internal", Status: http.StatusInternalServerError}
)

// KeyedError attaches a Key to an error chain.
type KeyedError struct {
	key Key
	err error
}

func (e *KeyedError) Error() string { return e.err.Error() }
func (e *KeyedError) Unwrap() error { return e.err }
func (e *KeyedError) Key() Key      { return e.key }

// Keyed tags err with key. The outermost tag wins when a chain carries several.
func Keyed(err error, key Key) error {
	if err == nil {
		return nil
	}
	return &KeyedError{key: key, err: err}
}

// KeyOf returns the first Key found in err's chain.
func KeyOf(err error) (Key, bool) {
	var ke *KeyedError
	if errors.As(err, &ke) {
		return ke.key, true
	}
	return Key{}, false
}
