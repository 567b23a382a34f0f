package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConfig          = errors.New("config")
	ErrStore           = errors.New("store")
	ErrHistoryTrim     = errors.New("history trim")
	ErrNotify          = errors.New("notify")
	ErrMalformedRecord = errors.New("malformed record")
)

type FetchKind string

const (
	FetchTransport FetchKind = "transport"
	FetchDecode    FetchKind = "decode"
	FetchRemote    FetchKind = "remote"
)

// FetchError is returned by quote sources. Remote carries the upstream error list.
type FetchError struct {
	Kind   FetchKind
	Pair   Pair
	Remote []string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchRemote:
		return fmt.Sprintf("fetch %s: remote error: %s", e.Pair, strings.Join(e.Remote, "; "))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.Pair, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Pair, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchErrorKind returns the kind of a wrapped FetchError, or "" for anything else.
func FetchErrorKind(err error) FetchKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
