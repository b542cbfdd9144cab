package vite

import (
	"errors"
	"fmt"
)

//go:generate go tool golang.org/x/tools/cmd/stringer -type=Kind -linecomment

// Kind is the kind of asset being emitted.
type Kind int

const (
	KindUnknown Kind = iota // unknown
	Stylesheet              // stylesheet
	Script                  // script
)

var ErrInvalidKind = errors.New("vite: invalid asset kind, must be stylesheet or script")

// Valid reports ErrInvalidKind for anything but Stylesheet and Script.
func (k Kind) Valid() error {
	switch k {
	case Stylesheet, Script:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidKind, k)
	}
}

// ParseKind parses the names used in config files, query strings and flags.
func ParseKind(s string) (Kind, error) {
	switch s {
	case Stylesheet.String():
		return Stylesheet, nil
	case Script.String():
		return Script, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}
