package vector

import "errors"

var (
	ErrUnknownHandler  = errors.New("binding names no vector slot")
	ErrMissingHandler  = errors.New("required handler is not defined")
	ErrDuplicateSlot   = errors.New("duplicate vector name")
	ErrMalformedLayout = errors.New("malformed vector layout")
	ErrNoDefault       = errors.New("no default handler")
	ErrNotCallable     = errors.New("vector entry is not callable")
	ErrNoSuchVector    = errors.New("exception number out of range")
	ErrUndefinedSymbol = errors.New("undefined symbol")
)
