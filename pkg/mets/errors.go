package mets

import "emperror.dev/errors"

// error kinds, test with errors.Is
var (
	ErrConstruction = errors.New("invalid construction")
	ErrReference    = errors.New("invalid reference")
	ErrParse        = errors.New("cannot parse mets")
	ErrSerialize    = errors.New("cannot serialize mets")
	ErrDomain       = errors.New("domain violation")
)
