package premis

import (
	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
)

var (
	ErrConstruction = mets.ErrConstruction
	ErrUnknownField = errors.New("unknown field")
	ErrVersion      = errors.New("unsupported premis version")
	ErrParse        = errors.New("cannot parse premis")
	ErrEventType    = errors.New("wrong event type")
)
