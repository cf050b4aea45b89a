package mets

import (
	"emperror.dev/errors"
)

// Factory creates entries and metadata sections for one document. It owns
// the identifier space and the payload decoders.
type Factory struct {
	ids        *IDSpace
	decoders   map[string]DecodeFunc
	generation uint64
}

type FactoryOption func(*Factory)

// WithDecoder registers fn for payloads of the given MDTYPE.
func WithDecoder(mdtype string, fn DecodeFunc) FactoryOption {
	return func(f *Factory) {
		f.decoders[mdtype] = fn
	}
}

func WithDecoders(decoders map[string]DecodeFunc) FactoryOption {
	return func(f *Factory) {
		for mdtype, fn := range decoders {
			f.decoders[mdtype] = fn
		}
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		ids:      NewIDSpace(),
		decoders: map[string]DecodeFunc{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) IDs() *IDSpace {
	return f.ids
}

func (f *Factory) Decoder(mdtype string) (DecodeFunc, bool) {
	fn, ok := f.decoders[mdtype]
	return fn, ok
}

// Decode turns the first document of an mdWrap into a typed payload.
func (f *Factory) Decode(s *SubSection) (Metadata, error) {
	wrap, ok := s.contents.(*MDWrap)
	if !ok {
		return nil, errors.Wrapf(ErrReference, "%s does not embed its metadata", s.id)
	}
	fn, ok := f.decoders[wrap.Type]
	if !ok {
		return nil, errors.Wrapf(ErrReference, "no decoder for %s", wrap.Type)
	}
	md, err := fn(wrap.Document())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s of %s", wrap.Type, s.id)
	}
	return md, nil
}

// NewSubSection creates a record with a fresh identifier of its category.
func (f *Factory) NewSubSection(category Category, contents Contents) (*SubSection, error) {
	return newSubSection(f.ids, category, contents)
}

func (f *Factory) NewAMDSec() *AMDSec {
	return newAMDSec(f.ids)
}

// touch invalidates lookup indexes built over entries of this factory.
func (f *Factory) touch() {
	f.generation++
}
