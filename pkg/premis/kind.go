package premis

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
)

// Default supplies a field value if the caller gives none. Func is called
// for every construction when Value is empty.
type Default struct {
	Value string
	Func  func() any
}

func (d Default) resolve() any {
	if d.Value != "" || d.Func == nil {
		return d.Value
	}
	return d.Func()
}

func Literal(value string) Default {
	return Default{Value: value}
}

func Generated(fn func() any) Default {
	return Default{Func: fn}
}

// Now returns the current UTC time without fractional seconds.
func Now() any {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}

func NewUUID() any {
	return uuid.NewString()
}

func emptyList() any {
	return []*Element{}
}

// Kind is a registered schema with defaults and required fields. The path
// table is built once on creation.
type Kind struct {
	Name     string
	Version  string
	Schema   *Schema
	Defaults map[string]Default
	Required []string
	paths    Paths
}

func NewKind(name, version string, schema *Schema, defaults map[string]Default, required ...string) *Kind {
	return &Kind{
		Name:     name,
		Version:  version,
		Schema:   schema,
		Defaults: defaults,
		Required: required,
		paths:    PathsOf(schema),
	}
}

func (k *Kind) Paths() Paths {
	return k.paths
}

type options struct {
	strict bool
	attrs  map[string]string
}

type Option func(*options)

// Strict makes construction fail if a required field has no value.
func Strict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithAttr sets an additional attribute on the root element.
func WithAttr(name, value string) Option {
	return func(o *options) {
		if o.attrs == nil {
			o.attrs = map[string]string{}
		}
		o.attrs[name] = value
	}
}

// New generates a record from field values and the defaults of the kind.
// Field names are those of Paths, "xsi_type" sets the xsi:type attribute.
func (k *Kind) New(values Values, opts ...Option) (*Record, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	attrs, err := Meta(k.Version)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for name, value := range o.attrs {
		attrs[name] = value
	}

	resolved := Values{}
	// full paths win over short names
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(strings.Count(a, "/")-strings.Count(b, "/"), strings.Compare(a, b))
	})
	for _, name := range names {
		value := values[name]
		if name == "xsi_type" {
			if s, ok := value.(string); ok && s != "" {
				attrs["xsi:type"] = s
			}
			continue
		}
		path, ok := k.paths.Resolve(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownField, "%s has no field '%s'", k.Name, name)
		}
		resolved[path] = value
	}
	for name, def := range k.Defaults {
		path, ok := k.paths.Resolve(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownField, "default for unknown field '%s' of %s", name, k.Name)
		}
		if _, ok := resolved[path]; !ok {
			resolved[path] = def.resolve()
		}
	}
	if o.strict {
		for _, name := range k.Required {
			path, _ := k.paths.Resolve(name)
			if isZero(resolved[path]) {
				return nil, errors.Wrapf(ErrConstruction, "%s requires '%s'", k.Name, name)
			}
		}
	}
	return &Record{
		kind: k,
		data: GenerateData(k.Schema, resolved, attrs),
	}, nil
}

// Wrap binds an existing tree to the kind.
func (k *Kind) Wrap(el *Element) *Record {
	return &Record{kind: k, data: el}
}

// derivedKind describes an element of unknown shape.
func derivedKind(el *Element, version string) *Kind {
	return NewKind(el.Tag, version, SchemaOf(el), nil)
}
