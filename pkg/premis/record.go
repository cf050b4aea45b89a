package premis

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

// Value is the result of a field access: Leaf or Nodes.
type Value interface {
	value()
}

// Leaf is the text of a field without element children.
type Leaf string

// Nodes are the subtrees matched by a field, each with a derived schema.
type Nodes []*Record

func (Leaf) value()  {}
func (Nodes) value() {}

// Record is a concrete PREMIS tree bound to a kind.
type Record struct {
	kind       *Kind
	data       *Element
	attributes map[string]string
}

func (r *Record) Kind() *Kind {
	return r.kind
}

// Data returns the underlying tree. It is the single source of truth of
// the record.
func (r *Record) Data() *Element {
	return r.data
}

func (r *Record) Tag() string {
	return r.data.Tag
}

// Version is taken from the version attribute, then from the kind.
func (r *Record) Version() string {
	if v, ok := r.data.Attrs["version"]; ok && v != "" {
		return v
	}
	if r.kind != nil && r.kind.Version != "" {
		return r.kind.Version
	}
	return DefaultVersion
}

func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.data.Equal(o.data)
}

func (r *Record) Find(path string) *Element {
	return r.data.Find(path)
}

func (r *Record) FindAll(path string) []*Element {
	return r.data.FindAll(path)
}

func (r *Record) FindText(path string) string {
	return r.data.FindText(path)
}

// attrs flattens every attribute of the tree. Qualified names are also
// reachable with "_" instead of ":" and without their prefix.
func (r *Record) attrs() map[string]string {
	if r.attributes != nil {
		return r.attributes
	}
	r.attributes = map[string]string{}
	set := func(key, value string) {
		if _, ok := r.attributes[key]; !ok {
			r.attributes[key] = value
		}
	}
	var walk func(el *Element)
	walk = func(el *Element) {
		for _, key := range slices.Sorted(maps.Keys(el.Attrs)) {
			value := el.Attrs[key]
			set(key, value)
			if prefix, local, found := strings.Cut(key, ":"); found {
				set(prefix+"_"+local, value)
				set(local, value)
			}
		}
		for _, c := range el.Elements() {
			walk(c)
		}
	}
	walk(r.data)
	return r.attributes
}

// Get resolves a field by name: first the path table (full paths may use
// "__" as separator), then the attributes of the tree.
func (r *Record) Get(name string) (Value, error) {
	if path, ok := r.kind.paths.Resolve(name); ok {
		return r.resolve(path), nil
	}
	attrs := r.attrs()
	if value, ok := attrs[strings.ReplaceAll(name, "__", ":")]; ok {
		return Leaf(value), nil
	}
	if value, ok := attrs[name]; ok {
		return Leaf(value), nil
	}
	return nil, errors.Wrapf(ErrUnknownField, "%s has no field '%s', valid fields are: %s",
		r.kind.Name, name, strings.Join(r.FieldNames(), ", "))
}

func (r *Record) resolve(path string) Value {
	if el := r.data.Find(path); el != nil {
		if text, ok := el.Text(); ok && text != "" {
			return Leaf(text)
		}
	}
	var nodes Nodes
	for _, el := range r.data.FindAll(path) {
		nodes = append(nodes, &Record{kind: derivedKind(el, r.Version()), data: el})
	}
	return nodes
}

// Text returns a field as text, "" for missing or structured fields.
func (r *Record) Text(name string) string {
	v, err := r.Get(name)
	if err != nil {
		return ""
	}
	if leaf, ok := v.(Leaf); ok {
		return string(leaf)
	}
	return ""
}

// All returns the subtrees of a field, nil for missing or text fields.
func (r *Record) All(name string) Nodes {
	v, err := r.Get(name)
	if err != nil {
		return nil
	}
	if nodes, ok := v.(Nodes); ok {
		return nodes
	}
	return nil
}

// FieldNames lists all names Get accepts.
func (r *Record) FieldNames() []string {
	set := map[string]bool{}
	for name, path := range r.kind.paths {
		set[name] = true
		set[strings.ReplaceAll(path, "/", "__")] = true
	}
	for key := range r.attrs() {
		set[strings.ReplaceAll(key, ":", "_")] = true
	}
	return slices.Sorted(maps.Keys(set))
}

// Identifier returns the value of the first identifier of the record.
func (r *Record) Identifier() string {
	for _, name := range []string{"identifier_value", "statement_identifier_value"} {
		if _, ok := r.kind.paths[name]; ok {
			return r.Text(name)
		}
	}
	return ""
}

// Serialize encodes the record in the namespace of its version.
func (r *Record) Serialize() (*etree.Element, error) {
	x, err := ToXML(r.data, r.Version())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot serialize premis %s", r.kind.Name)
	}
	return x, nil
}

func (r *Record) String() string {
	doc := etree.NewDocument()
	x, err := r.Serialize()
	if err != nil {
		return fmt.Sprintf("<invalid %s: %v>", r.Tag(), err)
	}
	doc.SetRoot(x)
	doc.Indent(2)
	s, _ := doc.WriteToString()
	return s
}

// Parse decodes a record of the kind named by the root tag. Unknown root
// tags get a schema derived from the tree.
func Parse(x *etree.Element) (*Record, error) {
	el, err := FromXML(x)
	if err != nil {
		return nil, err
	}
	version := VersionOf(x)
	k, err := KindOf(el.Tag, version)
	if err != nil {
		k = derivedKind(el, version)
	}
	return k.Wrap(el), nil
}

// ParseKind decodes a record and checks that it is of kind name.
func ParseKind(name string, x *etree.Element) (*Record, error) {
	r, err := Parse(x)
	if err != nil {
		return nil, err
	}
	if r.Tag() != name {
		return nil, errors.Wrapf(ErrParse, "expected premis %s, got '%s'", name, r.Tag())
	}
	return r, nil
}
