package premis

import (
	"fmt"
	"maps"
	"strings"
)

// Values holds the supplied field values keyed by path, tag or short name.
// A value is a string (or anything printable), an AttrValue, an *Element
// or a []*Element.
type Values map[string]any

// AttrValue is a scalar value with attributes on its element.
type AttrValue struct {
	Attrs map[string]string
	Value string
}

// GenerateData builds an element from schema. Where a value is supplied for
// a node it is taken verbatim, otherwise the children are generated and
// empty subtrees are dropped. attrs go to the root element only.
func GenerateData(schema *Schema, values Values, attrs map[string]string) *Element {
	root := &Element{Tag: schema.Tag}
	if len(attrs) > 0 {
		root.Attrs = maps.Clone(attrs)
	}
	for _, c := range schema.Children {
		for _, el := range generate(c, c.Tag, schema.Tag, values) {
			root.Children = append(root.Children, el)
		}
	}
	return root
}

func generate(s *Schema, path, rootTag string, values Values) []*Element {
	candidates := []string{path, s.Tag}
	if short, ok := strings.CutPrefix(s.Tag, rootTag+"_"); ok && short != "" {
		candidates = append(candidates, short)
	}
	for _, key := range candidates {
		if v, ok := values[key]; ok && !isZero(v) {
			return fromValue(s.Tag, v)
		}
	}
	el := &Element{Tag: s.Tag}
	for _, c := range s.Children {
		for _, child := range generate(c, path+"/"+c.Tag, rootTag, values) {
			el.Children = append(el.Children, child)
		}
	}
	if el.IsEmpty() {
		return nil
	}
	return []*Element{el}
}

func fromValue(tag string, v any) []*Element {
	switch val := v.(type) {
	case *Element:
		return []*Element{val.Clone()}
	case []*Element:
		result := make([]*Element, 0, len(val))
		for _, el := range val {
			result = append(result, el.Clone())
		}
		return result
	case AttrValue:
		el := NewElement(tag)
		if strings.TrimSpace(val.Value) != "" {
			el.Children = []Node{Text(val.Value)}
		}
		if len(val.Attrs) > 0 {
			el.Attrs = maps.Clone(val.Attrs)
		}
		return []*Element{el}
	case string:
		return []*Element{NewLeaf(tag, val)}
	default:
		return []*Element{NewLeaf(tag, fmt.Sprint(val))}
	}
}

func isZero(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case *Element:
		return val == nil
	case []*Element:
		return len(val) == 0
	case AttrValue:
		return strings.TrimSpace(val.Value) == "" && len(val.Attrs) == 0
	}
	return false
}
