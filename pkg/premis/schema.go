package premis

import (
	"slices"
	"strings"
)

// Schema is the shape of an element without values.
type Schema struct {
	Tag      string
	Children []*Schema
}

// S is shorthand for building schemas.
func S(tag string, children ...*Schema) *Schema {
	return &Schema{Tag: tag, Children: children}
}

func (s *Schema) IsLeaf() bool {
	return len(s.Children) == 0
}

// SchemaOf derives a schema from a concrete element. Repeated children
// with the same tag are merged into one schema node.
func SchemaOf(el *Element) *Schema {
	s := &Schema{Tag: el.Tag}
	index := map[string]*Schema{}
	for _, c := range el.Elements() {
		child := SchemaOf(c)
		if prev, ok := index[c.Tag]; ok {
			mergeSchema(prev, child)
			continue
		}
		index[c.Tag] = child
		s.Children = append(s.Children, child)
	}
	return s
}

func mergeSchema(into, from *Schema) {
	for _, c := range from.Children {
		found := false
		for _, existing := range into.Children {
			if existing.Tag == c.Tag {
				mergeSchema(existing, c)
				found = true
				break
			}
		}
		if !found {
			into.Children = append(into.Children, c)
		}
	}
}

// Paths maps field names to slash separated paths relative to the root
// element.
type Paths map[string]string

// PathsOf derives the field names of a schema. Every leaf is reachable by
// its tag and by its full path, every ancestor by its tag. Names starting
// with the root tag are also reachable without that prefix. The first
// registration of a name wins.
func PathsOf(s *Schema) Paths {
	paths := Paths{}
	prefix := s.Tag + "_"
	register := func(name, path string) {
		if _, ok := paths[name]; !ok {
			paths[name] = path
		}
		if short, ok := strings.CutPrefix(name, prefix); ok && short != "" {
			if _, ok := paths[short]; !ok {
				paths[short] = path
			}
		}
	}
	var walk func(node *Schema, parents []string)
	walk = func(node *Schema, parents []string) {
		chain := append(slices.Clone(parents), node.Tag)
		if node.IsLeaf() {
			path := strings.Join(chain, "/")
			register(node.Tag, path)
			if _, ok := paths[path]; !ok {
				paths[path] = path
			}
			for i := len(chain) - 1; i > 0; i-- {
				register(chain[i-1], strings.Join(chain[:i], "/"))
			}
			return
		}
		for _, c := range node.Children {
			walk(c, chain)
		}
	}
	for _, c := range s.Children {
		walk(c, nil)
	}
	return paths
}

// Resolve maps a field name to its path. Full paths may use "__" instead
// of "/".
func (p Paths) Resolve(name string) (string, bool) {
	if path, ok := p[name]; ok {
		return path, true
	}
	translated := strings.ReplaceAll(name, "__", "/")
	for _, path := range p {
		if path == translated {
			return path, true
		}
	}
	return "", false
}

// Names returns all field names, sorted.
func (p Paths) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
