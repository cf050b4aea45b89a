package premis

import (
	"maps"
	"strings"
)

// Node is a child of an Element: either *Element or Text.
type Node interface {
	node()
}

// Text is scalar content of an element.
type Text string

func (Text) node() {}

// Element is a PREMIS element as a tree. Tags and attribute names are
// snake_case, foreign names carry a "prefix:" in front.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Children []Node
}

func (*Element) node() {}

func NewElement(tag string, children ...Node) *Element {
	return &Element{Tag: tag, Children: children}
}

// NewLeaf creates an element holding only text.
func NewLeaf(tag, text string) *Element {
	return &Element{Tag: tag, Children: []Node{Text(text)}}
}

func (e *Element) SetAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[name] = value
	return e
}

func (e *Element) Append(children ...Node) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Elements returns the element children in order.
func (e *Element) Elements() []*Element {
	var result []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			result = append(result, el)
		}
	}
	return result
}

// Text joins the scalar children with a blank. ok is false if there are none.
func (e *Element) Text() (text string, ok bool) {
	var texts []string
	for _, c := range e.Children {
		if t, isText := c.(Text); isText {
			texts = append(texts, string(t))
		}
	}
	if len(texts) == 0 {
		return "", false
	}
	return strings.Join(texts, " "), true
}

// IsEmpty reports whether the element carries neither attributes nor any
// non-empty text below it.
func (e *Element) IsEmpty() bool {
	if len(e.Attrs) > 0 {
		return false
	}
	for _, c := range e.Children {
		switch n := c.(type) {
		case Text:
			if strings.TrimSpace(string(n)) != "" {
				return false
			}
		case *Element:
			if !n.IsEmpty() {
				return false
			}
		}
	}
	return true
}

func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{Tag: e.Tag}
	if e.Attrs != nil {
		c.Attrs = maps.Clone(e.Attrs)
	}
	for _, child := range e.Children {
		switch n := child.(type) {
		case Text:
			c.Children = append(c.Children, n)
		case *Element:
			c.Children = append(c.Children, n.Clone())
		}
	}
	return c
}

// Equal compares tags, attribute sets and ordered children.
func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Tag != o.Tag || len(e.Attrs) != len(o.Attrs) || len(e.Children) != len(o.Children) {
		return false
	}
	if !maps.Equal(e.Attrs, o.Attrs) {
		return false
	}
	for i, child := range e.Children {
		switch n := child.(type) {
		case Text:
			t, ok := o.Children[i].(Text)
			if !ok || t != n {
				return false
			}
		case *Element:
			el, ok := o.Children[i].(*Element)
			if !ok || !n.Equal(el) {
				return false
			}
		}
	}
	return true
}

// Find returns the first element matching the slash separated path of
// child tags, or nil.
func (e *Element) Find(path string) *Element {
	current := e
	for _, step := range strings.Split(path, "/") {
		var next *Element
		for _, c := range current.Elements() {
			if c.Tag == step {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// FindAll returns every element reachable through path, following all
// matching branches.
func (e *Element) FindAll(path string) []*Element {
	steps := strings.Split(path, "/")
	var matched []*Element
	for _, c := range e.Elements() {
		if c.Tag == steps[0] {
			matched = append(matched, c)
		}
	}
	if len(steps) == 1 {
		return matched
	}
	var result []*Element
	rest := strings.Join(steps[1:], "/")
	for _, m := range matched {
		result = append(result, m.FindAll(rest)...)
	}
	return result
}

// FindText returns the text of the first element at path, "" if missing.
func (e *Element) FindText(path string) string {
	el := e.Find(path)
	if el == nil {
		return ""
	}
	text, _ := el.Text()
	return text
}
