package mets

import (
	"strings"

	"github.com/beevik/etree"
)

const (
	NSMETS  = "http://www.loc.gov/METS/"
	NSXLink = "http://www.w3.org/1999/xlink"
	NSXSI   = "http://www.w3.org/2001/XMLSchema-instance"

	SchemaLocation = "http://www.loc.gov/METS/ http://www.loc.gov/standards/mets/version111/mets.xsd"

	FileIDPrefix  = "file-"
	GroupIDPrefix = "Group-"

	timeFormat = "2006-01-02T15:04:05"
)

// Namespaces maps the prefixes used on the wire to their URIs.
var Namespaces = map[string]string{
	"mets":  NSMETS,
	"xlink": NSXLink,
	"xsi":   NSXSI,
}

// elementNS resolves the namespace of el, falling back to the well known
// prefixes for fragments without declarations.
func elementNS(el *etree.Element) string {
	if uri := el.NamespaceURI(); uri != "" {
		return uri
	}
	return Namespaces[el.Space]
}

// isMETS reports whether el is the METS element local.
func isMETS(el *etree.Element, local string) bool {
	if el == nil || el.Tag != local {
		return false
	}
	return elementNS(el) == NSMETS
}

// childrenMETS returns the METS child elements of el with the given local name.
func childrenMETS(el *etree.Element, local string) []*etree.Element {
	var result []*etree.Element
	for _, c := range el.ChildElements() {
		if isMETS(c, local) {
			result = append(result, c)
		}
	}
	return result
}

func firstMETS(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if isMETS(c, local) {
			return c
		}
	}
	return nil
}

// attrNS returns the value of the attribute local in namespace ns.
// Unprefixed attributes match when ns is empty.
func attrNS(el *etree.Element, ns, local string) (string, bool) {
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Key != local {
			continue
		}
		if ns == "" {
			if a.Space == "" {
				return a.Value, true
			}
			continue
		}
		uri := a.NamespaceURI()
		if uri == "" {
			uri = Namespaces[a.Space]
		}
		if uri == ns {
			return a.Value, true
		}
	}
	return "", false
}

func attr(el *etree.Element, local string) string {
	v, _ := attrNS(el, "", local)
	return v
}

// nsScope collects the namespace declarations visible at el.
func nsScope(el *etree.Element) map[string]string {
	var chain []*etree.Element
	for e := el; e != nil; e = e.Parent() {
		chain = append(chain, e)
	}
	scope := map[string]string{}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, a := range chain[i].Attr {
			switch {
			case a.Space == "xmlns":
				scope[a.Key] = a.Value
			case a.Space == "" && a.Key == "xmlns":
				scope[""] = a.Value
			}
		}
	}
	return scope
}

// detach copies el out of its document and declares every namespace prefix
// the copy uses on the copy's root element.
func detach(el *etree.Element) *etree.Element {
	scope := nsScope(el)
	cp := el.Copy()
	declared := map[string]bool{}
	for _, a := range cp.Attr {
		switch {
		case a.Space == "xmlns":
			declared[a.Key] = true
		case a.Space == "" && a.Key == "xmlns":
			declared[""] = true
		}
	}
	used := map[string]bool{}
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		used[e.Space] = true
		for _, a := range e.Attr {
			if a.Space != "" && a.Space != "xmlns" {
				used[a.Space] = true
			}
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	walk(cp)
	for prefix := range used {
		if declared[prefix] || prefix == "xml" {
			continue
		}
		uri, ok := scope[prefix]
		if !ok {
			continue
		}
		if prefix == "" {
			cp.CreateAttr("xmlns", uri)
		} else {
			cp.CreateAttr("xmlns:"+prefix, uri)
		}
	}
	return cp
}

// newMETS creates a METS element, qualified with the mets prefix unless
// the document is written with METS as the default namespace.
func newMETS(local string, qualified bool) *etree.Element {
	if qualified {
		return etree.NewElement("mets:" + local)
	}
	return etree.NewElement(local)
}

func addMETS(parent *etree.Element, local string, qualified bool) *etree.Element {
	child := newMETS(local, qualified)
	parent.AddChild(child)
	return child
}

func joinIDs(ids []string) string {
	return strings.Join(ids, " ")
}
