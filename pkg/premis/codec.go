package premis

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

const (
	NSPremisV2 = "info:lc/xmlns/premis-v2"
	NSPremisV3 = "http://www.loc.gov/premis/v3"
	NSXSI      = "http://www.w3.org/2001/XMLSchema-instance"
	NSXLink    = "http://www.w3.org/1999/xlink"

	Version21 = "2.1"
	Version22 = "2.2"
	Version30 = "3.0"

	// DefaultVersion is used when nothing else is requested.
	DefaultVersion = Version22
)

type versionInfo struct {
	namespace      string
	schemaLocation string
}

var versions = map[string]versionInfo{
	Version21: {NSPremisV2, NSPremisV2 + " http://www.loc.gov/standards/premis/v2/premis-v2-1.xsd"},
	Version22: {NSPremisV2, NSPremisV2 + " http://www.loc.gov/standards/premis/v2/premis-v2-2.xsd"},
	Version30: {NSPremisV3, NSPremisV3 + " http://www.loc.gov/standards/premis/v3/premis.xsd"},
}

// foreign prefixes allowed in tag and attribute names
var foreignNamespaces = map[string]string{
	"xsi":   NSXSI,
	"xlink": NSXLink,
}

// Versions returns the supported PREMIS versions.
func Versions() []string {
	return slices.Sorted(maps.Keys(versions))
}

func Namespace(version string) (string, error) {
	info, ok := versions[version]
	if !ok {
		return "", errors.Wrapf(ErrVersion, "'%s'", version)
	}
	return info.namespace, nil
}

func SchemaLocation(version string) (string, error) {
	info, ok := versions[version]
	if !ok {
		return "", errors.Wrapf(ErrVersion, "'%s'", version)
	}
	return info.schemaLocation, nil
}

// Meta returns the root attributes of a record of the given version.
func Meta(version string) (map[string]string, error) {
	location, err := SchemaLocation(version)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"xsi:schema_location": location,
		"version":             version,
	}, nil
}

var acronyms = map[string]string{
	"uri": "URI",
}

// SnakeToCamel converts object_identifier_type to objectIdentifierType.
func SnakeToCamel(snake string) string {
	words := strings.Split(snake, "_")
	var sb strings.Builder
	for i, word := range words {
		if i == 0 || word == "" {
			sb.WriteString(word)
			continue
		}
		if acronym, ok := acronyms[word]; ok {
			sb.WriteString(acronym)
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	return sb.String()
}

// CamelToSnake converts objectIdentifierType to object_identifier_type.
func CamelToSnake(camel string) string {
	var sb strings.Builder
	lastLower := false
	for _, r := range camel {
		upper := unicode.IsUpper(r)
		if upper && lastLower {
			sb.WriteRune('_')
		}
		sb.WriteRune(unicode.ToLower(r))
		lastLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return sb.String()
}

// ToXML encodes el in the namespace of version.
func ToXML(el *Element, version string) (*etree.Element, error) {
	ns, err := Namespace(version)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	used := map[string]bool{}
	x, err := toXML(el, used)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	x.CreateAttr("xmlns:premis", ns)
	for _, prefix := range slices.Sorted(maps.Keys(used)) {
		x.CreateAttr("xmlns:"+prefix, foreignNamespaces[prefix])
	}
	// declarations first
	slices.SortStableFunc(x.Attr, func(a, b etree.Attr) int {
		ad, bd := a.Space == "xmlns", b.Space == "xmlns"
		switch {
		case ad && !bd:
			return -1
		case bd && !ad:
			return 1
		}
		return 0
	})
	return x, nil
}

func qualify(name string, used map[string]bool) (string, error) {
	prefix, local, found := strings.Cut(name, ":")
	if !found {
		return SnakeToCamel(name), nil
	}
	if _, ok := foreignNamespaces[prefix]; !ok {
		return "", errors.Errorf("unknown namespace prefix in '%s'", name)
	}
	used[prefix] = true
	return prefix + ":" + SnakeToCamel(local), nil
}

func toXML(el *Element, used map[string]bool) (*etree.Element, error) {
	tag := "premis:" + SnakeToCamel(el.Tag)
	if strings.Contains(el.Tag, ":") {
		var err error
		if tag, err = qualify(el.Tag, used); err != nil {
			return nil, err
		}
	}
	x := etree.NewElement(tag)
	for _, name := range slices.Sorted(maps.Keys(el.Attrs)) {
		key, err := qualify(name, used)
		if err != nil {
			return nil, err
		}
		x.CreateAttr(key, el.Attrs[name])
	}
	for _, c := range el.Children {
		switch n := c.(type) {
		case Text:
			x.CreateText(string(n))
		case *Element:
			child, err := toXML(n, used)
			if err != nil {
				return nil, err
			}
			x.AddChild(child)
		}
	}
	return x, nil
}

// FromXML decodes a PREMIS element. Its namespace follows the version
// attribute, the default version applies if there is none.
func FromXML(x *etree.Element) (*Element, error) {
	if x == nil {
		return nil, errors.Wrap(ErrParse, "no element")
	}
	version := VersionOf(x)
	ns, err := Namespace(version)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%v", err)
	}
	if got := namespaceOf(x); got != "" && got != ns {
		return nil, errors.Wrapf(ErrParse, "element '%s' in namespace '%s', expected '%s'", x.Tag, got, ns)
	}
	return fromXML(x, ns), nil
}

// VersionOf returns the version attribute of x. Without one the version
// follows the namespace.
func VersionOf(x *etree.Element) string {
	if v := x.SelectAttrValue("version", ""); v != "" {
		return v
	}
	if namespaceOf(x) == NSPremisV3 {
		return Version30
	}
	return DefaultVersion
}

func namespaceOf(x *etree.Element) string {
	if uri := x.NamespaceURI(); uri != "" {
		return uri
	}
	if x.Space == "premis" {
		return ""
	}
	return foreignNamespaces[x.Space]
}

func unqualify(space, local, ns string, scope *etree.Element) string {
	if space == "" {
		return CamelToSnake(local)
	}
	uri := ""
	for p := scope; p != nil && uri == ""; p = p.Parent() {
		uri = p.SelectAttrValue("xmlns:"+space, "")
	}
	if uri == ns || (uri == "" && space == "premis") {
		return CamelToSnake(local)
	}
	for prefix, known := range foreignNamespaces {
		if known == uri {
			return prefix + ":" + CamelToSnake(local)
		}
	}
	return space + ":" + CamelToSnake(local)
}

func fromXML(x *etree.Element, ns string) *Element {
	el := &Element{Tag: unqualify(x.Space, x.Tag, ns, x)}
	for _, a := range x.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		if el.Attrs == nil {
			el.Attrs = map[string]string{}
		}
		el.Attrs[unqualify(a.Space, a.Key, ns, x)] = a.Value
	}
	for _, t := range x.Child {
		switch n := t.(type) {
		case *etree.Element:
			el.Children = append(el.Children, fromXML(n, ns))
		case *etree.CharData:
			if strings.TrimSpace(n.Data) == "" {
				continue
			}
			el.Children = append(el.Children, Text(n.Data))
		}
	}
	return el
}
