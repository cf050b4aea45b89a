package dc

import (
	_ "embed"
	"encoding/json"
	"io"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/beevik/etree"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v2"
)

const (
	NSDC      = "http://purl.org/dc/elements/1.1/"
	NSDCTerms = "http://purl.org/dc/terms/"
	NSXSI     = "http://www.w3.org/2001/XMLSchema-instance"

	SchemaLocation = "http://purl.org/dc/terms/ http://dublincore.org/schemas/xmls/qdc/2008/02/11/dcterms.xsd"

	schemaURL = "https://github.com/artefactual-labs/mets-reader-writer/dublincore.schema.json"
)

var ErrParse = errors.New("cannot parse dublin core")

// Elements are the Dublin Core elements in document order.
var Elements = []string{"title", "creator", "subject", "description", "publisher", "contributor", "date", "format", "identifier", "source", "relation", "language", "coverage", "rights"}

//go:embed dublincore.schema.json
var schemaJSON string

var compiledSchema = jsonschema.MustCompileString(schemaURL, schemaJSON)

type DublinCore struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Creator     string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Subject     string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Publisher   string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Contributor string `json:"contributor,omitempty" yaml:"contributor,omitempty"`
	Date        string `json:"date,omitempty" yaml:"date,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Identifier  string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	Relation    string `json:"relation,omitempty" yaml:"relation,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Coverage    string `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	Rights      string `json:"rights,omitempty" yaml:"rights,omitempty"`
}

// fields returns pointers to the element values in the order of Elements.
func (d *DublinCore) fields() []*string {
	return []*string{
		&d.Title, &d.Creator, &d.Subject, &d.Description, &d.Publisher,
		&d.Contributor, &d.Date, &d.Format, &d.Identifier, &d.Source,
		&d.Relation, &d.Language, &d.Coverage, &d.Rights,
	}
}

func (d *DublinCore) Get(element string) string {
	for i, name := range Elements {
		if name == element {
			return *d.fields()[i]
		}
	}
	return ""
}

func (d *DublinCore) Set(element, value string) error {
	for i, name := range Elements {
		if name == element {
			*d.fields()[i] = value
			return nil
		}
	}
	return errors.Errorf("unknown dublin core element '%s'", element)
}

// Serialize creates a dcterms:dublincore element with all elements, empty
// ones included.
func (d *DublinCore) Serialize() (*etree.Element, error) {
	root := etree.NewElement("dcterms:dublincore")
	root.CreateAttr("xmlns:dcterms", NSDCTerms)
	root.CreateAttr("xmlns:dc", NSDC)
	root.CreateAttr("xmlns:xsi", NSXSI)
	root.CreateAttr("xsi:schemaLocation", SchemaLocation)
	for i, name := range Elements {
		el := root.CreateElement("dc:" + name)
		if value := *d.fields()[i]; value != "" {
			el.SetText(value)
		}
	}
	return root, nil
}

func namespace(el *etree.Element) string {
	if uri := el.NamespaceURI(); uri != "" {
		return uri
	}
	switch el.Space {
	case "dc":
		return NSDC
	case "dcterms":
		return NSDCTerms
	case "mets":
		return mets.NSMETS
	}
	return ""
}

// Parse reads a dcterms:dublincore element, either directly or as the
// child of a mets:xmlData element.
func Parse(el *etree.Element) (*DublinCore, error) {
	if el == nil {
		return nil, errors.Wrap(ErrParse, "no element")
	}
	if el.Tag == "xmlData" && namespace(el) == mets.NSMETS {
		var found *etree.Element
		for _, c := range el.ChildElements() {
			if c.Tag == "dublincore" && namespace(c) == NSDCTerms {
				found = c
				break
			}
		}
		if found == nil {
			return nil, errors.Wrap(ErrParse, "xmlData can only contain a dublincore element with the dcterms namespace")
		}
		el = found
	}
	if el.Tag != "dublincore" || namespace(el) != NSDCTerms {
		return nil, errors.Wrapf(ErrParse, "unexpected element <%s>", el.FullTag())
	}
	d := &DublinCore{}
	for _, c := range el.ChildElements() {
		if namespace(c) != NSDC {
			continue
		}
		for i, name := range Elements {
			if c.Tag == name && *d.fields()[i] == "" {
				*d.fields()[i] = strings.TrimSpace(c.Text())
			}
		}
	}
	return d, nil
}

// Decode is the payload decoder for MDTYPE DC.
func Decode(el *etree.Element) (mets.Metadata, error) {
	return Parse(el)
}

// Load reads a record in json, yaml or toml format and validates it
// against the Dublin Core schema.
func Load(r io.Reader, format string) (*DublinCore, error) {
	var info any
	var err error
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.NewDecoder(r).Decode(&info); err != nil {
			return nil, errors.Wrap(err, "cannot decode json")
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&info); err != nil {
			return nil, errors.Wrap(err, "cannot decode yaml")
		}
	case "toml":
		if _, err := toml.NewDecoder(r).Decode(&info); err != nil {
			return nil, errors.Wrap(err, "cannot decode toml")
		}
	default:
		return nil, errors.Errorf("unknown format '%s', only json, toml and yaml supported", format)
	}
	info, err = toStringKeys(info)
	if err != nil {
		return nil, errors.Wrap(err, "cannot convert map[any]any to map[string]any")
	}
	if err := compiledSchema.Validate(info); err != nil {
		return nil, errors.Wrap(err, "cannot validate dublin core")
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal dublin core")
	}
	d := &DublinCore{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal dublin core")
	}
	return d, nil
}

func toStringKeys(val any) (any, error) {
	var err error
	switch val := val.(type) {
	case map[any]any:
		m := make(map[string]any)
		for k, v := range val {
			k, ok := k.(string)
			if !ok {
				return nil, errors.New("found non-string key")
			}
			m[k], err = toStringKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return m, nil
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k], err = toStringKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return m, nil
	case []any:
		var l = make([]any, len(val))
		for i, v := range val {
			l[i], err = toStringKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return l, nil
	default:
		return val, nil
	}
}
