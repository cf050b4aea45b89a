package validate

import (
	"strings"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/beevik/etree"
)

const NSXSD = "http://www.w3.org/2001/XMLSchema"

// SchemaLocations collects the namespace/location pairs of all
// xsi:schemaLocation attributes in the document except the METS one.
func SchemaLocations(root *etree.Element) [][2]string {
	seen := map[[2]string]bool{}
	var result [][2]string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, a := range el.Attr {
			if a.Key != "schemaLocation" || a.NamespaceURI() != mets.NSXSI {
				continue
			}
			fields := strings.Fields(a.Value)
			for i := 0; i+1 < len(fields); i += 2 {
				pair := [2]string{fields[i], fields[i+1]}
				if pair[0] == mets.NSMETS || seen[pair] {
					continue
				}
				seen[pair] = true
				result = append(result, pair)
			}
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(root)
	return result
}

// WrapSchema adds an xs:import for every embedded schema of document to
// the METS schema, so that embedded metadata is validated as well.
func WrapSchema(xsd []byte, document *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xsd); err != nil {
		return nil, errors.Wrap(err, "cannot parse schema")
	}
	root := doc.Root()
	if root == nil || root.Tag != "schema" {
		return nil, errors.New("schema has no xs:schema root")
	}
	prefix := root.Space
	for _, pair := range SchemaLocations(document) {
		tag := "import"
		if prefix != "" {
			tag = prefix + ":import"
		}
		imp := etree.NewElement(tag)
		imp.CreateAttr("namespace", pair[0])
		imp.CreateAttr("schemaLocation", pair[1])
		root.InsertChildAt(0, imp)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "cannot write schema")
	}
	return data, nil
}
