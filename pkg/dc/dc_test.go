package dc

import (
	"strings"
	"testing"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/beevik/etree"
	"github.com/go-test/deep"
)

func TestSerialize(t *testing.T) {
	d := &DublinCore{Title: "Yamani Weapons", Creator: "Keladry of Mindelan", Date: "2017"}
	el, err := d.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if el.FullTag() != "dcterms:dublincore" {
		t.Errorf("unexpected root %s", el.FullTag())
	}
	if el.SelectAttrValue("xsi:schemaLocation", "") != SchemaLocation {
		t.Errorf("missing schema location")
	}
	children := el.ChildElements()
	if len(children) != len(Elements) {
		t.Fatalf("expected %d elements, got %d", len(Elements), len(children))
	}
	for i, c := range children {
		if c.FullTag() != "dc:"+Elements[i] {
			t.Errorf("element %d: expected dc:%s, got %s", i, Elements[i], c.FullTag())
		}
	}
	if got := el.FindElement("./dc:creator").Text(); got != "Keladry of Mindelan" {
		t.Errorf("unexpected creator %s", got)
	}
}

func TestParse(t *testing.T) {
	d := &DublinCore{Title: "Yamani Weapons", Subject: "glaive", Rights: "Public Domain"}
	el, err := d.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	doc := etree.NewDocument()
	doc.SetRoot(el)
	str, err := doc.WriteToString()
	if err != nil {
		t.Fatal(err)
	}
	reread := etree.NewDocument()
	if err := reread.ReadFromString(str); err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(reread.Root())
	if err != nil {
		t.Fatalf("cannot parse: %v", err)
	}
	if diff := deep.Equal(parsed, d); diff != nil {
		t.Error(diff)
	}

	wrapped := etree.NewDocument()
	err = wrapped.ReadFromString(`<mets:xmlData xmlns:mets="http://www.loc.gov/METS/">
  <dcterms:dublincore xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Yamani Weapons</dc:title>
    <dc:identifier>yw-01</dc:identifier>
  </dcterms:dublincore>
</mets:xmlData>`)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err = Parse(wrapped.Root())
	if err != nil {
		t.Fatalf("cannot parse xmlData: %v", err)
	}
	if parsed.Title != "Yamani Weapons" || parsed.Get("identifier") != "yw-01" {
		t.Errorf("unexpected record %+v", parsed)
	}

	wrong := etree.NewDocument()
	if err := wrong.ReadFromString(`<mets:xmlData xmlns:mets="http://www.loc.gov/METS/"><foo/></mets:xmlData>`); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(wrong.Root()); !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	expected := &DublinCore{Title: "Yamani Weapons", Creator: "Keladry of Mindelan"}
	for format, data := range map[string]string{
		"json": `{"title": "Yamani Weapons", "creator": "Keladry of Mindelan"}`,
		"yaml": "title: Yamani Weapons\ncreator: Keladry of Mindelan\n",
		"toml": "title = \"Yamani Weapons\"\ncreator = \"Keladry of Mindelan\"\n",
	} {
		d, err := Load(strings.NewReader(data), format)
		if err != nil {
			t.Errorf("%s: %v", format, err)
			continue
		}
		if diff := deep.Equal(d, expected); diff != nil {
			t.Errorf("%s: %v", format, diff)
		}
	}
	for name, data := range map[string]string{
		"unknown element": `{"title": "x", "author": "y"}`,
		"no string":       `{"title": 42}`,
	} {
		if _, err := Load(strings.NewReader(data), "json"); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if _, err := Load(strings.NewReader("{}"), "xml"); err == nil {
		t.Errorf("xml format should be rejected")
	}
}

func TestMETSDescriptive(t *testing.T) {
	f := mets.NewFactory(mets.WithDecoder(mets.MDTypeDC, Decode))
	dir, err := f.NewEntry(mets.EntryOptions{Path: "objects/empty", Kind: mets.KindDirectory})
	if err != nil {
		t.Fatal(err)
	}
	d := &DublinCore{Title: "Empty directory"}
	if _, err := dir.AddDublinCore(d); err != nil {
		t.Fatal(err)
	}
	if !dir.HasDMDSec(mets.MDTypeDC, "") {
		t.Fatalf("dmdSec not attached")
	}
	mds, err := dir.Metadata(mets.MDTypeDC)
	if err != nil {
		t.Fatal(err)
	}
	if len(mds) != 1 {
		t.Fatalf("expected one record, got %d", len(mds))
	}
	if diff := deep.Equal(mds[0], d); diff != nil {
		t.Error(diff)
	}
}
