package mets

import (
	"fmt"
	"slices"
	"strings"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

// LocTypes are the accepted LOCTYPE values of an mdRef.
var LocTypes = []string{"ARK", "URN", "URL", "PURL", "HANDLE", "DOI", "OTHER"}

// MDWrap embeds one or more XML documents.
type MDWrap struct {
	Type      string
	OtherType string
	Documents []*etree.Element
}

func NewMDWrap(mdtype string, docs ...*etree.Element) (*MDWrap, error) {
	if mdtype == "" {
		return nil, errors.Wrap(ErrConstruction, "mdWrap needs an MDTYPE")
	}
	if len(docs) == 0 {
		return nil, errors.Wrapf(ErrConstruction, "mdWrap %s has no document", mdtype)
	}
	return &MDWrap{Type: mdtype, Documents: docs}, nil
}

// NewMDWrapString parses xml and wraps its root element.
func NewMDWrapString(mdtype, xml string) (*MDWrap, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, errors.Wrapf(ErrConstruction, "cannot parse %s document: %v", mdtype, err)
	}
	if doc.Root() == nil {
		return nil, errors.Wrapf(ErrConstruction, "empty %s document", mdtype)
	}
	return NewMDWrap(mdtype, doc.Root())
}

// NewMDWrapMetadata wraps the serialization of a typed payload.
func NewMDWrapMetadata(mdtype string, md Metadata) (*MDWrap, error) {
	el, err := md.Serialize()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot serialize %s payload", mdtype)
	}
	return NewMDWrap(mdtype, el)
}

func (w *MDWrap) MDType() string      { return w.Type }
func (w *MDWrap) OtherMDType() string { return w.OtherType }

// Document returns the first embedded document.
func (w *MDWrap) Document() *etree.Element {
	if len(w.Documents) == 0 {
		return nil
	}
	return w.Documents[0]
}

func (w *MDWrap) serialize(sc *serialContext) (*etree.Element, error) {
	if w.Type == "" || len(w.Documents) == 0 {
		return nil, errors.Wrapf(ErrSerialize, "incomplete mdWrap '%s'", w.Type)
	}
	el := newMETS("mdWrap", sc.qualified)
	el.CreateAttr("MDTYPE", w.Type)
	if w.OtherType != "" {
		el.CreateAttr("OTHERMDTYPE", w.OtherType)
	}
	xmlData := addMETS(el, "xmlData", sc.qualified)
	for _, doc := range w.Documents {
		xmlData.AddChild(doc.Copy())
	}
	return el, nil
}

func parseMDWrap(el *etree.Element) (*MDWrap, error) {
	mdtype := attr(el, "MDTYPE")
	if mdtype == "" {
		return nil, errors.Wrap(ErrParse, "mdWrap has no MDTYPE")
	}
	w := &MDWrap{Type: mdtype, OtherType: attr(el, "OTHERMDTYPE")}
	xmlData := firstMETS(el, "xmlData")
	if xmlData == nil {
		return nil, errors.Wrapf(ErrParse, "mdWrap %s has no xmlData", mdtype)
	}
	for _, doc := range xmlData.ChildElements() {
		w.Documents = append(w.Documents, detach(doc))
	}
	if len(w.Documents) == 0 {
		return nil, errors.Wrapf(ErrParse, "mdWrap %s has empty xmlData", mdtype)
	}
	return w, nil
}

// MDRef points to metadata outside of the document.
type MDRef struct {
	Target       string
	Type         string
	LocType      string
	Label        string
	OtherLocType string
	XPtr         string
	OtherType    string
}

func NewMDRef(target, mdtype, loctype string) (*MDRef, error) {
	if !slices.Contains(LocTypes, loctype) {
		return nil, errors.Wrapf(ErrConstruction, "invalid LOCTYPE '%s', allowed: %v", loctype, LocTypes)
	}
	if mdtype == "" {
		return nil, errors.Wrap(ErrConstruction, "mdRef needs an MDTYPE")
	}
	return &MDRef{Target: target, Type: mdtype, LocType: loctype}, nil
}

func (r *MDRef) MDType() string      { return r.Type }
func (r *MDRef) OtherMDType() string { return r.OtherType }

func (r *MDRef) serialize(sc *serialContext) (*etree.Element, error) {
	if !slices.Contains(LocTypes, r.LocType) {
		return nil, errors.Wrapf(ErrSerialize, "invalid LOCTYPE '%s'", r.LocType)
	}
	href, err := URLEncode(r.Target)
	if err != nil {
		return nil, errors.Wrapf(ErrSerialize, "invalid mdRef target '%s': %v", r.Target, err)
	}
	el := newMETS("mdRef", sc.qualified)
	if r.Label != "" {
		el.CreateAttr("LABEL", r.Label)
	}
	el.CreateAttr("xlink:href", href)
	el.CreateAttr("MDTYPE", r.Type)
	el.CreateAttr("LOCTYPE", r.LocType)
	if r.OtherLocType != "" {
		el.CreateAttr("OTHERLOCTYPE", r.OtherLocType)
	}
	if r.OtherType != "" {
		el.CreateAttr("OTHERMDTYPE", r.OtherType)
	}
	xptr := r.XPtr
	if ids, err := referencedDMDSecIDs(r.Target); err != nil {
		sc.logger.Debug().Msgf("no fragment pointer for '%s': %v", r.Target, err)
	} else if len(ids) > 0 {
		xptr = fmt.Sprintf("xpointer(id('%s'))", strings.Join(ids, " "))
	}
	if xptr != "" {
		el.CreateAttr("XPTR", xptr)
	}
	return el, nil
}

// referencedDMDSecIDs reads target as a METS document and lists its dmdSec identifiers.
func referencedDMDSecIDs(target string) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(target); err != nil {
		return nil, errors.Wrapf(err, "cannot read '%s'", target)
	}
	root := doc.Root()
	if !isMETS(root, "mets") {
		return nil, errors.Errorf("'%s' is not a mets document", target)
	}
	var ids []string
	for _, dmd := range childrenMETS(root, "dmdSec") {
		if id := attr(dmd, "ID"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseMDRef(el *etree.Element) (*MDRef, error) {
	r := &MDRef{
		Type:         attr(el, "MDTYPE"),
		LocType:      attr(el, "LOCTYPE"),
		Label:        attr(el, "LABEL"),
		OtherLocType: attr(el, "OTHERLOCTYPE"),
		XPtr:         attr(el, "XPTR"),
		OtherType:    attr(el, "OTHERMDTYPE"),
	}
	if r.Type == "" {
		return nil, errors.Wrap(ErrParse, "mdRef has no MDTYPE")
	}
	if r.LocType == "" {
		return nil, errors.Wrap(ErrParse, "mdRef has no LOCTYPE")
	}
	href, ok := attrNS(el, NSXLink, "href")
	if !ok {
		return nil, errors.Wrap(ErrParse, "mdRef has no xlink:href")
	}
	target, err := URLDecode(href)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "invalid mdRef href '%s': %v", href, err)
	}
	r.Target = target
	return r, nil
}
