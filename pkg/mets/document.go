package mets

import (
	"bytes"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/beevik/etree"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/rs/zerolog"
)

type serialContext struct {
	now       string
	qualified bool
	logger    zLogger.ZLogger
}

type labelKey struct {
	label string
	kind  string
}

// entryIndex remembers the generation of every factory whose entries it
// covers. Entries of foreign factories bump their own factory on mutation.
type entryIndex struct {
	generations map[*Factory]uint64
	byUUID      map[string]*Entry
	byLabel     map[labelKey]*Entry
}

func (idx *entryIndex) current() bool {
	for f, generation := range idx.generations {
		if f.generation != generation {
			return false
		}
	}
	return true
}

// Document is a METS document built from a set of root entries.
type Document struct {
	factory   *Factory
	logger    zLogger.ZLogger
	clock     func() time.Time
	qualified bool
	roots     []*Entry
	index     *entryIndex

	ObjID        string
	// CreateDate is set when the document was parsed and is written as
	// CREATEDATE, the serialization time then becomes LASTMODDATE.
	CreateDate   string
	Agents       []*Agent
	AltRecordIDs []*AltRecordID
}

type DocumentOption func(*Document)

// WithClock replaces time.Now for header and CREATED timestamps.
func WithClock(clock func() time.Time) DocumentOption {
	return func(d *Document) {
		d.clock = clock
	}
}

// WithDefaultNamespace writes METS elements without prefix.
func WithDefaultNamespace() DocumentOption {
	return func(d *Document) {
		d.qualified = false
	}
}

func NewDocument(factory *Factory, logger zLogger.ZLogger, opts ...DocumentOption) *Document {
	if factory == nil {
		factory = NewFactory()
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	d := &Document{
		factory:   factory,
		logger:    logger,
		clock:     time.Now,
		qualified: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) Factory() *Factory {
	return d.factory
}

// Append adds a root entry. Appending an entry twice is a no-op.
func (d *Document) Append(e *Entry) {
	if slices.Contains(d.roots, e) {
		return
	}
	d.roots = append(d.roots, e)
	d.factory.touch()
}

// Remove detaches e from the document, either as root or from its parent.
func (d *Document) Remove(e *Entry) error {
	if idx := slices.Index(d.roots, e); idx >= 0 {
		d.roots = slices.Delete(d.roots, idx, idx+1)
		d.factory.touch()
		return nil
	}
	if e.parent != nil {
		return errors.WithStack(e.parent.RemoveChild(e))
	}
	return errors.Wrapf(ErrReference, "'%s' is not part of the document", e.Path())
}

func (d *Document) Roots() []*Entry {
	return append([]*Entry{}, d.roots...)
}

// AllEntries returns every reachable entry in pre-order.
func (d *Document) AllEntries() []*Entry {
	var result []*Entry
	seen := map[*Entry]bool{}
	for _, root := range d.roots {
		_ = root.Walk(func(e *Entry) error {
			if !seen[e] {
				seen[e] = true
				result = append(result, e)
			}
			return nil
		})
	}
	return result
}

func (d *Document) Len() int {
	return len(d.AllEntries())
}

func (d *Document) lookupIndex() *entryIndex {
	if d.index != nil && d.index.current() {
		return d.index
	}
	idx := &entryIndex{
		generations: map[*Factory]uint64{d.factory: d.factory.generation},
		byUUID:      map[string]*Entry{},
		byLabel:     map[labelKey]*Entry{},
	}
	for _, e := range d.AllEntries() {
		if _, ok := idx.generations[e.factory]; !ok {
			idx.generations[e.factory] = e.factory.generation
		}
		if e.uuid != "" {
			if _, ok := idx.byUUID[e.uuid]; !ok {
				idx.byUUID[e.uuid] = e
			}
		}
		key := labelKey{label: e.label, kind: strings.ToLower(string(e.kind))}
		if _, ok := idx.byLabel[key]; !ok {
			idx.byLabel[key] = e
		}
	}
	d.index = idx
	return idx
}

// EntryByUUID returns the entry with the given unique identifier or nil.
func (d *Document) EntryByUUID(uuid string) *Entry {
	return d.lookupIndex().byUUID[uuid]
}

// EntryByLabel returns the first entry with label and kind or nil.
func (d *Document) EntryByLabel(label string, kind EntryKind) *Entry {
	return d.lookupIndex().byLabel[labelKey{label: label, kind: strings.ToLower(string(kind))}]
}

func idOrder(a, b string) int {
	pa, na := splitID(a)
	pb, nb := splitID(b)
	if c := strings.Compare(pa, pb); c != 0 {
		return c
	}
	if na != nb {
		return na - nb
	}
	return strings.Compare(a, b)
}

func splitID(id string) (string, int) {
	pos := strings.LastIndex(id, "_")
	if pos < 0 {
		return id, 0
	}
	n, err := strconv.Atoi(id[pos+1:])
	if err != nil {
		return id, 0
	}
	return id[:pos], n
}

func (d *Document) header(sc *serialContext) *etree.Element {
	hdr := newMETS("metsHdr", sc.qualified)
	if d.CreateDate == "" {
		hdr.CreateAttr("CREATEDATE", sc.now)
	} else {
		hdr.CreateAttr("CREATEDATE", d.CreateDate)
		hdr.CreateAttr("LASTMODDATE", sc.now)
	}
	for _, agent := range d.Agents {
		hdr.AddChild(agent.serialize(sc))
	}
	for _, alt := range d.AltRecordIDs {
		hdr.AddChild(alt.serialize(sc))
	}
	return hdr
}

// Serialize renders the document as a mets element.
func (d *Document) Serialize() (*etree.Element, error) {
	sc := &serialContext{
		now:       d.clock().UTC().Truncate(time.Second).Format(timeFormat),
		qualified: d.qualified,
		logger:    d.logger,
	}
	root := newMETS("mets", sc.qualified)
	if sc.qualified {
		root.CreateAttr("xmlns:mets", NSMETS)
	} else {
		root.CreateAttr("xmlns", NSMETS)
	}
	root.CreateAttr("xmlns:xlink", NSXLink)
	root.CreateAttr("xmlns:xsi", NSXSI)
	root.CreateAttr("xsi:schemaLocation", SchemaLocation)
	if d.ObjID != "" {
		root.CreateAttr("OBJID", d.ObjID)
	}
	root.AddChild(d.header(sc))

	entries := d.AllEntries()
	var dmdsecs []*SubSection
	var amdsecs []*AMDSec
	seenDMD := map[*SubSection]bool{}
	seenAMD := map[*AMDSec]bool{}
	for _, e := range entries {
		for _, s := range e.dmdsecs {
			if !seenDMD[s] {
				seenDMD[s] = true
				dmdsecs = append(dmdsecs, s)
			}
		}
		for _, a := range e.amdsecs {
			if !seenAMD[a] {
				seenAMD[a] = true
				amdsecs = append(amdsecs, a)
			}
		}
	}
	slices.SortStableFunc(dmdsecs, func(a, b *SubSection) int { return idOrder(a.id, b.id) })
	slices.SortStableFunc(amdsecs, func(a, b *AMDSec) int { return idOrder(a.id, b.id) })
	for _, s := range dmdsecs {
		el, err := s.serialize(sc)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		root.AddChild(el)
	}
	for _, a := range amdsecs {
		el, err := a.serialize(sc)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		root.AddChild(el)
	}

	sec, err := fileSec(entries, sc)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	root.AddChild(sec)

	physical, err := structMap(d.roots, sc, false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	root.AddChild(physical)
	if needsNormative(entries) {
		normative, err := structMap(d.roots, sc, true)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		root.AddChild(normative)
	}
	d.logger.Debug().Msgf("serialized %d entries, %d dmdSec, %d amdSec", len(entries), len(dmdsecs), len(amdsecs))
	return root, nil
}

func (d *Document) xmlDocument() (*etree.Document, error) {
	root, err := d.Serialize()
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(root)
	doc.Indent(2)
	return doc, nil
}

// WriteTo writes the indented XML document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	doc, err := d.xmlDocument()
	if err != nil {
		return 0, err
	}
	n, err := doc.WriteTo(w)
	if err != nil {
		return n, errors.Wrap(err, "cannot write mets document")
	}
	return n, nil
}

func (d *Document) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := d.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) String() string {
	data, err := d.Bytes()
	if err != nil {
		return ""
	}
	return string(data)
}

func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "cannot write '%s'", path)
	}
	return nil
}
