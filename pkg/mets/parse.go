package mets

import (
	"io"
	"slices"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/beevik/etree"
	"github.com/je4/utils/v2/pkg/zLogger"
)

var createDateFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	timeFormat,
	"2006-01-02",
}

func parseCreateDate(value string) (time.Time, error) {
	for _, layout := range createDateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrParse, "invalid CREATEDATE '%s'", value)
}

type fileRecord struct {
	el  *etree.Element
	use string
}

type pendingDerivation struct {
	entry *Entry
	uuid  string
}

// parser keeps the section indexes of one parse run.
type parser struct {
	factory *Factory
	logger  zLogger.ZLogger
	files   map[string]fileRecord
	dmdEls  map[string]*etree.Element
	amdEls  map[string]*etree.Element
	dmdsecs map[string]*SubSection
	amdsecs map[string]*AMDSec
	pending []pendingDerivation
	entries int
}

// Parse reads a METS document from data.
func Parse(factory *Factory, data []byte, logger zLogger.ZLogger, opts ...DocumentOption) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrapf(ErrParse, "invalid xml: %v", err)
	}
	return ParseTree(factory, doc.Root(), logger, opts...)
}

func ParseReader(factory *Factory, r io.Reader, logger zLogger.ZLogger, opts ...DocumentOption) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Wrapf(ErrParse, "invalid xml: %v", err)
	}
	return ParseTree(factory, doc.Root(), logger, opts...)
}

func ParseFile(factory *Factory, path string, logger zLogger.ZLogger, opts ...DocumentOption) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errors.Wrapf(ErrParse, "cannot read '%s': %v", path, err)
	}
	return ParseTree(factory, doc.Root(), logger, opts...)
}

// ParseTree builds a Document from a parsed mets root element.
func ParseTree(factory *Factory, root *etree.Element, logger zLogger.ZLogger, opts ...DocumentOption) (*Document, error) {
	if !isMETS(root, "mets") {
		if root == nil {
			return nil, errors.Wrap(ErrParse, "empty document")
		}
		return nil, errors.Wrapf(ErrParse, "root element <%s> is not mets:mets", root.FullTag())
	}
	d := NewDocument(factory, logger, opts...)
	d.qualified = root.Space != ""
	d.ObjID = attr(root, "OBJID")

	if err := d.parseHeader(root); err != nil {
		return nil, err
	}

	p := &parser{
		factory: d.factory,
		logger:  d.logger,
		files:   map[string]fileRecord{},
		dmdEls:  map[string]*etree.Element{},
		amdEls:  map[string]*etree.Element{},
		dmdsecs: map[string]*SubSection{},
		amdsecs: map[string]*AMDSec{},
	}
	p.index(root)

	var physical, normative *etree.Element
	for _, sm := range childrenMETS(root, "structMap") {
		smType := strings.ToLower(attr(sm, "TYPE"))
		switch {
		case smType == PhysicalStructMapType && physical == nil:
			physical = sm
		case smType == NormativeStructMapType && attr(sm, "LABEL") == NormativeStructMapLabel:
			normative = sm
		}
	}
	if physical == nil {
		return nil, errors.Wrap(ErrParse, "no physical structMap")
	}
	var normDivs []*etree.Element
	if normative != nil {
		normDivs = childrenMETS(normative, "div")
	}
	for _, pair := range pairDivs(childrenMETS(physical, "div"), normDivs) {
		e, err := p.parseDiv(pair)
		if err != nil {
			return nil, err
		}
		if e != nil {
			d.roots = append(d.roots, e)
		}
	}

	// group ids name the entry a file derives from
	all := d.AllEntries()
	for _, pd := range p.pending {
		for _, e := range all {
			if e.uuid == pd.uuid && strings.EqualFold(string(e.kind), string(KindItem)) {
				if err := pd.entry.SetDerivedFrom(e); err != nil {
					return nil, errors.Wrapf(ErrParse, "invalid derivation: %v", err)
				}
				break
			}
		}
	}
	d.factory.touch()
	d.logger.Debug().Msgf("parsed mets with %d entries", p.entries)
	return d, nil
}

func (d *Document) parseHeader(root *etree.Element) error {
	hdr := firstMETS(root, "metsHdr")
	if hdr == nil {
		return nil
	}
	if created := attr(hdr, "CREATEDATE"); created != "" {
		t, err := parseCreateDate(created)
		if err != nil {
			return err
		}
		if t.After(d.clock()) {
			return errors.Wrapf(ErrParse, "CREATEDATE %s is in the future", created)
		}
		d.CreateDate = created
	}
	for _, el := range childrenMETS(hdr, "agent") {
		agent, err := parseAgent(el)
		if err != nil {
			return errors.WithStack(err)
		}
		d.Agents = append(d.Agents, agent)
	}
	for _, el := range childrenMETS(hdr, "altRecordID") {
		alt, err := parseAltRecordID(el)
		if err != nil {
			return errors.WithStack(err)
		}
		d.AltRecordIDs = append(d.AltRecordIDs, alt)
	}
	return nil
}

func (p *parser) index(root *etree.Element) {
	ids := p.factory.ids
	for _, el := range childrenMETS(root, "dmdSec") {
		id := attr(el, "ID")
		p.dmdEls[id] = el
		ids.Register(id)
	}
	for _, el := range childrenMETS(root, "amdSec") {
		id := attr(el, "ID")
		p.amdEls[id] = el
		ids.Register(id)
		for _, sub := range el.ChildElements() {
			ids.Register(attr(sub, "ID"))
		}
	}
	if sec := firstMETS(root, "fileSec"); sec != nil {
		var walk func(grp *etree.Element, use string)
		walk = func(grp *etree.Element, use string) {
			if u := attr(grp, "USE"); u != "" {
				use = u
			}
			for _, f := range childrenMETS(grp, "file") {
				p.files[attr(f, "ID")] = fileRecord{el: f, use: use}
			}
			for _, sub := range childrenMETS(grp, "fileGrp") {
				walk(sub, use)
			}
		}
		for _, grp := range childrenMETS(sec, "fileGrp") {
			walk(grp, "")
		}
	}
}

func (p *parser) dmdSec(id string) (*SubSection, error) {
	if s, ok := p.dmdsecs[id]; ok {
		return s, nil
	}
	el, ok := p.dmdEls[id]
	if !ok {
		return nil, errors.Wrapf(ErrParse, "dmdSec '%s' referenced but not found", id)
	}
	s, err := parseSubSection(p.factory.ids, el)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	p.dmdsecs[id] = s
	return s, nil
}

func (p *parser) amdSec(id string) (*AMDSec, error) {
	if a, ok := p.amdsecs[id]; ok {
		return a, nil
	}
	el, ok := p.amdEls[id]
	if !ok {
		return nil, errors.Wrapf(ErrParse, "amdSec '%s' referenced but not found", id)
	}
	a, err := parseAMDSec(p.factory.ids, el)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	p.amdsecs[id] = a
	return a, nil
}

// attachDMDSecs adds the referenced records in CREATED order and relinks
// the version chains of each metadata type.
func (p *parser) attachDMDSecs(e *Entry, dmdids string) error {
	var sections []*SubSection
	for _, id := range strings.Fields(dmdids) {
		s, err := p.dmdSec(id)
		if err != nil {
			return err
		}
		sections = append(sections, s)
	}
	slices.SortStableFunc(sections, func(a, b *SubSection) int { return strings.Compare(a.Created, b.Created) })
	for _, s := range sections {
		e.attachDMDSec(s)
	}
	for _, chain := range e.dmdsecsByKey {
		for i := 1; i < len(chain); i++ {
			if continuesChain(chain[i-1], chain[i]) {
				if err := chain[i-1].ReplaceWith(chain[i]); err != nil {
					return errors.Wrapf(ErrParse, "cannot link dmdSec chain: %v", err)
				}
			}
		}
	}
	return nil
}

// continuesChain reports whether s is a later version of prev. Deleted
// records have no update status left, their GROUPID links them.
func continuesChain(prev, s *SubSection) bool {
	if strings.HasPrefix(s.status, StatusUpdate) {
		return true
	}
	if !s.deleted {
		return false
	}
	return s.GroupID == "" || s.GroupID == prev.GroupID
}

func (p *parser) attachAMDSecs(e *Entry, admids string) error {
	for _, id := range strings.Fields(admids) {
		a, err := p.amdSec(id)
		if err != nil {
			return err
		}
		e.attachAMDSec(a)
	}
	return nil
}

type divPair struct {
	physical  *etree.Element
	normative *etree.Element
}

func sameDiv(a, b *etree.Element) bool {
	return attr(a, "TYPE") == attr(b, "TYPE") && attr(a, "LABEL") == attr(b, "LABEL")
}

// pairDivs merges physical divs with their normative counterparts, keeping
// normative-only divs at their position.
func pairDivs(physical, normative []*etree.Element) []divPair {
	var pairs []divPair
	j := 0
	for _, ph := range physical {
		match := -1
		for k := j; k < len(normative); k++ {
			if sameDiv(ph, normative[k]) {
				match = k
				break
			}
		}
		if match < 0 {
			pairs = append(pairs, divPair{physical: ph})
			continue
		}
		for ; j < match; j++ {
			pairs = append(pairs, divPair{normative: normative[j]})
		}
		pairs = append(pairs, divPair{physical: ph, normative: normative[match]})
		j = match + 1
	}
	for ; j < len(normative); j++ {
		pairs = append(pairs, divPair{normative: normative[j]})
	}
	return pairs
}

func childDivs(el *etree.Element) []*etree.Element {
	if el == nil {
		return nil
	}
	return childrenMETS(el, "div")
}

func (p *parser) parseDiv(pair divPair) (*Entry, error) {
	el := pair.physical
	if el == nil {
		el = pair.normative
	}
	divType := attr(el, "TYPE")
	label := attr(el, "LABEL")
	var fptrs []*etree.Element
	if pair.physical != nil {
		fptrs = childrenMETS(pair.physical, "fptr")
	}

	if strings.EqualFold(divType, string(KindDirectory)) {
		dir, err := p.factory.NewEntry(EntryOptions{Label: label, Kind: EntryKind(divType)})
		if err != nil {
			return nil, errors.Wrapf(ErrParse, "invalid directory div '%s': %v", label, err)
		}
		p.entries++
		if err := p.attachDMDSecs(dir, attr(el, "DMDID")); err != nil {
			return nil, err
		}
		if err := p.attachAMDSecs(dir, attr(el, "ADMID")); err != nil {
			return nil, err
		}
		for _, childPair := range pairDivs(childDivs(pair.physical), childDivs(pair.normative)) {
			child, err := p.parseDiv(childPair)
			if err != nil {
				return nil, err
			}
			if child == nil {
				continue
			}
			if err := dir.AddChild(child); err != nil {
				return nil, errors.Wrapf(ErrParse, "cannot add '%s' to '%s': %v", child.label, label, err)
			}
		}
		// files pointed to by the directory div itself
		for _, fptr := range fptrs {
			child, err := p.fromFptr(fptr, "", string(KindItem))
			if err != nil {
				return nil, err
			}
			if err := dir.AddChild(child); err != nil {
				return nil, errors.Wrapf(ErrParse, "cannot add file to '%s': %v", label, err)
			}
		}
		return dir, nil
	}

	if len(fptrs) == 0 {
		p.logger.Debug().Msgf("skipping div '%s' of type %s without fptr", label, divType)
		return nil, nil
	}
	e, err := p.fromFptr(fptrs[0], label, divType)
	if err != nil {
		return nil, err
	}
	if err := p.attachDMDSecs(e, attr(el, "DMDID")); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) fromFptr(fptr *etree.Element, label, divType string) (*Entry, error) {
	fileID := attr(fptr, "FILEID")
	rec, ok := p.files[fileID]
	if !ok {
		return nil, errors.Wrapf(ErrParse, "%s exists in structMap but not fileSec", fileID)
	}
	file := rec.el
	groupUUID := strings.TrimPrefix(attr(file, "GROUPID"), GroupIDPrefix)
	kind := EntryKind(divType)
	var uuid string
	switch {
	case strings.HasPrefix(fileID, FileIDPrefix):
		uuid = strings.TrimPrefix(fileID, FileIDPrefix)
	case strings.EqualFold(divType, string(KindAIP)):
		uuid = groupUUID
	default:
		uuid = fileID
	}
	opts := EntryOptions{
		Label:        label,
		Kind:         kind,
		Use:          rec.use,
		UUID:         uuid,
		Checksum:     attr(file, "CHECKSUM"),
		ChecksumType: attr(file, "CHECKSUMTYPE"),
	}
	if flocat := firstMETS(file, "FLocat"); flocat != nil {
		if href, ok := attrNS(flocat, NSXLink, "href"); ok {
			location, err := URLDecode(href)
			if err != nil {
				return nil, errors.Wrapf(ErrParse, "invalid href '%s' of %s: %v", href, fileID, err)
			}
			opts.Path = location
		}
	}
	for _, tfEl := range childrenMETS(file, "transformFile") {
		tf, err := parseTransformFile(tfEl)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid transformFile of %s", fileID)
		}
		opts.TransformFiles = append(opts.TransformFiles, tf)
	}
	e, err := p.factory.NewEntry(opts)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "invalid file %s: %v", fileID, err)
	}
	if rec.use == "" {
		e.use = ""
	}
	p.entries++
	if err := p.attachAMDSecs(e, attr(file, "ADMID")); err != nil {
		return nil, err
	}
	if groupUUID != "" && groupUUID != uuid {
		p.pending = append(p.pending, pendingDerivation{entry: e, uuid: groupUUID})
	}
	return e, nil
}
