package mets

import (
	"sort"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

type Category string

const (
	CategoryTechMD     Category = "techMD"
	CategoryRightsMD   Category = "rightsMD"
	CategorySourceMD   Category = "sourceMD"
	CategoryDigiprovMD Category = "digiprovMD"
	CategoryDMDSec     Category = "dmdSec"

	amdSecPrefix = "amdSec"
)

// AMDCategories lists the administrative categories in serialization order.
var AMDCategories = []Category{
	CategoryTechMD,
	CategoryRightsMD,
	CategorySourceMD,
	CategoryDigiprovMD,
}

func (c Category) precedence() int {
	for i, cat := range AMDCategories {
		if cat == c {
			return i
		}
	}
	return len(AMDCategories)
}

func (c Category) valid() bool {
	return c == CategoryDMDSec || c.precedence() < len(AMDCategories)
}

// status tokens
const (
	StatusOriginal   = "original"
	StatusUpdate     = "update"
	StatusSuperseded = "superseded"
	StatusCurrent    = "current"
	StatusDeleted    = "deleted"
)

// Metadata is a typed payload which renders itself as an XML element.
type Metadata interface {
	Serialize() (*etree.Element, error)
}

// DecodeFunc builds a typed payload from an embedded XML document.
type DecodeFunc func(el *etree.Element) (Metadata, error)

// Contents is the body of a SubSection, either *MDWrap or *MDRef.
type Contents interface {
	MDType() string
	OtherMDType() string
	serialize(sc *serialContext) (*etree.Element, error)
}

// MDTypeKey groups descriptive records of the same metadata type.
func MDTypeKey(mdtype, othermdtype string) string {
	if othermdtype == "" {
		return mdtype
	}
	return mdtype + "_" + othermdtype
}

// SubSection is one metadata record (dmdSec or one of the amdSec children).
type SubSection struct {
	category Category
	contents Contents
	id       string
	status   string
	deleted  bool
	older    *SubSection
	newer    *SubSection

	// Created is written as CREATED; empty means serialization time.
	Created string
	GroupID string
}

func newSubSection(ids *IDSpace, category Category, contents Contents) (*SubSection, error) {
	if !category.valid() {
		return nil, errors.Wrapf(ErrConstruction, "invalid metadata category '%s'", category)
	}
	if contents == nil {
		return nil, errors.Wrapf(ErrConstruction, "no contents for %s", category)
	}
	return &SubSection{
		category: category,
		contents: contents,
		id:       ids.Next(string(category)),
	}, nil
}

func (s *SubSection) ID() string { return s.id }
func (s *SubSection) Category() Category { return s.category }
func (s *SubSection) Contents() Contents { return s.contents }
func (s *SubSection) Older() *SubSection { return s.older }
func (s *SubSection) Newer() *SubSection { return s.newer }
func (s *SubSection) MDTypeKey() string { return MDTypeKey(s.contents.MDType(), s.contents.OtherMDType()) }
func (s *SubSection) Deleted() bool { return s.deleted }

// SetStatus sets an explicit status. "deleted" is kept apart from the
// supersession status and survives later replacements.
func (s *SubSection) SetStatus(status string) {
	if status == StatusDeleted {
		s.deleted = true
		return
	}
	s.status = status
}

// Status returns "deleted" for deleted records, the explicit status if
// one was set, the computed one otherwise.
func (s *SubSection) Status() string {
	if s.deleted {
		return StatusDeleted
	}
	if s.status != "" {
		return s.status
	}
	switch s.category {
	case CategoryDMDSec:
		status := StatusOriginal
		if s.older != nil {
			status = StatusUpdate
		}
		if s.newer != nil {
			status += "-" + StatusSuperseded
		}
		return status
	case CategoryTechMD, CategoryRightsMD:
		if s.newer == nil {
			return StatusCurrent
		}
		return StatusSuperseded
	}
	return ""
}

// ReplaceWith marks newer as the successor of s.
func (s *SubSection) ReplaceWith(newer *SubSection) error {
	if newer == nil {
		return errors.Wrap(ErrDomain, "cannot replace with nil")
	}
	if newer.category != s.category {
		return errors.Wrapf(ErrDomain, "%s can only be replaced by another %s, not %s", s.category, s.category, newer.category)
	}
	if newer == s {
		return errors.Wrapf(ErrDomain, "%s cannot replace itself", s.id)
	}
	s.newer = newer
	newer.older = s
	s.status = ""
	return nil
}

func (s *SubSection) serialize(sc *serialContext) (*etree.Element, error) {
	el := newMETS(string(s.category), sc.qualified)
	el.CreateAttr("ID", s.id)
	created := s.Created
	if created == "" {
		created = sc.now
	}
	if created != "" {
		el.CreateAttr("CREATED", created)
	}
	if status := s.Status(); status != "" {
		el.CreateAttr("STATUS", status)
	}
	if s.GroupID != "" {
		el.CreateAttr("GROUPID", s.GroupID)
	}
	child, err := s.contents.serialize(sc)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot serialize contents of %s", s.id)
	}
	el.AddChild(child)
	return el, nil
}

func parseSubSection(ids *IDSpace, el *etree.Element) (*SubSection, error) {
	category := Category(el.Tag)
	if elementNS(el) != NSMETS || !category.valid() {
		return nil, errors.Wrapf(ErrParse, "unexpected metadata section <%s>", el.FullTag())
	}
	s := &SubSection{
		category: category,
		id:       attr(el, "ID"),
		Created:  attr(el, "CREATED"),
		GroupID:  attr(el, "GROUPID"),
	}
	s.SetStatus(attr(el, "STATUS"))
	children := el.ChildElements()
	if len(children) == 0 {
		return nil, errors.Wrapf(ErrParse, "%s '%s' has no mdWrap or mdRef", category, s.id)
	}
	var err error
	switch {
	case isMETS(children[0], "mdWrap"):
		s.contents, err = parseMDWrap(children[0])
	case isMETS(children[0], "mdRef"):
		s.contents, err = parseMDRef(children[0])
	default:
		return nil, errors.Wrapf(ErrParse, "%s '%s': unexpected child <%s>", category, s.id, children[0].FullTag())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse %s '%s'", category, s.id)
	}
	if s.id == "" {
		s.id = ids.Next(string(category))
	} else {
		ids.Register(s.id)
	}
	return s, nil
}

// AMDSec groups the administrative records of an entry.
type AMDSec struct {
	id          string
	subsections []*SubSection
}

func newAMDSec(ids *IDSpace) *AMDSec {
	return &AMDSec{id: ids.Next(amdSecPrefix)}
}

func (a *AMDSec) ID() string { return a.id }

func (a *AMDSec) SubSections() []*SubSection {
	return append([]*SubSection{}, a.subsections...)
}

func (a *AMDSec) Add(s *SubSection) error {
	if s.category == CategoryDMDSec {
		return errors.Wrap(ErrDomain, "dmdSec cannot be part of an amdSec")
	}
	a.subsections = append(a.subsections, s)
	return nil
}

func (a *AMDSec) serialize(sc *serialContext) (*etree.Element, error) {
	el := newMETS("amdSec", sc.qualified)
	el.CreateAttr("ID", a.id)
	subsections := a.SubSections()
	sort.SliceStable(subsections, func(i, j int) bool {
		return subsections[i].category.precedence() < subsections[j].category.precedence()
	})
	for _, s := range subsections {
		child, err := s.serialize(sc)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot serialize %s", a.id)
		}
		el.AddChild(child)
	}
	return el, nil
}

func parseAMDSec(ids *IDSpace, el *etree.Element) (*AMDSec, error) {
	if !isMETS(el, "amdSec") {
		return nil, errors.Wrapf(ErrParse, "expected amdSec, got <%s>", el.FullTag())
	}
	a := &AMDSec{id: attr(el, "ID")}
	if a.id == "" {
		a.id = ids.Next(amdSecPrefix)
	} else {
		ids.Register(a.id)
	}
	for _, child := range el.ChildElements() {
		s, err := parseSubSection(ids, child)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot parse amdSec '%s'", a.id)
		}
		if err := a.Add(s); err != nil {
			return nil, errors.Wrapf(ErrParse, "amdSec '%s': %v", a.id, err)
		}
	}
	return a, nil
}
