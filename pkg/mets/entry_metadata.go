package mets

import (
	"emperror.dev/errors"
)

// Identified is implemented by payloads carrying their own identifier,
// e.g. PREMIS events.
type Identified interface {
	Identifier() string
}

func (e *Entry) AMDSecs() []*AMDSec {
	return append([]*AMDSec{}, e.amdsecs...)
}

func (e *Entry) DMDSecs() []*SubSection {
	return append([]*SubSection{}, e.dmdsecs...)
}

func (e *Entry) AdmIDs() []string {
	var ids []string
	for _, a := range e.amdsecs {
		ids = append(ids, a.id)
	}
	return ids
}

func (e *Entry) DmdIDs() []string {
	var ids []string
	for _, d := range e.dmdsecs {
		ids = append(ids, d.id)
	}
	return ids
}

func (e *Entry) addAMD(category Category, contents Contents) (*SubSection, error) {
	s, err := e.factory.NewSubSection(category, contents)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(e.amdsecs) == 0 {
		e.amdsecs = append(e.amdsecs, e.factory.NewAMDSec())
	}
	if err := e.amdsecs[0].Add(s); err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}

func (e *Entry) AddTechMD(contents Contents) (*SubSection, error) {
	return e.addAMD(CategoryTechMD, contents)
}

func (e *Entry) AddRightsMD(contents Contents) (*SubSection, error) {
	return e.addAMD(CategoryRightsMD, contents)
}

func (e *Entry) AddSourceMD(contents Contents) (*SubSection, error) {
	return e.addAMD(CategorySourceMD, contents)
}

func (e *Entry) AddDigiprovMD(contents Contents) (*SubSection, error) {
	return e.addAMD(CategoryDigiprovMD, contents)
}

// AddDMDSec appends a descriptive record. A record of an already present
// metadata type supersedes the latest record of that type.
func (e *Entry) AddDMDSec(contents Contents) (*SubSection, error) {
	s, err := e.factory.NewSubSection(CategoryDMDSec, contents)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	key := s.MDTypeKey()
	chain := e.dmdsecsByKey[key]
	if len(chain) == 0 {
		s.GroupID = s.id
	} else {
		if err := chain[len(chain)-1].ReplaceWith(s); err != nil {
			return nil, errors.WithStack(err)
		}
		s.GroupID = chain[0].GroupID
	}
	e.dmdsecs = append(e.dmdsecs, s)
	e.dmdsecsByKey[key] = append(chain, s)
	return s, nil
}

// attachDMDSec adds a parsed record without touching its chain links.
func (e *Entry) attachDMDSec(s *SubSection) {
	key := s.MDTypeKey()
	e.dmdsecs = append(e.dmdsecs, s)
	e.dmdsecsByKey[key] = append(e.dmdsecsByKey[key], s)
}

func (e *Entry) attachAMDSec(a *AMDSec) {
	e.amdsecs = append(e.amdsecs, a)
}

func (e *Entry) HasDMDSec(mdtype, othermdtype string) bool {
	return len(e.dmdsecsByKey[MDTypeKey(mdtype, othermdtype)]) > 0
}

// DMDSecsByMDType groups the descriptive records by MDTypeKey, oldest first.
func (e *Entry) DMDSecsByMDType() map[string][]*SubSection {
	result := map[string][]*SubSection{}
	for key, chain := range e.dmdsecsByKey {
		result[key] = append([]*SubSection{}, chain...)
	}
	return result
}

// DeleteDMDSec marks the active record of the type as deleted. History is kept.
func (e *Entry) DeleteDMDSec(mdtype, othermdtype string) bool {
	chain := e.dmdsecsByKey[MDTypeKey(mdtype, othermdtype)]
	if len(chain) == 0 {
		return false
	}
	active := chain[len(chain)-1]
	if active.Status() == StatusDeleted {
		return false
	}
	active.SetStatus(StatusDeleted)
	return true
}

func (e *Entry) wrap(mdtype string, md Metadata) (*MDWrap, error) {
	wrap, err := NewMDWrapMetadata(mdtype, md)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot wrap %s for '%s'", mdtype, e.Path())
	}
	return wrap, nil
}

// AddPremisObject adds a PREMIS object as techMD. Empty directories have
// no fileSec entry, their object goes into a dmdSec.
func (e *Entry) AddPremisObject(md Metadata) (*SubSection, error) {
	wrap, err := e.wrap(MDTypePremisObject, md)
	if err != nil {
		return nil, err
	}
	if e.IsEmptyDir() {
		return e.AddDMDSec(wrap)
	}
	return e.AddTechMD(wrap)
}

func (e *Entry) AddPremisEvent(md Metadata) (*SubSection, error) {
	wrap, err := e.wrap(MDTypePremisEvent, md)
	if err != nil {
		return nil, err
	}
	return e.AddDigiprovMD(wrap)
}

func (e *Entry) AddPremisAgent(md Metadata) (*SubSection, error) {
	wrap, err := e.wrap(MDTypePremisAgent, md)
	if err != nil {
		return nil, err
	}
	return e.AddDigiprovMD(wrap)
}

func (e *Entry) AddPremisRights(md Metadata) (*SubSection, error) {
	wrap, err := e.wrap(MDTypePremisRights, md)
	if err != nil {
		return nil, err
	}
	return e.AddRightsMD(wrap)
}

func (e *Entry) AddDublinCore(md Metadata) (*SubSection, error) {
	wrap, err := e.wrap(MDTypeDC, md)
	if err != nil {
		return nil, err
	}
	return e.AddDMDSec(wrap)
}

// SubSectionsOfType returns all administrative and descriptive records with the given MDTYPE.
func (e *Entry) SubSectionsOfType(mdtype string) []*SubSection {
	var result []*SubSection
	for _, a := range e.amdsecs {
		for _, s := range a.subsections {
			if s.contents.MDType() == mdtype {
				result = append(result, s)
			}
		}
	}
	for _, s := range e.dmdsecs {
		if s.contents.MDType() == mdtype {
			result = append(result, s)
		}
	}
	return result
}

// Metadata decodes every embedded record of the given MDTYPE.
func (e *Entry) Metadata(mdtype string) ([]Metadata, error) {
	var result []Metadata
	for _, s := range e.SubSectionsOfType(mdtype) {
		if _, ok := s.contents.(*MDWrap); !ok {
			continue
		}
		md, err := e.factory.Decode(s)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		result = append(result, md)
	}
	return result, nil
}

func (e *Entry) PremisObjects() ([]Metadata, error) {
	return e.Metadata(MDTypePremisObject)
}

func (e *Entry) PremisEvents() ([]Metadata, error) {
	return e.Metadata(MDTypePremisEvent)
}

func (e *Entry) PremisAgents() ([]Metadata, error) {
	return e.Metadata(MDTypePremisAgent)
}

// PremisEvent returns the event with the given identifier or nil.
func (e *Entry) PremisEvent(identifier string) (Metadata, error) {
	events, err := e.PremisEvents()
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		if id, ok := event.(Identified); ok && id.Identifier() == identifier {
			return event, nil
		}
	}
	return nil, nil
}
