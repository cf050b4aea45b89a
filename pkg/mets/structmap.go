package mets

import (
	"emperror.dev/errors"
	"github.com/beevik/etree"
)

const (
	PhysicalStructMapID    = "structMap_1"
	PhysicalStructMapLabel = "Archivematica default"
	PhysicalStructMapType  = "physical"

	NormativeStructMapID    = "structMap_2"
	NormativeStructMapLabel = "Normative Directory Structure"
	NormativeStructMapType  = "logical"
)

func (e *Entry) placeholder() bool {
	return e.label == "" && e.path == ""
}

// inPhysical reports whether e gets a div in the physical structMap.
func (e *Entry) inPhysical() bool {
	return !e.placeholder() && !e.IsEmptyDir()
}

func (e *Entry) structDiv(sc *serialContext, normative bool) (*etree.Element, error) {
	if !normative && !e.inPhysical() {
		return nil, nil
	}
	div := newMETS("div", sc.qualified)
	div.CreateAttr("TYPE", e.DivType())
	if e.label != "" {
		div.CreateAttr("LABEL", e.label)
	}
	// in the normative map only entries missing from the physical map carry references
	if !normative || !e.inPhysical() {
		if dmdids := e.DmdIDs(); len(dmdids) > 0 {
			div.CreateAttr("DMDID", joinIDs(dmdids))
		}
		if admids := e.AdmIDs(); len(admids) > 0 && e.IsDirectory() {
			div.CreateAttr("ADMID", joinIDs(admids))
		}
	}
	if !normative && !e.IsDirectory() && e.use != "" {
		fileID, err := e.FileID()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		fptr := addMETS(div, "fptr", sc.qualified)
		fptr.CreateAttr("FILEID", fileID)
	}
	for _, child := range e.children {
		childDiv, err := child.structDiv(sc, normative)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if childDiv != nil {
			div.AddChild(childDiv)
		}
	}
	return div, nil
}

func structMap(roots []*Entry, sc *serialContext, normative bool) (*etree.Element, error) {
	sm := newMETS("structMap", sc.qualified)
	if normative {
		sm.CreateAttr("TYPE", NormativeStructMapType)
		sm.CreateAttr("ID", NormativeStructMapID)
		sm.CreateAttr("LABEL", NormativeStructMapLabel)
	} else {
		sm.CreateAttr("TYPE", PhysicalStructMapType)
		sm.CreateAttr("ID", PhysicalStructMapID)
		sm.CreateAttr("LABEL", PhysicalStructMapLabel)
	}
	for _, root := range roots {
		div, err := root.structDiv(sc, normative)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot build structMap %s", sm.SelectAttrValue("ID", ""))
		}
		if div != nil {
			sm.AddChild(div)
		}
	}
	return sm, nil
}

// needsNormative reports whether any reachable entry is missing from the physical map.
func needsNormative(entries []*Entry) bool {
	for _, e := range entries {
		if !e.inPhysical() {
			return true
		}
	}
	return false
}
