package mets

import (
	"slices"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

var (
	AgentRoles = []string{"CREATOR", "EDITOR", "ARCHIVIST", "PRESERVATION", "DISSEMINATOR", "CUSTODIAN", "IPOWNER"}
	AgentTypes = []string{"INDIVIDUAL", "ORGANIZATION"}
)

const otherValue = "OTHER"

// Agent is a metsHdr agent. Roles and types outside the controlled
// vocabularies are written as OTHER with OTHERROLE / OTHERTYPE.
type Agent struct {
	Role  string
	Type  string
	ID    string
	Name  string
	Notes []string
}

func (a *Agent) serialize(sc *serialContext) *etree.Element {
	el := newMETS("agent", sc.qualified)
	if a.ID != "" {
		el.CreateAttr("ID", a.ID)
	}
	if slices.Contains(AgentRoles, a.Role) {
		el.CreateAttr("ROLE", a.Role)
	} else {
		el.CreateAttr("ROLE", otherValue)
		el.CreateAttr("OTHERROLE", a.Role)
	}
	if a.Type != "" {
		if slices.Contains(AgentTypes, a.Type) {
			el.CreateAttr("TYPE", a.Type)
		} else {
			el.CreateAttr("TYPE", otherValue)
			el.CreateAttr("OTHERTYPE", a.Type)
		}
	}
	if a.Name != "" {
		addMETS(el, "name", sc.qualified).SetText(a.Name)
	}
	for _, note := range a.Notes {
		addMETS(el, "note", sc.qualified).SetText(note)
	}
	return el
}

func parseAgent(el *etree.Element) (*Agent, error) {
	if !isMETS(el, "agent") {
		return nil, errors.Wrapf(ErrParse, "expected agent, got <%s>", el.FullTag())
	}
	a := &Agent{
		ID:   attr(el, "ID"),
		Role: attr(el, "ROLE"),
		Type: attr(el, "TYPE"),
	}
	if a.Role == "" {
		return nil, errors.Wrap(ErrParse, "agent has no ROLE")
	}
	if a.Role == otherValue {
		if other := attr(el, "OTHERROLE"); other != "" {
			a.Role = other
		}
	}
	if a.Type == otherValue {
		if other := attr(el, "OTHERTYPE"); other != "" {
			a.Type = other
		}
	}
	if name := firstMETS(el, "name"); name != nil {
		a.Name = name.Text()
	}
	for _, note := range childrenMETS(el, "note") {
		a.Notes = append(a.Notes, note.Text())
	}
	return a, nil
}

// AltRecordID is an alternative identifier of the whole document.
type AltRecordID struct {
	Value string
	ID    string
	Type  string
}

func (r *AltRecordID) serialize(sc *serialContext) *etree.Element {
	el := newMETS("altRecordID", sc.qualified)
	if r.ID != "" {
		el.CreateAttr("ID", r.ID)
	}
	if r.Type != "" {
		el.CreateAttr("TYPE", r.Type)
	}
	el.SetText(r.Value)
	return el
}

func parseAltRecordID(el *etree.Element) (*AltRecordID, error) {
	if !isMETS(el, "altRecordID") {
		return nil, errors.Wrapf(ErrParse, "expected altRecordID, got <%s>", el.FullTag())
	}
	return &AltRecordID{
		Value: el.Text(),
		ID:    attr(el, "ID"),
		Type:  attr(el, "TYPE"),
	}, nil
}
