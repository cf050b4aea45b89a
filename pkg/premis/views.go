package premis

import (
	"strconv"

	"emperror.dev/errors"
)

// Identifier is an identifier type and value pair.
type Identifier struct {
	Type  string
	Value string
}

func identifiers(nodes Nodes, typeField, valueField string) []Identifier {
	var result []Identifier
	for _, n := range nodes {
		result = append(result, Identifier{
			Type:  n.FindText(typeField),
			Value: n.FindText(valueField),
		})
	}
	return result
}

func newView(name, version string, values Values, opts []Option) (*Record, error) {
	k, err := KindOf(name, version)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	r, err := k.New(values, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create premis %s", name)
	}
	return r, nil
}

func asView(name string, r *Record) (*Record, error) {
	if r == nil || r.Tag() != name {
		return nil, errors.Wrapf(ErrParse, "record is not a premis %s", name)
	}
	return r, nil
}

type Object struct {
	*Record
}

func NewObject(version string, values Values, opts ...Option) (*Object, error) {
	r, err := newView(KindObject, version, values, opts)
	if err != nil {
		return nil, err
	}
	return &Object{r}, nil
}

func AsObject(r *Record) (*Object, error) {
	r, err := asView(KindObject, r)
	if err != nil {
		return nil, err
	}
	return &Object{r}, nil
}

func (o *Object) IdentifierType() string  { return o.Text("object_identifier_type") }
func (o *Object) IdentifierValue() string { return o.Text("object_identifier_value") }
func (o *Object) CompositionLevel() string {
	return o.Text("composition_level")
}
func (o *Object) MessageDigestAlgorithm() string {
	return o.Text("message_digest_algorithm")
}
func (o *Object) MessageDigest() string { return o.Text("message_digest") }
func (o *Object) FormatName() string    { return o.Text("format_name") }
func (o *Object) FormatVersion() string { return o.Text("format_version") }
func (o *Object) FormatRegistryKey() string {
	return o.Text("format_registry_key")
}
func (o *Object) OriginalName() string { return o.Text("original_name") }

// Size returns the object size, -1 if unknown.
func (o *Object) Size() int64 {
	size, err := strconv.ParseInt(o.Text("size"), 10, 64)
	if err != nil {
		return -1
	}
	return size
}

func (o *Object) Relationships() Nodes {
	return o.All("relationship")
}

type Event struct {
	*Record
}

func NewEvent(version string, values Values, opts ...Option) (*Event, error) {
	r, err := newView(KindEvent, version, values, opts)
	if err != nil {
		return nil, err
	}
	return &Event{r}, nil
}

func AsEvent(r *Record) (*Event, error) {
	r, err := asView(KindEvent, r)
	if err != nil {
		return nil, err
	}
	return &Event{r}, nil
}

func (e *Event) IdentifierValue() string { return e.Text("event_identifier_value") }
func (e *Event) Type() string            { return e.Text("event_type") }
func (e *Event) DateTime() string        { return e.Text("event_date_time") }
func (e *Event) Detail() string          { return e.Text("event_detail") }
func (e *Event) Outcome() string         { return e.Text("event_outcome") }
func (e *Event) OutcomeDetailNote() string {
	return e.Text("event_outcome_detail_note")
}

func (e *Event) LinkingAgents() []Identifier {
	return identifiers(e.All("linking_agent_identifier"), "linking_agent_identifier_type", "linking_agent_identifier_value")
}

func (e *Event) LinkingObjects() []Identifier {
	return identifiers(e.All("linking_object_identifier"), "linking_object_identifier_type", "linking_object_identifier_value")
}

type Agent struct {
	*Record
}

func NewAgent(version string, values Values, opts ...Option) (*Agent, error) {
	r, err := newView(KindAgent, version, values, opts)
	if err != nil {
		return nil, err
	}
	return &Agent{r}, nil
}

func AsAgent(r *Record) (*Agent, error) {
	r, err := asView(KindAgent, r)
	if err != nil {
		return nil, err
	}
	return &Agent{r}, nil
}

func (a *Agent) IdentifierType() string  { return a.Text("agent_identifier_type") }
func (a *Agent) IdentifierValue() string { return a.Text("agent_identifier_value") }
func (a *Agent) Name() string            { return a.Text("agent_name") }
func (a *Agent) Type() string            { return a.Text("agent_type") }

// LinkingIdentifier returns the agent as an event's linking agent.
func (a *Agent) LinkingIdentifier() *Element {
	return NewElement("linking_agent_identifier",
		NewLeaf("linking_agent_identifier_type", a.IdentifierType()),
		NewLeaf("linking_agent_identifier_value", a.IdentifierValue()),
	)
}

type Rights struct {
	*Record
}

func NewRights(version string, values Values, opts ...Option) (*Rights, error) {
	r, err := newView(KindRights, version, values, opts)
	if err != nil {
		return nil, err
	}
	return &Rights{r}, nil
}

func AsRights(r *Record) (*Rights, error) {
	r, err := asView(KindRights, r)
	if err != nil {
		return nil, err
	}
	return &Rights{r}, nil
}

func (r *Rights) Basis() string { return r.Text("rights_basis") }
func (r *Rights) Act() string   { return r.Text("act") }
