package premis

import (
	"strings"
	"testing"

	"emperror.dev/errors"
	"github.com/beevik/etree"
	"github.com/go-test/deep"
	"github.com/google/uuid"
)

func TestSnakeCamel(t *testing.T) {
	cases := map[string]string{
		"object_identifier_type":      "objectIdentifierType",
		"date_created_by_application": "dateCreatedByApplication",
		"schema_location":             "schemaLocation",
		"authority_uri":               "authorityURI",
		"size":                        "size",
	}
	for snake, camel := range cases {
		if got := SnakeToCamel(snake); got != camel {
			t.Errorf("SnakeToCamel(%s) = %s, expected %s", snake, got, camel)
		}
		if got := CamelToSnake(camel); got != snake {
			t.Errorf("CamelToSnake(%s) = %s, expected %s", camel, got, snake)
		}
	}
}

func TestPathsOf(t *testing.T) {
	paths := PathsOf(agentSchema(Version22))
	expected := Paths{
		"agent_identifier":                        "agent_identifier",
		"identifier":                              "agent_identifier",
		"agent_identifier_type":                   "agent_identifier/agent_identifier_type",
		"identifier_type":                         "agent_identifier/agent_identifier_type",
		"agent_identifier/agent_identifier_type":  "agent_identifier/agent_identifier_type",
		"agent_identifier_value":                  "agent_identifier/agent_identifier_value",
		"identifier_value":                        "agent_identifier/agent_identifier_value",
		"agent_identifier/agent_identifier_value": "agent_identifier/agent_identifier_value",
		"agent_name":                              "agent_name",
		"name":                                    "agent_name",
		"agent_type":                              "agent_type",
		"type":                                    "agent_type",
	}
	if diff := deep.Equal(paths, expected); diff != nil {
		t.Error(diff)
	}
	if path, ok := paths.Resolve("agent_identifier__agent_identifier_value"); !ok || path != "agent_identifier/agent_identifier_value" {
		t.Errorf("cannot resolve double underscore path: %s", path)
	}
}

func TestPathsOfAncestors(t *testing.T) {
	paths := PathsOf(objectSchema(Version22))
	for name, path := range map[string]string{
		"fixity":                        "object_characteristics/fixity",
		"message_digest":                "object_characteristics/fixity/message_digest",
		"inhibitors":                    "object_characteristics/inhibitors",
		"characteristics":               "object_characteristics",
		"relationship":                  "relationship",
		"related_object_identification": "relationship/related_object_identification",
	} {
		if paths[name] != path {
			t.Errorf("%s: expected %s, got %s", name, path, paths[name])
		}
	}
}

func TestGenerateData(t *testing.T) {
	el := GenerateData(agentSchema(Version22), Values{
		"agent_identifier_type":                   "preservation system",
		"agent_identifier/agent_identifier_value": "Archivematica-1.7",
		"agent_name":                              "Archivematica",
		"agent_type":                              "",
	}, map[string]string{"version": Version22})
	expected := &Element{
		Tag:   "agent",
		Attrs: map[string]string{"version": Version22},
		Children: []Node{
			NewElement("agent_identifier",
				NewLeaf("agent_identifier_type", "preservation system"),
				NewLeaf("agent_identifier_value", "Archivematica-1.7"),
			),
			NewLeaf("agent_name", "Archivematica"),
		},
	}
	if diff := deep.Equal(el, expected); diff != nil {
		t.Error(diff)
	}
	if !el.Equal(expected) {
		t.Errorf("elements should be equal")
	}
}

func TestGenerateDataSubtree(t *testing.T) {
	fixity := NewFixity(Version22, "sha256", "abcd", "")
	el := GenerateData(objectSchema(Version22), Values{
		"fixity": []*Element{fixity, NewFixity(Version22, "md5", "ef01", "")},
		"size":   123,
	}, nil)
	fixities := el.FindAll("object_characteristics/fixity")
	if len(fixities) != 2 {
		t.Fatalf("expected 2 fixity elements, got %d", len(fixities))
	}
	if got := fixities[0].FindText("message_digest_algorithm"); got != "SHA-256" {
		t.Errorf("unexpected algorithm %s", got)
	}
	if got := el.FindText("object_characteristics/size"); got != "123" {
		t.Errorf("unexpected size %s", got)
	}
	if el.Find("object_identifier") != nil {
		t.Errorf("empty subtree must be omitted")
	}
}

func TestObjectDefaults(t *testing.T) {
	obj, err := NewObject(Version22, Values{
		"message_digest_algorithm": "sha256",
		"message_digest":           "abcd",
		"size":                     "12",
		"format_name":              "Portable Document Format",
	})
	if err != nil {
		t.Fatalf("cannot create object: %v", err)
	}
	if obj.IdentifierType() != "UUID" {
		t.Errorf("unexpected identifier type %s", obj.IdentifierType())
	}
	if _, err := uuid.Parse(obj.IdentifierValue()); err != nil {
		t.Errorf("identifier is no uuid: %v", err)
	}
	if obj.CompositionLevel() != "1" {
		t.Errorf("unexpected composition level %s", obj.CompositionLevel())
	}
	if obj.Text("format_registry_name") != "PRONOM" {
		t.Errorf("unexpected registry %s", obj.Text("format_registry_name"))
	}
	if obj.Text("date_created_by_application") == "" {
		t.Errorf("missing creation date")
	}
	if obj.Size() != 12 {
		t.Errorf("unexpected size %d", obj.Size())
	}
	if obj.Find("relationship") != nil {
		t.Errorf("empty relationship must be omitted")
	}
	other, err := NewObject(Version22, nil)
	if err != nil {
		t.Fatalf("cannot create object: %v", err)
	}
	if other.Identifier() == obj.Identifier() {
		t.Errorf("default identifiers must differ")
	}
}

func TestStrictConstruction(t *testing.T) {
	if _, err := NewAgent(Version22, Values{"agent_name": "Archivematica"}, Strict()); !errors.Is(err, ErrConstruction) {
		t.Errorf("expected construction error, got %v", err)
	}
	if _, err := NewAgent(Version22, Values{"agent_name": "Archivematica"}); err != nil {
		t.Errorf("lenient construction failed: %v", err)
	}
	if _, err := NewAgent(Version22, Values{"agent_nickname": "AM"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected unknown field error, got %v", err)
	}
}

func newTestAgent(t *testing.T, value string) *Agent {
	t.Helper()
	agent, err := NewAgent(Version22, Values{
		"identifier_type":  "preservation system",
		"identifier_value": value,
		"name":             "Archivematica",
		"type":             "software",
	}, Strict())
	if err != nil {
		t.Fatalf("cannot create agent: %v", err)
	}
	return agent
}

func TestGet(t *testing.T) {
	a1 := newTestAgent(t, "Archivematica-1.7")
	a2 := newTestAgent(t, "Archivematica-1.8")
	event, err := NewEvent(Version22, Values{
		"event_type":               "ingestion",
		"linking_agent_identifier": []*Element{a1.LinkingIdentifier(), a2.LinkingIdentifier()},
	})
	if err != nil {
		t.Fatalf("cannot create event: %v", err)
	}
	v, err := event.Get("type")
	if err != nil {
		t.Fatal(err)
	}
	if v != Leaf("ingestion") {
		t.Errorf("unexpected type %v", v)
	}
	v, err = event.Get("event_identifier__event_identifier_type")
	if err != nil || v != Leaf("UUID") {
		t.Errorf("unexpected identifier type %v: %v", v, err)
	}
	v, err = event.Get("linking_agent_identifier")
	if err != nil {
		t.Fatal(err)
	}
	nodes, ok := v.(Nodes)
	if !ok || len(nodes) != 2 {
		t.Fatalf("expected 2 linking agents, got %v", v)
	}
	if got := nodes[1].Text("value"); got != "Archivematica-1.8" {
		t.Errorf("unexpected nested value %s", got)
	}
	expected := []Identifier{
		{Type: "preservation system", Value: "Archivematica-1.7"},
		{Type: "preservation system", Value: "Archivematica-1.8"},
	}
	if diff := deep.Equal(event.LinkingAgents(), expected); diff != nil {
		t.Error(diff)
	}
}

func TestGetAttributes(t *testing.T) {
	obj, err := NewObject(Version22, Values{"xsi_type": "premis:file"})
	if err != nil {
		t.Fatalf("cannot create object: %v", err)
	}
	location, _ := SchemaLocation(Version22)
	for name, expected := range map[string]string{
		"version":              Version22,
		"xsi_schema_location":  location,
		"schema_location":      location,
		"xsi__schema_location": location,
		"xsi__type":            "premis:file",
	} {
		v, err := obj.Get(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if v != Leaf(expected) {
			t.Errorf("%s: expected %s, got %v", name, expected, v)
		}
	}
	_, err = obj.Get("nonexistent")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), "message_digest") {
		t.Errorf("error should list valid fields: %v", err)
	}
}

func TestFind(t *testing.T) {
	el := NewElement("rights",
		NewElement("rights_statement", NewElement("rights_granted", NewLeaf("act", "disseminate"))),
		NewElement("rights_statement", NewElement("rights_granted", NewLeaf("act", "delete"))),
	)
	acts := el.FindAll("rights_statement/rights_granted/act")
	if len(acts) != 2 {
		t.Fatalf("expected 2 acts, got %d", len(acts))
	}
	if got := el.FindText("rights_statement/rights_granted/act"); got != "disseminate" {
		t.Errorf("unexpected first act %s", got)
	}
	if el.Find("rights_granted") != nil {
		t.Errorf("find must only match direct children")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, version := range []string{Version21, Version22, Version30} {
		obj, err := NewObject(version, Values{
			"fixity":                          NewFixity(version, "sha256", "abcd", "Archivematica"),
			"size":                            "12",
			"original_name":                   "%transferDirectory%objects/a.txt",
			"relationship_type":               "derivation",
			"related_object_identifier_type":  "UUID",
			"related_object_identifier_value": "0b1a5c4e-4d0d-4b6e-9fd5-2f6c3c9e2f11",
			"xsi_type":                        "premis:file",
		})
		if err != nil {
			t.Fatalf("%s: cannot create object: %v", version, err)
		}
		event, err := NewEvent(version, Values{
			"event_type":    "compression",
			"event_detail":  `program="7z"; version="9.20"; algorithm="bzip2"`,
			"event_outcome": "success",
		})
		if err != nil {
			t.Fatalf("%s: cannot create event: %v", version, err)
		}
		blank, err := NewObject(version, Values{
			"size":          "12",
			"original_name": " ",
			"format_name":   AttrValue{Value: "\n  "},
		})
		if err != nil {
			t.Fatalf("%s: cannot create object: %v", version, err)
		}
		if blank.Find("original_name") != nil {
			t.Errorf("%s: whitespace original_name must be omitted", version)
		}
		for _, r := range []*Record{obj.Record, event.Record, blank.Record} {
			x, err := r.Serialize()
			if err != nil {
				t.Fatalf("%s: cannot serialize %s: %v", version, r.Tag(), err)
			}
			doc := etree.NewDocument()
			doc.SetRoot(x)
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
				t.Fatalf("%s: cannot parse %s: %v", version, r.Tag(), err)
			}
			if diff := deep.Equal(parsed.Data(), r.Data()); diff != nil {
				t.Errorf("%s: %s round trip: %v", version, r.Tag(), diff)
			}
			if parsed.Kind().Name != r.Tag() {
				t.Errorf("%s: parsed kind %s", version, parsed.Kind().Name)
			}
		}
	}
}

func TestSerializeVersions(t *testing.T) {
	for version, related := range map[string]string{
		Version22: "relatedObjectIdentification",
		Version30: "relatedObjectIdentifier",
	} {
		obj, err := NewObject(version, Values{
			"relationship_type":               "derivation",
			"related_object_identifier_value": "x",
		})
		if err != nil {
			t.Fatal(err)
		}
		x, err := obj.Serialize()
		if err != nil {
			t.Fatal(err)
		}
		ns, _ := Namespace(version)
		if x.FullTag() != "premis:object" || x.SelectAttrValue("xmlns:premis", "") != ns {
			t.Errorf("%s: unexpected root %s in %s", version, x.FullTag(), x.SelectAttrValue("xmlns:premis", ""))
		}
		if x.SelectAttrValue("version", "") != version {
			t.Errorf("%s: wrong version attribute", version)
		}
		if x.SelectAttr("xsi:schemaLocation") == nil {
			t.Errorf("%s: missing schema location", version)
		}
		if x.FindElement("./premis:relationship/premis:"+related) == nil {
			t.Errorf("%s: missing %s", version, related)
		}
	}
}

func TestParseDefaultNamespace(t *testing.T) {
	doc := etree.NewDocument()
	err := doc.ReadFromString(`<agent xmlns="http://www.loc.gov/premis/v3">
  <agentIdentifier>
    <agentIdentifierType>preservation system</agentIdentifierType>
    <agentIdentifierValue>Archivematica-1.7</agentIdentifierValue>
  </agentIdentifier>
  <agentName>Archivematica</agentName>
</agent>`)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Parse(doc.Root())
	if err != nil {
		t.Fatalf("cannot parse: %v", err)
	}
	agent, err := AsAgent(r)
	if err != nil {
		t.Fatal(err)
	}
	if r.Version() != Version30 {
		t.Errorf("expected version from namespace, got %s", r.Version())
	}
	if agent.Name() != "Archivematica" || agent.IdentifierValue() != "Archivematica-1.7" {
		t.Errorf("unexpected agent %s/%s", agent.Name(), agent.IdentifierValue())
	}
	if _, err := AsEvent(r); !errors.Is(err, ErrParse) {
		t.Errorf("agent must not be an event")
	}
}

func TestFixity(t *testing.T) {
	f := NewFixity(Version30, "sha256", "abcd", "")
	alg := f.Find("message_digest_algorithm")
	if alg.Attrs["authority"] != "cryptographicHashFunctions" {
		t.Errorf("missing authority")
	}
	if text, _ := alg.Text(); text != "SHA-256" {
		t.Errorf("unexpected algorithm %s", text)
	}
	if f.Find("message_digest_originator") != nil {
		t.Errorf("empty originator must be omitted")
	}
	if attrs := NewFixity(Version22, "sha256", "abcd", "").Find("message_digest_algorithm").Attrs; attrs != nil {
		t.Errorf("premis 2 has no authority attributes: %v", attrs)
	}
	if DigestAlgorithmName("blake2b-256") != "blake2b-256" {
		t.Errorf("unknown algorithms are kept")
	}
}
