package premis

import (
	"emperror.dev/errors"
)

const (
	KindObject = "object"
	KindEvent  = "event"
	KindAgent  = "agent"
	KindRights = "rights"
)

// related object and event identifiers are named differently before 3.0
func relationshipTags(version string) (string, string) {
	if version == Version30 {
		return "related_object_identifier", "related_event_identifier"
	}
	return "related_object_identification", "related_event_identification"
}

func objectSchema(version string) *Schema {
	relatedObject, relatedEvent := relationshipTags(version)
	return S("object",
		S("object_identifier",
			S("object_identifier_type"),
			S("object_identifier_value"),
		),
		S("object_characteristics",
			S("composition_level"),
			S("fixity",
				S("message_digest_algorithm"),
				S("message_digest"),
				S("message_digest_originator"),
			),
			S("size"),
			S("format",
				S("format_designation",
					S("format_name"),
					S("format_version"),
				),
				S("format_registry",
					S("format_registry_name"),
					S("format_registry_key"),
				),
			),
			S("creating_application",
				S("creating_application_name"),
				S("creating_application_version"),
				S("date_created_by_application"),
			),
			S("inhibitors",
				S("inhibitor_type"),
				S("inhibitor_target"),
			),
		),
		S("original_name"),
		S("relationship",
			S("relationship_type"),
			S("relationship_sub_type"),
			S(relatedObject,
				S("related_object_identifier_type"),
				S("related_object_identifier_value"),
			),
			S(relatedEvent,
				S("related_event_identifier_type"),
				S("related_event_identifier_value"),
			),
		),
		S("linking_event_identifier",
			S("linking_event_identifier_type"),
			S("linking_event_identifier_value"),
		),
	)
}

func eventSchema(version string) *Schema {
	detail := S("event_detail")
	if version == Version30 {
		detail = S("event_detail_information", S("event_detail"))
	}
	return S("event",
		S("event_identifier",
			S("event_identifier_type"),
			S("event_identifier_value"),
		),
		S("event_type"),
		S("event_date_time"),
		detail,
		S("event_outcome_information",
			S("event_outcome"),
			S("event_outcome_detail",
				S("event_outcome_detail_note"),
			),
		),
		S("linking_agent_identifier",
			S("linking_agent_identifier_type"),
			S("linking_agent_identifier_value"),
			S("linking_agent_role"),
		),
		S("linking_object_identifier",
			S("linking_object_identifier_type"),
			S("linking_object_identifier_value"),
		),
	)
}

func agentSchema(string) *Schema {
	return S("agent",
		S("agent_identifier",
			S("agent_identifier_type"),
			S("agent_identifier_value"),
		),
		S("agent_name"),
		S("agent_type"),
	)
}

func rightsSchema(string) *Schema {
	return S("rights",
		S("rights_statement",
			S("rights_statement_identifier",
				S("rights_statement_identifier_type"),
				S("rights_statement_identifier_value"),
			),
			S("rights_basis"),
			S("copyright_information",
				S("copyright_status"),
				S("copyright_jurisdiction"),
				S("copyright_status_determination_date"),
				S("copyright_note"),
			),
			S("license_information",
				S("license_terms"),
				S("license_note"),
			),
			S("statute_information",
				S("statute_jurisdiction"),
				S("statute_citation"),
				S("statute_information_determination_date"),
				S("statute_note"),
			),
			S("rights_granted",
				S("act"),
				S("restriction"),
				S("term_of_grant",
					S("start_date"),
					S("end_date"),
				),
				S("rights_granted_note"),
			),
			S("linking_object_identifier",
				S("linking_object_identifier_type"),
				S("linking_object_identifier_value"),
			),
		),
	)
}

var kinds = map[string]map[string]*Kind{}

func register(k *Kind) {
	if kinds[k.Version] == nil {
		kinds[k.Version] = map[string]*Kind{}
	}
	kinds[k.Version][k.Name] = k
}

func init() {
	for _, version := range []string{Version21, Version22, Version30} {
		register(NewKind(KindObject, version, objectSchema(version),
			map[string]Default{
				"identifier_type":             Literal("UUID"),
				"identifier_value":            Generated(NewUUID),
				"composition_level":           Literal("1"),
				"format_registry_name":        Literal("PRONOM"),
				"date_created_by_application": Generated(Now),
				"relationship":                Generated(emptyList),
				"inhibitors":                  Generated(emptyList),
			},
			"object_identifier_type", "object_identifier_value",
		))
		register(NewKind(KindEvent, version, eventSchema(version),
			map[string]Default{
				"identifier_type":          Literal("UUID"),
				"identifier_value":         Generated(NewUUID),
				"date_time":                Generated(Now),
				"linking_agent_identifier": Generated(emptyList),
			},
			"event_identifier_value", "event_type", "event_date_time",
		))
		register(NewKind(KindAgent, version, agentSchema(version), nil,
			"agent_identifier_type", "agent_identifier_value", "agent_name",
		))
		register(NewKind(KindRights, version, rightsSchema(version),
			map[string]Default{
				"rights_statement_identifier_type":  Literal("UUID"),
				"rights_statement_identifier_value": Generated(NewUUID),
			},
			"rights_basis",
		))
	}
}

// KindOf returns the registered kind name of the given version.
func KindOf(name, version string) (*Kind, error) {
	byName, ok := kinds[version]
	if !ok {
		return nil, errors.Wrapf(ErrVersion, "'%s'", version)
	}
	k, ok := byName[name]
	if !ok {
		return nil, errors.Errorf("no premis %s in version %s", name, version)
	}
	return k, nil
}
