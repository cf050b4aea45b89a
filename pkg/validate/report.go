package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
)

// Validator checks a document against a structural schema and a set of
// additional rules.
type Validator interface {
	Validate(ctx context.Context, doc *mets.Document) (bool, *Report, error)
}

// XSDError is a structural error reported by the schema validator.
type XSDError struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

// RuleFailure is a failed rule assertion.
type RuleFailure struct {
	Text     string `json:"text" yaml:"text"`
	Test     string `json:"test" yaml:"test"`
	Location string `json:"location" yaml:"location"`
}

type Report struct {
	XSDValid     bool          `json:"xsdValid" yaml:"xsdValid"`
	RulesValid   bool          `json:"rulesValid" yaml:"rulesValid"`
	XSDErrors    []XSDError    `json:"xsdErrors,omitempty" yaml:"xsdErrors,omitempty"`
	RuleFailures []RuleFailure `json:"ruleFailures,omitempty" yaml:"ruleFailures,omitempty"`
}

func (r *Report) Valid() bool {
	return r.XSDValid && r.RulesValid
}

func (r *Report) rulesString() string {
	var lines []string
	for i, f := range r.RuleFailures {
		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, f.Text),
			fmt.Sprintf("   test: %s", f.Test),
			fmt.Sprintf("   location: %s", f.Location),
			"\n",
		)
	}
	return strings.Join(lines, "\n")
}

func (r *Report) xsdString() string {
	var lines []string
	for _, e := range r.XSDErrors {
		lines = append(lines, fmt.Sprintf("ERROR ON LINE %d: %s", e.Line, e.Message))
	}
	return strings.Join(lines, "\n")
}

// String lists rule failures first, then schema errors.
func (r *Report) String() string {
	return "Schematron Error(s):\n" + r.rulesString() +
		"\n\nXMLSchema (xsd) Error(s):\n" + r.xsdString()
}
