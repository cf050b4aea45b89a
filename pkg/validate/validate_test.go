package validate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/beevik/etree"
	"github.com/go-test/deep"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/rs/zerolog"
)

const svrlFailed = `<?xml version="1.0" encoding="UTF-8"?>
<svrl:schematron-output xmlns:svrl="http://purl.oclc.org/dsdl/svrl">
  <svrl:active-pattern id="mets_fileSec"/>
  <svrl:fired-rule context="mets:file"/>
  <svrl:failed-assert test="@ID" location="/*[local-name()='mets']/*[local-name()='fileSec'][1]">
    <svrl:text>
      file must have an ID
    </svrl:text>
  </svrl:failed-assert>
  <svrl:successful-report test="true()" location="/"/>
  <svrl:failed-assert test="count(mets:structMap) &gt; 0" location="/*[local-name()='mets']">
    <svrl:text>mets must have a structMap</svrl:text>
  </svrl:failed-assert>
</svrl:schematron-output>
`

const svrlPassed = `<?xml version="1.0" encoding="UTF-8"?>
<svrl:schematron-output xmlns:svrl="http://purl.oclc.org/dsdl/svrl">
  <svrl:fired-rule context="mets:file"/>
</svrl:schematron-output>
`

func testLogger() zLogger.ZLogger {
	l := zerolog.Nop()
	return &l
}

// TestHelperProcess is not a real test. It stands in for the external
// validation programs.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("METSRW_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "missing arguments")
		os.Exit(2)
	}
	mode, file := args[1], args[2]
	data, err := os.ReadFile(file)
	if err != nil || !strings.Contains(string(data), "mets:mets") {
		fmt.Fprintf(os.Stderr, "cannot read %s\n", file)
		os.Exit(2)
	}
	switch mode {
	case "xsd-ok":
		fmt.Fprintf(os.Stderr, "%s validates\n", file)
	case "xsd-fail":
		fmt.Fprintf(os.Stderr, "%s:12: element file: Schemas validity error : Element 'file': The attribute 'ID' is required but missing.\n", file)
		fmt.Fprintf(os.Stderr, "%s:30: element div: Schemas validity error : Element 'div': This element is not expected.\n", file)
		fmt.Fprintf(os.Stderr, "%s fails to validate\n", file)
		os.Exit(3)
	case "rules-ok":
		fmt.Print(svrlPassed)
	case "rules-fail":
		fmt.Print(svrlFailed)
	case "sleep":
		time.Sleep(10 * time.Second)
	default:
		os.Exit(2)
	}
	os.Exit(0)
}

func helperCommand(mode string) string {
	return fmt.Sprintf(`"%s" -test.run=TestHelperProcess -- %s {file}`, os.Args[0], mode)
}

func testDocument(t *testing.T) *mets.Document {
	t.Helper()
	f := mets.NewFactory()
	file, err := f.NewEntry(mets.EntryOptions{Path: "objects/a.txt", UUID: "aaaa"})
	if err != nil {
		t.Fatal(err)
	}
	dir, err := f.NewEntry(mets.EntryOptions{Path: "objects", Kind: mets.KindDirectory, Children: []*mets.Entry{file}})
	if err != nil {
		t.Fatal(err)
	}
	doc := mets.NewDocument(f, testLogger())
	doc.Append(dir)
	return doc
}

func TestParseSVRL(t *testing.T) {
	failures, err := ParseSVRL([]byte(svrlFailed))
	if err != nil {
		t.Fatal(err)
	}
	expected := []RuleFailure{
		{Text: "file must have an ID", Test: "@ID", Location: "/*[local-name()='mets']/*[local-name()='fileSec'][1]"},
		{Text: "mets must have a structMap", Test: "count(mets:structMap) > 0", Location: "/*[local-name()='mets']"},
	}
	if diff := deep.Equal(failures, expected); diff != nil {
		t.Error(diff)
	}
	failures, err = ParseSVRL([]byte(svrlPassed))
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Errorf("expected no failures, got %v", failures)
	}
	if _, err := ParseSVRL([]byte("not xml <")); err == nil {
		t.Errorf("expected error for broken report")
	}
}

func TestParseXSDLog(t *testing.T) {
	log := "/tmp/mets.xml:12: element file: Schemas validity error : missing ID\n" +
		"/tmp/mets.xml fails to validate\n" +
		"C:/tmp/mets.xml:7: parser error : unexpected end\r\n"
	expected := []XSDError{
		{Line: 12, Message: "element file: Schemas validity error : missing ID"},
		{Line: 7, Message: "parser error : unexpected end"},
	}
	if diff := deep.Equal(ParseXSDLog(log), expected); diff != nil {
		t.Error(diff)
	}
}

func TestReportString(t *testing.T) {
	report := &Report{
		RuleFailures: []RuleFailure{
			{Text: "first", Test: "t1", Location: "l1"},
			{Text: "second", Test: "t2", Location: "l2"},
		},
		XSDErrors: []XSDError{
			{Line: 3, Message: "bad"},
			{Line: 9, Message: "worse"},
		},
	}
	expected := "Schematron Error(s):\n" +
		"1. first\n   test: t1\n   location: l1\n\n\n" +
		"2. second\n   test: t2\n   location: l2\n\n" +
		"\n\nXMLSchema (xsd) Error(s):\n" +
		"ERROR ON LINE 3: bad\nERROR ON LINE 9: worse"
	if got := report.String(); got != expected {
		t.Errorf("unexpected report:\n%q\nexpected:\n%q", got, expected)
	}
	empty := &Report{XSDValid: true, RulesValid: true}
	if got := empty.String(); got != "Schematron Error(s):\n\n\nXMLSchema (xsd) Error(s):\n" {
		t.Errorf("unexpected empty report %q", got)
	}
}

func TestWrapSchema(t *testing.T) {
	xsd := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://www.loc.gov/METS/">
  <xs:element name="mets"/>
</xs:schema>`
	document := etree.NewDocument()
	err := document.ReadFromString(`<mets:mets xmlns:mets="http://www.loc.gov/METS/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://www.loc.gov/METS/ http://www.loc.gov/standards/mets/version1121/mets.xsd">
  <mets:xmlData>
    <premis:object xmlns:premis="info:lc/xmlns/premis-v2" xsi:schemaLocation="info:lc/xmlns/premis-v2 http://www.loc.gov/standards/premis/v2/premis-v2-2.xsd"/>
    <premis:object xmlns:premis="info:lc/xmlns/premis-v2" xsi:schemaLocation="info:lc/xmlns/premis-v2 http://www.loc.gov/standards/premis/v2/premis-v2-2.xsd"/>
  </mets:xmlData>
</mets:mets>`)
	if err != nil {
		t.Fatal(err)
	}
	locations := SchemaLocations(document.Root())
	expected := [][2]string{{"info:lc/xmlns/premis-v2", "http://www.loc.gov/standards/premis/v2/premis-v2-2.xsd"}}
	if diff := deep.Equal(locations, expected); diff != nil {
		t.Fatal(diff)
	}
	data, err := WrapSchema([]byte(xsd), document.Root())
	if err != nil {
		t.Fatal(err)
	}
	wrapped := etree.NewDocument()
	if err := wrapped.ReadFromBytes(data); err != nil {
		t.Fatal(err)
	}
	imports := wrapped.Root().SelectElements("import")
	if len(imports) != 1 {
		t.Fatalf("expected one import, got %d", len(imports))
	}
	if imports[0].Space != "xs" || imports[0].SelectAttrValue("namespace", "") != "info:lc/xmlns/premis-v2" {
		t.Errorf("unexpected import %s", imports[0].FullTag())
	}
	if _, err := WrapSchema([]byte("<root/>"), document.Root()); err == nil {
		t.Errorf("expected error for non schema document")
	}
}

func TestCommandValidator(t *testing.T) {
	t.Setenv("METSRW_HELPER_PROCESS", "1")
	doc := testDocument(t)
	ctx := context.Background()

	v, err := NewCommandValidator(CommandConfig{
		XSDCommand:  helperCommand("xsd-ok"),
		RuleCommand: helperCommand("rules-ok"),
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	valid, report, err := v.Validate(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	if !valid || !report.Valid() {
		t.Errorf("expected valid document: %s", report)
	}

	v, err = NewCommandValidator(CommandConfig{
		XSDCommand:  helperCommand("xsd-fail"),
		RuleCommand: helperCommand("rules-fail"),
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	valid, report, err = v.Validate(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	if valid || report.XSDValid || report.RulesValid {
		t.Errorf("expected invalid document")
	}
	if len(report.XSDErrors) != 2 || report.XSDErrors[0].Line != 12 {
		t.Errorf("unexpected xsd errors %v", report.XSDErrors)
	}
	if len(report.RuleFailures) != 2 {
		t.Errorf("unexpected rule failures %v", report.RuleFailures)
	}
	if !strings.Contains(report.String(), "ERROR ON LINE 30: element div") {
		t.Errorf("report misses xsd error:\n%s", report)
	}
}

func TestCommandValidatorSkipsEmptyCommand(t *testing.T) {
	t.Setenv("METSRW_HELPER_PROCESS", "1")
	v, err := NewCommandValidator(CommandConfig{XSDCommand: helperCommand("xsd-fail")}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	valid, report, err := v.Validate(context.Background(), testDocument(t))
	if err != nil {
		t.Fatal(err)
	}
	if valid || report.XSDValid || !report.RulesValid {
		t.Errorf("unexpected result %v %+v", valid, report)
	}
	if _, err := NewCommandValidator(CommandConfig{}, testLogger()); err == nil {
		t.Errorf("expected error without commands")
	}
	if _, err := NewCommandValidator(CommandConfig{XSDCommand: `xmllint "unterminated`}, testLogger()); err == nil {
		t.Errorf("expected error for unparseable command")
	}
}

func TestCommandValidatorTimeout(t *testing.T) {
	t.Setenv("METSRW_HELPER_PROCESS", "1")
	v, err := NewCommandValidator(CommandConfig{
		RuleCommand: helperCommand("sleep"),
		Timeout:     200 * time.Millisecond,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := v.Validate(context.Background(), testDocument(t)); err == nil {
		t.Errorf("expected timeout error")
	}
}
