package validate

import (
	"regexp"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

const NSSVRL = "http://purl.oclc.org/dsdl/svrl"

// ParseSVRL extracts the failed assertions of a schematron validation
// report.
func ParseSVRL(data []byte) ([]RuleFailure, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(err, "cannot parse svrl report")
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("empty svrl report")
	}
	var failures []RuleFailure
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if c.Tag == "failed-assert" && c.NamespaceURI() == NSSVRL {
				f := RuleFailure{
					Test:     c.SelectAttrValue("test", ""),
					Location: c.SelectAttrValue("location", ""),
				}
				for _, t := range c.ChildElements() {
					if t.Tag == "text" {
						f.Text = strings.TrimSpace(t.Text())
						break
					}
				}
				failures = append(failures, f)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return failures, nil
}

// file:line: message, as written by xmllint
var xsdLineRegexp = regexp.MustCompile(`^(.*?):(\d+): (.*)$`)

// ParseXSDLog extracts line numbered errors from the output of a schema
// validator.
func ParseXSDLog(output string) []XSDError {
	var result []XSDError
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		parts := xsdLineRegexp.FindStringSubmatch(line)
		if parts == nil {
			continue
		}
		lineNo, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		result = append(result, XSDError{Line: lineNo, Message: parts[3]})
	}
	return result
}
