package premis

import (
	"strings"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
)

const (
	EventCompression = "compression"
	EventEncryption  = "encryption"

	missingDetail = "No value found"
)

var archiveTools = map[string]string{
	"7z": "7-Zip",
}

// ParsedDetail splits an event detail like
// `program="7z"; version="9.20"; algorithm="bzip2"` into its values.
func (e *Event) ParsedDetail() map[string]string {
	result := map[string]string{}
	for _, kv := range strings.Split(e.Detail(), ";") {
		key, value, found := strings.Cut(strings.TrimSpace(kv), "=")
		key = strings.Trim(key, ` "`)
		if key == "" {
			continue
		}
		if !found {
			result[key] = ""
			continue
		}
		result[key] = strings.Trim(value, ` "`)
	}
	return result
}

func detailValue(detail map[string]string, key string) string {
	if v, ok := detail[key]; ok {
		return v
	}
	return missingDetail
}

func (e *Event) expectType(eventType string) error {
	if t := e.Type(); t != eventType {
		return errors.Wrapf(ErrEventType, "premis events of type '%s' have no %s details", t, eventType)
	}
	return nil
}

type CompressionDetails struct {
	Algorithm      string
	ProgramVersion string
	ArchiveTool    string
}

func (e *Event) CompressionDetails() (*CompressionDetails, error) {
	if err := e.expectType(EventCompression); err != nil {
		return nil, err
	}
	detail := e.ParsedDetail()
	program := detailValue(detail, "program")
	tool, ok := archiveTools[program]
	if !ok {
		tool = program
	}
	return &CompressionDetails{
		Algorithm:      detailValue(detail, "algorithm"),
		ProgramVersion: detailValue(detail, "version"),
		ArchiveTool:    tool,
	}, nil
}

// DecompressionTransformFiles returns one decompression step per algorithm
// of the comma separated compression algorithm, numbered after offset.
func (e *Event) DecompressionTransformFiles(offset int) ([]mets.TransformFile, error) {
	details, err := e.CompressionDetails()
	if err != nil {
		return nil, err
	}
	var result []mets.TransformFile
	for i, algorithm := range strings.Split(details.Algorithm, ",") {
		result = append(result, mets.TransformFile{
			Algorithm: algorithm,
			Order:     i + offset + 1,
			Type:      "decompression",
		})
	}
	return result, nil
}

type EncryptionDetails struct {
	Program        string
	ProgramVersion string
	Key            string
}

func (e *Event) EncryptionDetails() (*EncryptionDetails, error) {
	if err := e.expectType(EventEncryption); err != nil {
		return nil, err
	}
	detail := e.ParsedDetail()
	return &EncryptionDetails{
		Program:        detailValue(detail, "program"),
		ProgramVersion: detailValue(detail, "version"),
		Key:            detailValue(detail, "key"),
	}, nil
}

func (e *Event) DecryptionTransformFile() (mets.TransformFile, error) {
	details, err := e.EncryptionDetails()
	if err != nil {
		return mets.TransformFile{}, err
	}
	return mets.TransformFile{
		Algorithm: details.Program,
		Order:     1,
		Type:      "decryption",
		Key:       details.Key,
	}, nil
}
