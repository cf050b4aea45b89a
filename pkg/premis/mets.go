package premis

import (
	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/beevik/etree"
)

// Decoders returns the payload decoders for all PREMIS record kinds, to be
// passed to mets.WithDecoders.
func Decoders() map[string]mets.DecodeFunc {
	return map[string]mets.DecodeFunc{
		mets.MDTypePremisObject: func(el *etree.Element) (mets.Metadata, error) {
			r, err := ParseKind(KindObject, el)
			if err != nil {
				return nil, err
			}
			return &Object{r}, nil
		},
		mets.MDTypePremisEvent: func(el *etree.Element) (mets.Metadata, error) {
			r, err := ParseKind(KindEvent, el)
			if err != nil {
				return nil, err
			}
			return &Event{r}, nil
		},
		mets.MDTypePremisAgent: func(el *etree.Element) (mets.Metadata, error) {
			r, err := ParseKind(KindAgent, el)
			if err != nil {
				return nil, err
			}
			return &Agent{r}, nil
		},
		mets.MDTypePremisRights: func(el *etree.Element) (mets.Metadata, error) {
			r, err := ParseKind(KindRights, el)
			if err != nil {
				return nil, err
			}
			return &Rights{r}, nil
		},
	}
}

// NewFactory creates a document factory that decodes PREMIS payloads.
func NewFactory(opts ...mets.FactoryOption) *mets.Factory {
	return mets.NewFactory(append([]mets.FactoryOption{mets.WithDecoders(Decoders())}, opts...)...)
}

// EventSummary is the short form of an event attached to an entry.
type EventSummary struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	Type       string `json:"type" yaml:"type"`
	DateTime   string `json:"dateTime,omitempty" yaml:"dateTime,omitempty"`
	Outcome    string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// FileMetadata summarizes the preservation metadata of an entry.
type FileMetadata struct {
	UUID         string         `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Path         string         `json:"path" yaml:"path"`
	Use          string         `json:"use,omitempty" yaml:"use,omitempty"`
	Checksum     string         `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	ChecksumType string         `json:"checksumType,omitempty" yaml:"checksumType,omitempty"`
	Size         int64          `json:"size" yaml:"size"`
	FormatName   string         `json:"formatName,omitempty" yaml:"formatName,omitempty"`
	FormatKey    string         `json:"formatKey,omitempty" yaml:"formatKey,omitempty"`
	OriginalName string         `json:"originalName,omitempty" yaml:"originalName,omitempty"`
	Events       []EventSummary `json:"events,omitempty" yaml:"events,omitempty"`
}

// SummarizeEntry collects the file metadata of an entry from its file
// section attributes and its first PREMIS object.
func SummarizeEntry(entry *mets.Entry) (*FileMetadata, error) {
	checksum, checksumType := entry.Checksum()
	fm := &FileMetadata{
		UUID:         entry.UUID(),
		Path:         entry.Path(),
		Use:          entry.Use(),
		Checksum:     checksum,
		ChecksumType: checksumType,
		Size:         -1,
	}
	objects, err := entry.PremisObjects()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read premis objects of '%s'", entry.Path())
	}
	if len(objects) > 0 {
		if obj, ok := objects[0].(*Object); ok {
			fm.Size = obj.Size()
			fm.FormatName = obj.FormatName()
			fm.FormatKey = obj.FormatRegistryKey()
			fm.OriginalName = obj.OriginalName()
			if fm.Checksum == "" {
				fm.Checksum = obj.MessageDigest()
				fm.ChecksumType = obj.MessageDigestAlgorithm()
			}
		}
	}
	events, err := entry.PremisEvents()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read premis events of '%s'", entry.Path())
	}
	for _, md := range events {
		event, ok := md.(*Event)
		if !ok {
			continue
		}
		fm.Events = append(fm.Events, EventSummary{
			Identifier: event.IdentifierValue(),
			Type:       event.Type(),
			DateTime:   event.DateTime(),
			Outcome:    event.Outcome(),
		})
	}
	return fm, nil
}

// AddPackageTransforms records on entry the steps that undo the encryption
// and compression events attached to it: decryption first, decompression
// after.
func AddPackageTransforms(entry *mets.Entry) error {
	events, err := entry.PremisEvents()
	if err != nil {
		return errors.Wrapf(err, "cannot read premis events of '%s'", entry.Path())
	}
	var encryptions, compressions []*Event
	for _, md := range events {
		event, ok := md.(*Event)
		if !ok {
			continue
		}
		switch event.Type() {
		case EventEncryption:
			encryptions = append(encryptions, event)
		case EventCompression:
			compressions = append(compressions, event)
		}
	}
	offset := len(entry.TransformFiles())
	for _, event := range encryptions {
		tf, err := event.DecryptionTransformFile()
		if err != nil {
			return errors.WithStack(err)
		}
		tf.Order = offset + 1
		offset++
		entry.AddTransformFile(tf)
	}
	for _, event := range compressions {
		tfs, err := event.DecompressionTransformFiles(offset)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, tf := range tfs {
			entry.AddTransformFile(tf)
		}
		offset += len(tfs)
	}
	return nil
}
