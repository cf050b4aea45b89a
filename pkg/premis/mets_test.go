package premis

import (
	"testing"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/go-test/deep"
	"github.com/rs/zerolog"
)

func TestEventTransforms(t *testing.T) {
	compression, err := NewEvent(Version22, Values{
		"event_type":   EventCompression,
		"event_detail": `program="7z"; version="9.20"; algorithm="bzip2,tar"`,
	})
	if err != nil {
		t.Fatal(err)
	}
	details, err := compression.CompressionDetails()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(details, &CompressionDetails{Algorithm: "bzip2,tar", ProgramVersion: "9.20", ArchiveTool: "7-Zip"}); diff != nil {
		t.Error(diff)
	}
	tfs, err := compression.DecompressionTransformFiles(1)
	if err != nil {
		t.Fatal(err)
	}
	expected := []mets.TransformFile{
		{Algorithm: "bzip2", Order: 2, Type: "decompression"},
		{Algorithm: "tar", Order: 3, Type: "decompression"},
	}
	if diff := deep.Equal(tfs, expected); diff != nil {
		t.Error(diff)
	}
	if _, err := compression.EncryptionDetails(); !errors.Is(err, ErrEventType) {
		t.Errorf("compression event has no encryption details, got %v", err)
	}

	encryption, err := NewEvent(Version22, Values{
		"event_type":   EventEncryption,
		"event_detail": `program="GPG"; version="1.4.16"; key="A1B2C3"`,
	})
	if err != nil {
		t.Fatal(err)
	}
	tf, err := encryption.DecryptionTransformFile()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(tf, mets.TransformFile{Algorithm: "GPG", Order: 1, Type: "decryption", Key: "A1B2C3"}); diff != nil {
		t.Error(diff)
	}

	incomplete, err := NewEvent(Version22, Values{"event_type": EventCompression, "event_detail": `program="tar"`})
	if err != nil {
		t.Fatal(err)
	}
	details, err = incomplete.CompressionDetails()
	if err != nil {
		t.Fatal(err)
	}
	if details.Algorithm != missingDetail || details.ArchiveTool != "tar" {
		t.Errorf("unexpected details %+v", details)
	}
}

func TestMETSEmbedding(t *testing.T) {
	f := NewFactory()
	entry, err := f.NewEntry(mets.EntryOptions{
		Path: "transfer-1234.7z",
		UUID: "1c1f6b6e-0f3a-4e0b-a4bb-8b3fb0b5c7a1",
		Kind: mets.KindAIP,
	})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := NewObject(Version22, Values{
		"identifier_value": entry.UUID(),
		"fixity":           NewFixity(Version22, "sha256", "abcd", ""),
		"size":             "2048",
		"original_name":    "transfer-1234.7z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.AddPremisObject(obj); err != nil {
		t.Fatal(err)
	}
	for _, detail := range []Values{
		{"event_type": EventEncryption, "event_detail": `program="GPG"; version="1.4.16"; key="A1B2C3"`},
		{"event_type": EventCompression, "event_detail": `program="7z"; version="9.20"; algorithm="bzip2,tar"`},
	} {
		event, err := NewEvent(Version22, detail)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.AddPremisEvent(event); err != nil {
			t.Fatal(err)
		}
	}
	if err := AddPackageTransforms(entry); err != nil {
		t.Fatal(err)
	}
	expected := []mets.TransformFile{
		{Algorithm: "GPG", Order: 1, Type: "decryption", Key: "A1B2C3"},
		{Algorithm: "bzip2", Order: 2, Type: "decompression"},
		{Algorithm: "tar", Order: 3, Type: "decompression"},
	}
	if diff := deep.Equal(entry.TransformFiles(), expected); diff != nil {
		t.Error(diff)
	}

	l := zerolog.Nop()
	doc := mets.NewDocument(f, &l)
	doc.Append(entry)
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("cannot serialize: %v", err)
	}
	parsed, err := mets.Parse(NewFactory(), data, &l)
	if err != nil {
		t.Fatalf("cannot parse: %v", err)
	}
	reread := parsed.EntryByUUID(entry.UUID())
	if reread == nil {
		t.Fatalf("entry %s not found", entry.UUID())
	}
	objects, err := reread.PremisObjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	parsedObj, ok := objects[0].(*Object)
	if !ok {
		t.Fatalf("unexpected payload %T", objects[0])
	}
	if !parsedObj.Equal(obj.Record) {
		t.Errorf("object changed in round trip: %v", deep.Equal(parsedObj.Data(), obj.Data()))
	}
	event, err := reread.PremisEvent(mustEvents(t, reread)[1].IdentifierValue())
	if err != nil || event == nil {
		t.Fatalf("cannot find event: %v", err)
	}
	if diff := deep.Equal(reread.TransformFiles(), expected); diff != nil {
		t.Error(diff)
	}

	summary, err := SummarizeEntry(reread)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Size != 2048 || summary.OriginalName != "transfer-1234.7z" || len(summary.Events) != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Checksum != "abcd" || summary.ChecksumType != "SHA-256" {
		t.Errorf("checksum should come from the premis object, got %s/%s", summary.Checksum, summary.ChecksumType)
	}
}

func mustEvents(t *testing.T, entry *mets.Entry) []*Event {
	t.Helper()
	mds, err := entry.PremisEvents()
	if err != nil {
		t.Fatal(err)
	}
	var events []*Event
	for _, md := range mds {
		event, ok := md.(*Event)
		if !ok {
			t.Fatalf("unexpected payload %T", md)
		}
		events = append(events, event)
	}
	return events
}
