package builder

import (
	"context"
	"fmt"
	"io/fs"
	"testing"
	"testing/fstest"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/checksum"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	"github.com/go-test/deep"
	"github.com/rs/zerolog"
)

const helloSHA256 = "7f83b1657ff1fc53b92dc18148a1d65dfc2d4b1fa3d677284addd200126d9069"

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"objects/b.txt":         {Data: []byte("bbb")},
		"objects/a.txt":         {Data: []byte("Hello World!")},
		"objects/sub/c.txt":     {Data: []byte("c")},
		"objects/sub/empty":     {Mode: fs.ModeDir},
		"metadata/ignored.json": {Data: []byte("{}")},
	}
}

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
}

func labels(entries []*mets.Entry) []string {
	var result []string
	for _, e := range entries {
		result = append(result, e.Label())
	}
	return result
}

func TestBuild(t *testing.T) {
	logger := zerolog.Nop()
	f := premis.NewFactory()
	b, err := New(f, testFS(), &logger, WithUUIDGenerator(sequence()), WithOriginator("metsrw"))
	if err != nil {
		t.Fatal(err)
	}
	root, err := b.Build(context.Background(), "objects")
	if err != nil {
		t.Fatal(err)
	}
	if root.Label() != "objects" || !root.IsDirectory() {
		t.Fatalf("unexpected root %s (%s)", root.Label(), root.Kind())
	}
	if diff := deep.Equal(labels(root.Children()), []string{"a.txt", "b.txt", "sub"}); diff != nil {
		t.Error(diff)
	}
	sub := root.Children()[2]
	if diff := deep.Equal(labels(sub.Children()), []string{"c.txt", "empty"}); diff != nil {
		t.Error(diff)
	}
	if !sub.Children()[1].IsEmptyDir() {
		t.Errorf("empty directory expected")
	}

	a := root.Children()[0]
	if a.UUID() != "00000000-0000-0000-0000-000000000001" || a.Path() != "objects/a.txt" {
		t.Errorf("unexpected item %s %s", a.UUID(), a.Path())
	}
	fm, err := premis.SummarizeEntry(a)
	if err != nil {
		t.Fatal(err)
	}
	expected := &premis.FileMetadata{
		UUID:         "00000000-0000-0000-0000-000000000001",
		Path:         "objects/a.txt",
		Use:          mets.DefaultUse,
		Checksum:     helloSHA256,
		ChecksumType: "SHA-256",
		Size:         12,
		OriginalName: "objects/a.txt",
	}
	if diff := deep.Equal(fm, expected); diff != nil {
		t.Error(diff)
	}
	objects, err := a.PremisObjects()
	if err != nil {
		t.Fatal(err)
	}
	obj := objects[0].(*premis.Object)
	if obj.IdentifierValue() != a.UUID() || obj.MessageDigest() != helloSHA256 {
		t.Errorf("unexpected premis object %s", obj)
	}
	if got := obj.Text("message_digest_originator"); got != "metsrw" {
		t.Errorf("unexpected originator '%s'", got)
	}
}

func TestBuildDigests(t *testing.T) {
	b, err := New(premis.NewFactory(), testFS(), nil,
		WithDigests(checksum.DigestMD5, checksum.DigestBlake2b256),
		WithPremisVersion(premis.Version30),
		WithUse("preservation"),
	)
	if err != nil {
		t.Fatal(err)
	}
	root, err := b.Build(context.Background(), "objects/sub")
	if err != nil {
		t.Fatal(err)
	}
	c := root.Children()[0]
	sum, alg := c.Checksum()
	if alg != "MD5" || len(sum) != 32 || c.Use() != "preservation" {
		t.Errorf("unexpected item checksum %s %s use %s", alg, sum, c.Use())
	}
	objects, err := c.PremisObjects()
	if err != nil {
		t.Fatal(err)
	}
	obj := objects[0].(*premis.Object)
	if obj.Version() != premis.Version30 {
		t.Errorf("unexpected premis version %s", obj.Version())
	}
	if fixities := obj.FindAll("object_characteristics/fixity"); len(fixities) != 2 {
		t.Errorf("expected 2 fixity elements, got %d", len(fixities))
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := New(premis.NewFactory(), testFS(), nil, WithDigests(checksum.DigestBlake2b512)); !errors.Is(err, mets.ErrConstruction) {
		t.Errorf("blake2b cannot be a METS checksum type, got %v", err)
	}
	if _, err := New(premis.NewFactory(), testFS(), nil, WithDigests()); err == nil {
		t.Errorf("expected error without digests")
	}
	if _, err := New(premis.NewFactory(), testFS(), nil, WithPremisVersion("1.0")); err == nil {
		t.Errorf("expected error for unknown premis version")
	}
	b, err := New(premis.NewFactory(), testFS(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background(), "objects/a.txt"); err == nil {
		t.Errorf("expected error for file root")
	}
	if _, err := b.Build(context.Background(), "missing"); err == nil {
		t.Errorf("expected error for missing root")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Build(ctx, "objects"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
