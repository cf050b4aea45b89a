// Package builder creates an entry tree with checksums and PREMIS objects
// from a directory tree.
package builder

import (
	"context"
	"io/fs"
	"path"
	"strconv"

	"emperror.dev/errors"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/checksum"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/mets"
	"github.com/artefactual-labs/mets-reader-writer-sub000/pkg/premis"
	"github.com/google/uuid"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/rs/zerolog"
)

type Option func(*Builder)

// WithUse sets the USE of all items.
func WithUse(use string) Option {
	return func(b *Builder) {
		b.use = use
	}
}

// WithDigests sets the digest algorithms. The first one is written to the
// file element, all of them become PREMIS fixity entries.
func WithDigests(algs ...checksum.DigestAlgorithm) Option {
	return func(b *Builder) {
		b.digests = algs
	}
}

func WithPremisVersion(version string) Option {
	return func(b *Builder) {
		b.premisVersion = version
	}
}

// WithOriginator sets the message digest originator of the fixity entries.
func WithOriginator(originator string) Option {
	return func(b *Builder) {
		b.originator = originator
	}
}

// WithUUIDGenerator replaces the random item UUIDs.
func WithUUIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		b.newUUID = fn
	}
}

type Builder struct {
	factory       *mets.Factory
	fsys          fs.FS
	logger        zLogger.ZLogger
	use           string
	digests       []checksum.DigestAlgorithm
	premisVersion string
	originator    string
	newUUID       func() string
}

func New(factory *mets.Factory, fsys fs.FS, logger zLogger.ZLogger, opts ...Option) (*Builder, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	b := &Builder{
		factory:       factory,
		fsys:          fsys,
		logger:        logger,
		use:           mets.DefaultUse,
		digests:       []checksum.DigestAlgorithm{checksum.DigestSHA256},
		premisVersion: premis.DefaultVersion,
		newUUID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.digests) == 0 {
		return nil, errors.Wrap(mets.ErrConstruction, "no digest algorithm")
	}
	if _, ok := checksum.METSChecksumType(b.digests[0]); !ok {
		return nil, errors.Wrapf(mets.ErrConstruction, "digest '%s' cannot be used as METS checksum type", b.digests[0])
	}
	for _, alg := range b.digests {
		if !checksum.HashExists(alg) {
			return nil, errors.Wrapf(mets.ErrConstruction, "unknown digest '%s'", alg)
		}
	}
	if _, err := premis.KindOf(premis.KindObject, b.premisVersion); err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// Build walks the directory root of the filesystem and returns its
// directory entry. Entry paths are relative to the filesystem root.
func (b *Builder) Build(ctx context.Context, root string) (*mets.Entry, error) {
	root = path.Clean(root)
	info, err := fs.Stat(b.fsys, root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat '%s'", root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("'%s' is not a directory", root)
	}
	return b.directory(ctx, root)
}

func (b *Builder) directory(ctx context.Context, name string) (*mets.Entry, error) {
	// fs.ReadDir sorts by filename
	dirEntries, err := fs.ReadDir(b.fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory '%s'", name)
	}
	var children []*mets.Entry
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		childName := path.Join(name, de.Name())
		switch {
		case de.IsDir():
			child, err := b.directory(ctx, childName)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case de.Type().IsRegular():
			child, err := b.item(childName)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		default:
			b.logger.Debug().Msgf("skipping '%s' of type %s", childName, de.Type())
		}
	}
	label := path.Base(name)
	opts := mets.EntryOptions{Kind: mets.KindDirectory, Label: label, Children: children}
	if name != "." {
		opts.Path = name
	}
	dir, err := b.factory.NewEntry(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create directory entry '%s'", name)
	}
	return dir, nil
}

func (b *Builder) item(name string) (*mets.Entry, error) {
	size, sums, err := checksum.File(b.fsys, name, b.digests)
	if err != nil {
		return nil, err
	}
	checksumType, _ := checksum.METSChecksumType(b.digests[0])
	id := b.newUUID()
	entry, err := b.factory.NewEntry(mets.EntryOptions{
		Path:         name,
		Use:          b.use,
		UUID:         id,
		Checksum:     sums[b.digests[0]],
		ChecksumType: checksumType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create entry '%s'", name)
	}
	var fixities []*premis.Element
	for _, alg := range b.digests {
		fixities = append(fixities, premis.NewFixity(b.premisVersion, string(alg), sums[alg], b.originator))
	}
	obj, err := premis.NewObject(b.premisVersion, premis.Values{
		"object_identifier_type":  "UUID",
		"object_identifier_value": id,
		"fixity":                  fixities,
		"size":                    strconv.FormatInt(size, 10),
		"original_name":           name,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create premis object for '%s'", name)
	}
	if _, err := entry.AddPremisObject(obj); err != nil {
		return nil, errors.Wrapf(err, "cannot attach premis object to '%s'", name)
	}
	b.logger.Debug().Msgf("added '%s' [%s %s]", name, checksumType, sums[b.digests[0]])
	return entry, nil
}
