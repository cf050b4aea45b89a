package mets

import (
	"path"
	"slices"
	"strings"

	"emperror.dev/errors"
)

type EntryKind string

const (
	KindItem      EntryKind = "Item"
	KindDirectory EntryKind = "Directory"
	KindAIP       EntryKind = "Archival Information Package"

	DefaultUse = "original"
)

// ChecksumTypes are the CHECKSUMTYPE values accepted by METS.
var ChecksumTypes = []string{
	"Adler-32", "CRC32", "HAVAL", "MD5", "MNP", "SHA-1", "SHA-256", "SHA-384", "SHA-512", "TIGER", "WHIRLPOOL",
}

// metadata types used by the convenience helpers
const (
	MDTypePremisObject = "PREMIS:OBJECT"
	MDTypePremisEvent  = "PREMIS:EVENT"
	MDTypePremisAgent  = "PREMIS:AGENT"
	MDTypePremisRights = "PREMIS:RIGHTS"
	MDTypeDC           = "DC"
)

// TransformFile is a reversible transformation (decompression, decryption)
// which has to be applied in Order before the content is accessible.
type TransformFile struct {
	Algorithm string
	Order     int
	Type      string
	Key       string
}

type EntryOptions struct {
	// Path is the location of the file relative to the package root.
	Path           string
	Label          string
	Use            string
	Kind           EntryKind
	DivType        string
	UUID           string
	Checksum       string
	ChecksumType   string
	TransformFiles []TransformFile
	DerivedFrom    *Entry
	Children       []*Entry
}

// Entry is a file or directory of the package.
type Entry struct {
	factory        *Factory
	path           string
	label          string
	use            string
	kind           EntryKind
	divType        string
	uuid           string
	checksum       string
	checksumType   string
	transformFiles []TransformFile
	derivedFrom    *Entry
	parent         *Entry
	children       []*Entry
	amdsecs        []*AMDSec
	dmdsecs        []*SubSection
	dmdsecsByKey   map[string][]*SubSection
}

func (f *Factory) NewEntry(opts EntryOptions) (*Entry, error) {
	e := &Entry{
		factory:        f,
		path:           opts.Path,
		label:          opts.Label,
		use:            opts.Use,
		kind:           opts.Kind,
		divType:        opts.DivType,
		uuid:           opts.UUID,
		checksum:       opts.Checksum,
		checksumType:   opts.ChecksumType,
		transformFiles: append([]TransformFile{}, opts.TransformFiles...),
		dmdsecsByKey:   map[string][]*SubSection{},
	}
	if e.kind == "" {
		e.kind = KindItem
	}
	if e.use == "" {
		e.use = DefaultUse
	}
	if e.label == "" && e.path != "" {
		e.label = path.Base(strings.ReplaceAll(e.path, "\\", "/"))
	}
	if (e.checksum == "") != (e.checksumType == "") {
		return nil, errors.Wrapf(ErrConstruction, "checksum '%s' and checksum type '%s' must be set together", e.checksum, e.checksumType)
	}
	if e.checksumType != "" && !slices.Contains(ChecksumTypes, e.checksumType) {
		return nil, errors.Wrapf(ErrConstruction, "unknown checksum type '%s', allowed: %v", e.checksumType, ChecksumTypes)
	}
	if len(opts.Children) > 0 && !e.IsDirectory() {
		return nil, errors.Wrapf(ErrConstruction, "%s '%s' cannot have children", e.kind, e.label)
	}
	if opts.DerivedFrom != nil {
		if err := e.SetDerivedFrom(opts.DerivedFrom); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	for _, child := range opts.Children {
		if err := e.AddChild(child); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return e, nil
}

func (e *Entry) Label() string { return e.label }

// Location is the path as given, empty for entries placed by label only.
func (e *Entry) Location() string { return e.path }

func (e *Entry) Use() string { return e.use }

func (e *Entry) Kind() EntryKind { return e.kind }

func (e *Entry) UUID() string { return e.uuid }

func (e *Entry) Parent() *Entry { return e.parent }

func (e *Entry) SetLabel(label string) {
	e.label = label
	e.factory.touch()
}

// SetUse changes the fileGrp of the entry. An empty use keeps it out of the fileSec.
func (e *Entry) SetUse(use string) {
	e.use = use
}

func (e *Entry) SetUUID(uuid string) {
	e.uuid = uuid
	e.factory.touch()
}

// DivType is the TYPE of the structMap div.
func (e *Entry) DivType() string {
	if e.divType != "" {
		return e.divType
	}
	return string(e.kind)
}

func (e *Entry) Checksum() (value, algorithm string) {
	return e.checksum, e.checksumType
}

func (e *Entry) TransformFiles() []TransformFile {
	result := append([]TransformFile{}, e.transformFiles...)
	slices.SortStableFunc(result, func(a, b TransformFile) int { return a.Order - b.Order })
	return result
}

func (e *Entry) AddTransformFile(tf TransformFile) {
	e.transformFiles = append(e.transformFiles, tf)
}

// Path is the location if one is set, the parent path joined with the label otherwise.
func (e *Entry) Path() string {
	if e.path != "" {
		return e.path
	}
	if e.parent != nil {
		parent := e.parent.Path()
		if parent == "" {
			return e.label
		}
		return path.Join(parent, e.label)
	}
	return e.label
}

func (e *Entry) IsDirectory() bool {
	return strings.EqualFold(string(e.kind), string(KindDirectory))
}

func (e *Entry) isAIP() bool {
	return strings.EqualFold(string(e.kind), string(KindAIP))
}

func (e *Entry) hasFileID() bool {
	return !e.IsDirectory() && e.uuid != ""
}

// IsEmptyDir reports whether e is a directory without any file below it.
func (e *Entry) IsEmptyDir() bool {
	if !e.IsDirectory() {
		return false
	}
	for _, child := range e.children {
		if child.IsDirectory() {
			if !child.IsEmptyDir() {
				return false
			}
			continue
		}
		if child.hasFileID() {
			return false
		}
	}
	return true
}

// FileID returns the fileSec identifier. Directories have none.
func (e *Entry) FileID() (string, error) {
	if e.IsDirectory() {
		return "", nil
	}
	if e.isAIP() && e.path != "" {
		base := path.Base(e.path)
		return strings.TrimSuffix(base, path.Ext(base)), nil
	}
	if e.uuid == "" {
		return "", errors.Wrapf(ErrReference, "%s '%s' has no uuid", e.kind, e.Path())
	}
	return FileIDPrefix + e.uuid, nil
}

// GroupID is shared by an original and everything derived from it.
func (e *Entry) GroupID() (string, error) {
	if e.derivedFrom != nil {
		return e.derivedFrom.GroupID()
	}
	if e.uuid == "" {
		return "", errors.Wrapf(ErrReference, "%s '%s' has no uuid", e.kind, e.Path())
	}
	return GroupIDPrefix + e.uuid, nil
}

func (e *Entry) DerivedFrom() *Entry {
	return e.derivedFrom
}

func (e *Entry) SetDerivedFrom(source *Entry) error {
	for s := source; s != nil; s = s.derivedFrom {
		if s == e {
			return errors.Wrapf(ErrConstruction, "'%s' cannot derive from itself", e.Path())
		}
	}
	e.derivedFrom = source
	return nil
}

func (e *Entry) Children() []*Entry {
	return append([]*Entry{}, e.children...)
}

// AddChild attaches child to e. A child attached elsewhere is detached first.
func (e *Entry) AddChild(child *Entry) error {
	if !e.IsDirectory() {
		return errors.Wrapf(ErrConstruction, "%s '%s' cannot have children", e.kind, e.label)
	}
	if child == nil {
		return errors.Wrap(ErrConstruction, "cannot add nil child")
	}
	for p := e; p != nil; p = p.parent {
		if p == child {
			return errors.Wrapf(ErrConstruction, "cannot add '%s' to itself or its descendant '%s'", child.label, e.label)
		}
	}
	if child.parent == e {
		return nil
	}
	if child.parent != nil {
		if err := child.parent.RemoveChild(child); err != nil {
			return errors.WithStack(err)
		}
	}
	e.children = append(e.children, child)
	child.parent = e
	e.factory.touch()
	return nil
}

func (e *Entry) RemoveChild(child *Entry) error {
	if !e.IsDirectory() {
		return errors.Wrapf(ErrConstruction, "%s '%s' has no children", e.kind, e.label)
	}
	idx := slices.Index(e.children, child)
	if idx < 0 {
		return errors.Wrapf(ErrReference, "'%s' is not a child of '%s'", child.label, e.label)
	}
	e.children = slices.Delete(e.children, idx, idx+1)
	child.parent = nil
	e.factory.touch()
	return nil
}

// Walk visits e and its descendants in pre-order.
func (e *Entry) Walk(fn func(*Entry) error) error {
	if err := fn(e); err != nil {
		return err
	}
	for _, child := range e.children {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
