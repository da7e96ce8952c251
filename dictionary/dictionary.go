// Package dictionary implements the process-wide data-element dictionary:
// a tag -> (VR, symbolic name, value multiplicity) table that the element
// codec consults to resolve the VR of implicit-VR and UN elements, and that
// the JSON bridge consults for the "Human" output shape.
//
// Grounded on Orthanc's dictionary (FromDcmtkBridge::InitializeDictionary,
// RegisterDictionaryTag, GetTagName), reworked as an explicit
// reader-writer-locked Go singleton instead of a DCMTK-backed global.
package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/orthancsoft/dicomcodec/dcmerr"
	"github.com/orthancsoft/dicomcodec/dlog"
	"github.com/orthancsoft/dicomcodec/tag"
)

// Entry is one dictionary record: a tag's VR, its globally unique symbolic
// name, its value multiplicity range, and an optional private-creator label
// scoping it to a vendor's private block.
type Entry struct {
	Tag            tag.Tag
	VR             tag.VR
	Name           string
	MinVM          int
	MaxVM          int // 0 means unbounded
	PrivateCreator string
}

// Unbounded is the MaxVM sentinel meaning "no upper bound on value multiplicity".
const Unbounded = 0

// key identifies an entry in the primary tag index. Private entries are
// additionally scoped by their creator, since the same (group,element) can
// be reused by different vendors under different private-creator blocks.
type key struct {
	tag      tag.Tag
	creator  string
}

// Dictionary is a process-wide, reader-writer-locked tag table. The zero
// value is empty; call Initialize before any lookups that must see the
// standard entries.
type Dictionary struct {
	mu      sync.RWMutex
	byTag   map[key]*Entry
	byName  map[string]*Entry
}

// Default is the process-wide dictionary instance every package-level
// function in this package operates on, mirroring the single global
// DcmDataDictionary Orthanc wraps FromDcmtkBridge around.
var Default = &Dictionary{}

// Initialize clears the dictionary, loads the embedded standard entries,
// then the embedded private entries, then any files named by the
// DICOMCODEC_DICTIONARY_PATH environment variable (paths separated by ":"
// on POSIX, ";" on Windows). It finishes by probing the well-known
// PatientWeight tag (0010,1030) as a sanity check.
func Initialize() error {
	return Default.Initialize()
}

// Initialize is the method form of the package-level Initialize, usable by
// callers that keep their own Dictionary instance (tests, in particular).
func (d *Dictionary) Initialize() error {
	d.mu.Lock()
	d.byTag = make(map[key]*Entry)
	d.byName = make(map[string]*Entry)
	d.mu.Unlock()

	for _, e := range standardEntries {
		entry := e
		if err := d.RegisterTag(entry.Tag, entry.VR, entry.Name, entry.MinVM, entry.MaxVM); err != nil {
			return dcmerr.Wrap(dcmerr.InternalError, err, "loading embedded standard dictionary entry %s", entry.Name)
		}
	}

	for _, e := range privateEntries {
		entry := e
		if err := d.RegisterPrivateTag(entry.Tag, entry.PrivateCreator, entry.VR, entry.Name, entry.MinVM, entry.MaxVM); err != nil {
			return dcmerr.Wrap(dcmerr.InternalError, err, "loading embedded private dictionary entry %s", entry.Name)
		}
	}

	if paths := os.Getenv("DICOMCODEC_DICTIONARY_PATH"); paths != "" {
		for _, path := range strings.Split(paths, string(os.PathListSeparator)) {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			if err := d.loadFile(path); err != nil {
				return err
			}
		}
	}

	entry, ok := d.Lookup(tag.PatientWeight)
	if !ok || entry.VR != tag.DS {
		return dcmerr.New(dcmerr.InternalError, "dictionary sanity check failed: (0010,1030) PatientWeight did not resolve to VR DS")
	}

	return nil
}

// RegisterTag adds a public (non-private) entry.
// minVM must be at least 1; maxVM of Unbounded means no upper bound,
// otherwise maxVM must be >= minVM. A group number that is odd (and thus
// looks private) is still accepted, preserving the legacy permissiveness
// Orthanc's RegisterDictionaryTag documents (see the dictionary section of
// DESIGN.md), but it logs a warning since no private creator was associated with
// it; only the private-creator path enforces the stricter private-tag
// rules.
func (d *Dictionary) RegisterTag(t tag.Tag, vr tag.VR, name string, minVM, maxVM int) error {
	return d.register(t, vr, name, minVM, maxVM, "")
}

// RegisterPrivateTag adds an entry scoped to a private-creator block. The
// tag's group must be odd and at least 0x0009, and not one of the group
// numbers DICOM reserves ({1,3,5,7,0xFFFF}) even though those happen to be
// odd.
func (d *Dictionary) RegisterPrivateTag(t tag.Tag, creator string, vr tag.VR, name string, minVM, maxVM int) error {
	if creator == "" {
		return dcmerr.New(dcmerr.ParameterOutOfRange, "private tag %s requires a non-empty private creator", t)
	}
	if !t.IsPrivate() || t.Group < 0x0009 {
		return dcmerr.New(dcmerr.ParameterOutOfRange, "private tag %s must have an odd group >= 0x0009", t)
	}
	switch t.Group {
	case 0x0001, 0x0003, 0x0005, 0x0007, 0xFFFF:
		return dcmerr.New(dcmerr.ParameterOutOfRange, "private tag %s uses a reserved group number", t)
	}

	return d.register(t, vr, name, minVM, maxVM, creator)
}

func (d *Dictionary) register(t tag.Tag, vr tag.VR, name string, minVM, maxVM int, creator string) error {
	if minVM < 1 {
		return dcmerr.New(dcmerr.ParameterOutOfRange, "%s: minVM must be >= 1, got %d", name, minVM)
	}
	if maxVM != Unbounded && maxVM < minVM {
		return dcmerr.New(dcmerr.ParameterOutOfRange, "%s: maxVM (%d) must be >= minVM (%d) or 0 for unbounded", name, maxVM, minVM)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.byName[name]; ok && (existing.Tag != t || existing.PrivateCreator != creator) {
		return dcmerr.New(dcmerr.AlreadyExistingTag, "dictionary name %q already registered to tag %s", name, existing.Tag)
	}

	if creator == "" && t.Group%2 != 0 {
		dlog.Warn(dlog.Fields{"tag": t, "name": name}, "registering a private tag but no private creator was associated with it")
	}

	entry := &Entry{Tag: t, VR: vr, Name: name, MinVM: minVM, MaxVM: maxVM, PrivateCreator: creator}
	d.byTag[key{t, creator}] = entry
	d.byName[name] = entry

	return nil
}

// Lookup resolves a public tag (no private creator). For a private tag,
// use LookupPrivate.
func Lookup(t tag.Tag) (*Entry, bool) { return Default.Lookup(t) }

func (d *Dictionary) Lookup(t tag.Tag) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byTag[key{t, ""}]
	return e, ok
}

// LookupPrivate resolves a private tag scoped to the given creator label.
func LookupPrivate(t tag.Tag, creator string) (*Entry, bool) { return Default.LookupPrivate(t, creator) }

func (d *Dictionary) LookupPrivate(t tag.Tag, creator string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byTag[key{t, creator}]
	return e, ok
}

// LookupByName resolves a dictionary entry by its globally unique symbolic
// name (e.g. "PatientName").
func LookupByName(name string) (*Entry, bool) { return Default.LookupByName(name) }

func (d *Dictionary) LookupByName(name string) (*Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byName[name]
	return e, ok
}

// IsUnknownVR reports whether t has no dictionary entry, meaning its VR
// cannot be resolved and must be treated as UN.
func IsUnknownVR(t tag.Tag) bool { return Default.IsUnknownVR(t) }

func (d *Dictionary) IsUnknownVR(t tag.Tag) bool {
	_, ok := d.Lookup(t)
	return !ok
}

// loadFile parses one dictionary text file and registers every entry found.
// Format, one entry per line, blank lines and "#" comments ignored:
//
//	GGGGEEEE<TAB>VR<TAB>Name<TAB>minVM-maxVM[<TAB>PrivateCreator]
//
// maxVM may be given as "n" for unbounded. The exact layout is this
// module's own, since the embedded dictionaries cover the standard and
// common private tables already.
func (d *Dictionary) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return dcmerr.Wrap(dcmerr.MissingFile, err, "reading dictionary file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return dcmerr.New(dcmerr.BadFileFormat, "%s:%d: expected at least 4 tab-separated fields", filepath.Base(path), lineNo)
		}

		t, err := tag.Parse(fields[0])
		if err != nil {
			return dcmerr.Wrap(dcmerr.BadFileFormat, err, "%s:%d: invalid tag", filepath.Base(path), lineNo)
		}
		vr, ok := tag.ByName(strings.TrimSpace(fields[1]))
		if !ok {
			return dcmerr.New(dcmerr.BadFileFormat, "%s:%d: unknown VR %q", filepath.Base(path), lineNo, fields[1])
		}
		name := strings.TrimSpace(fields[2])

		minVM, maxVM, err := parseVM(fields[3])
		if err != nil {
			return dcmerr.Wrap(dcmerr.BadFileFormat, err, "%s:%d: invalid value multiplicity", filepath.Base(path), lineNo)
		}

		creator := ""
		if len(fields) >= 5 {
			creator = strings.TrimSpace(fields[4])
		}

		if creator != "" {
			err = d.RegisterPrivateTag(t, creator, vr, name, minVM, maxVM)
		} else {
			err = d.RegisterTag(t, vr, name, minVM, maxVM)
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", filepath.Base(path), lineNo, err)
		}
	}

	return scanner.Err()
}

func parseVM(s string) (min, max int, err error) {
	parts := strings.SplitN(s, "-", 2)
	min, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return min, min, nil
	}
	if strings.TrimSpace(parts[1]) == "n" {
		return min, Unbounded, nil
	}
	max, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}
