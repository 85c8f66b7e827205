package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

var (
	ErrMalformedClassmap = errors.New("discovery: malformed classmap")
	ErrMalformedManifest = errors.New("discovery: malformed manifest")
)

// ClassmapEntry is one "Type": "path" pair of a classmap.
type ClassmapEntry struct {
	Type string
	Path string
}

// ParseClassmap reads a JSON object of type name to file path, keeping document order.
func ParseClassmap(data []byte) ([]ClassmapEntry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedClassmap)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: want object, got %s", ErrMalformedClassmap, root.Type)
	}

	var (
		out []ClassmapEntry
		err error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("%w: path of %q is %s", ErrMalformedClassmap, key.String(), value.Type)
			return false
		}
		out = append(out, ClassmapEntry{Type: key.String(), Path: value.String()})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClassmapFile reads a classmap file. A missing file is ErrSourceUnavailable.
func ClassmapFile(path string) ([]ClassmapEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, path)
	}
	if err != nil {
		return nil, err
	}
	return ParseClassmap(data)
}

// Manifest holds descriptors keyed by type name.
type Manifest map[string]Descriptor

type manifestDoc struct {
	Types map[string]typeDoc `yaml:"types"`
}

type typeDoc struct {
	Abstract  bool        `yaml:"abstract"`
	Interface bool        `yaml:"interface"`
	Commands  []string    `yaml:"commands"`
	Queries   []string    `yaml:"queries"`
	Methods   []methodDoc `yaml:"methods"`
}

type methodDoc struct {
	Name     string   `yaml:"name"`
	Exported *bool    `yaml:"exported"`
	Commands []string `yaml:"commands"`
	Queries  []string `yaml:"queries"`
}

// ParseManifest reads YAML of the form:
//
//	types:
//	  Monolith\Users\Application\Command\Handlers\CreateUser:
//	    commands: [Monolith\Users\CreateUserCommand]
//	    methods:
//	      - name: rename
//	        commands: [Monolith\Users\RenameUserCommand]
func ParseManifest(data []byte) (Manifest, error) {
	var doc manifestDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
	}
	m := make(Manifest, len(doc.Types))
	for name, t := range doc.Types {
		d := Descriptor{Abstract: t.Abstract, Interface: t.Interface}
		d.Registrations = appendRegs(d.Registrations, Command, t.Commands)
		d.Registrations = appendRegs(d.Registrations, Query, t.Queries)
		for _, md := range t.Methods {
			mem := Member{Name: md.Name, Exported: md.Exported == nil || *md.Exported}
			mem.Registrations = appendRegs(mem.Registrations, Command, md.Commands)
			mem.Registrations = appendRegs(mem.Registrations, Query, md.Queries)
			d.Members = append(d.Members, mem)
		}
		m[name] = d
	}
	return m, nil
}

// ManifestFile reads a manifest file. A missing file is ErrSourceUnavailable.
func ManifestFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, path)
	}
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// FileSource joins a classmap file with a manifest file. An empty Manifest
// path means no descriptors; a named manifest must exist.
type FileSource struct {
	Classmap string
	Manifest string
}

// Entries implements Source. Types without a descriptor fail Describe with ErrNoDescriptor.
func (s FileSource) Entries() ([]Entry, error) {
	classmap, err := ClassmapFile(s.Classmap)
	if err != nil {
		return nil, err
	}
	manifest := Manifest{}
	if s.Manifest != "" {
		if manifest, err = ManifestFile(s.Manifest); err != nil {
			return nil, err
		}
	}
	return manifest.Entries(classmap), nil
}

// Entries pairs classmap entries with their descriptors.
func (m Manifest) Entries(classmap []ClassmapEntry) []Entry {
	out := make([]Entry, 0, len(classmap))
	for _, c := range classmap {
		desc, ok := m[c.Type]
		name := c.Type
		out = append(out, Entry{
			Type: c.Type,
			Path: c.Path,
			Describe: func() (Descriptor, error) {
				if !ok {
					return Descriptor{}, fmt.Errorf("%w: %s", ErrNoDescriptor, name)
				}
				return desc, nil
			},
		})
	}
	return out
}
