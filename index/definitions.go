package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semcube/convert"
	"github.com/c360studio/semcube/profile"
	"github.com/c360studio/semcube/store"
)

// Definition file names.
const (
	IndexFile      = "index.yaml"
	CollectionFile = "collection.yaml"
)

// IndexDefinition is the optional content of <folder>/<index>/index.yaml.
type IndexDefinition struct {
	Description string `yaml:"description"`
}

// CollectionDefinition is the content of
// <folder>/<index>/<collection>/collection.yaml.
type CollectionDefinition struct {
	// Profile is the schema file, relative to the collection directory.
	Profile string `yaml:"profile"`

	// Conversion shapes the documents. Settings left out keep their
	// defaults.
	Conversion convert.Configuration `yaml:"conversion"`

	// Select chooses the URIs indexed by full runs, for example
	// "?s a <http://example.org/Person>".
	Select string `yaml:"select"`
}

// Index is a named group of collections whose documents share a sink.
type Index struct {
	Name        string
	Dir         string
	Description string

	collections map[string]*Collection
}

// CollectionNames returns the sorted collection names of the index.
func (i *Index) CollectionNames() []string {
	names := make([]string, 0, len(i.collections))
	for name := range i.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collection returns the named collection.
func (i *Index) Collection(name string) (*Collection, error) {
	c, ok := i.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrCollectionNotFound, i.Name, name)
	}
	return c, nil
}

// Collection projects the URIs chosen by its select pattern with its own
// converter.
type Collection struct {
	Name       string
	Dir        string
	Definition CollectionDefinition
	Select     store.Pattern
	Converter  *convert.Converter
}

// Definitions is a loaded definition folder.
type Definitions struct {
	Folder  string
	indexes map[string]*Index
}

// Names returns the sorted index names.
func (d *Definitions) Names() []string {
	names := make([]string, 0, len(d.indexes))
	for name := range d.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Index returns the named index.
func (d *Definitions) Index(name string) (*Index, error) {
	idx, ok := d.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	return idx, nil
}

// LoadDefinitions reads every index and collection below folder. An index is
// any directory holding an index.yaml or at least one collection.
func LoadDefinitions(folder string, logger *slog.Logger) (*Definitions, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("definition folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definition folder is not a directory: %s", folder)
	}

	defs := &Definitions{Folder: folder, indexes: make(map[string]*Index)}
	getIndex := func(dir string) *Index {
		name := filepath.Base(dir)
		idx, ok := defs.indexes[name]
		if !ok {
			idx = &Index{Name: name, Dir: dir, collections: make(map[string]*Collection)}
			defs.indexes[name] = idx
		}
		return idx
	}

	indexFiles, err := doublestar.FilepathGlob(filepath.Join(folder, "*", IndexFile))
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	for _, path := range indexFiles {
		var def IndexDefinition
		if err := decodeFile(path, &def); err != nil {
			return nil, err
		}
		getIndex(filepath.Dir(path)).Description = def.Description
	}

	collectionFiles, err := doublestar.FilepathGlob(filepath.Join(folder, "*", "*", CollectionFile))
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	for _, path := range collectionFiles {
		dir := filepath.Dir(path)
		idx := getIndex(filepath.Dir(dir))
		c, err := loadCollection(path, logger)
		if err != nil {
			return nil, err
		}
		idx.collections[c.Name] = c
		logger.Debug("Loaded collection",
			"index", idx.Name,
			"collection", c.Name,
			"profile", c.Definition.Profile)
	}

	return defs, nil
}

func loadCollection(path string, logger *slog.Logger) (*Collection, error) {
	def := CollectionDefinition{Conversion: convert.DefaultConfiguration()}
	if err := decodeFile(path, &def); err != nil {
		return nil, err
	}
	if def.Profile == "" {
		return nil, fmt.Errorf("%w: %s: profile is required", ErrInvalidDefinition, path)
	}
	if def.Select == "" {
		return nil, fmt.Errorf("%w: %s: select is required", ErrInvalidDefinition, path)
	}

	dir := filepath.Dir(path)
	profilePath := def.Profile
	if !filepath.IsAbs(profilePath) {
		profilePath = filepath.Join(dir, profilePath)
	}
	prof, err := profile.LoadFromFile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
	}

	pattern, err := store.ParsePattern(def.Select)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
	}

	converter, err := convert.New(def.Conversion, prof, convert.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
	}

	return &Collection{
		Name:       filepath.Base(dir),
		Dir:        dir,
		Definition: def,
		Select:     pattern,
		Converter:  converter,
	}, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read definition: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
	}
	return nil
}
