package material

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a material library.  Cross sections are
// declared once by name and referenced from materials so that several
// materials can share them.
//
//	cross_sections:
//	  fuel:
//	    sigma_t: [1.0, 2.0]
//	    sigma_s: [[0.5, 0.0], [0.2, 1.5]]
//	materials:
//	  - name: core
//	    xs: fuel
//	    source: [1.0, 0.0]
type File struct {
	CrossSections map[string]*CrossSections `yaml:"cross_sections"`
	Materials     []FileMaterial            `yaml:"materials"`
}

type FileMaterial struct {
	Name   string    `yaml:"name"`
	XS     string    `yaml:"xs"`
	Source []float64 `yaml:"source,omitempty"`
}

// ReadFile reads a material library from a YAML file.  Materials are
// returned in file order, which is the material ID order used by meshes.
func ReadFile(path string) ([]*Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("material: %w", err)
	}
	mats, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return mats, nil
}

// Read decodes a material library and finalizes its cross sections.
func Read(r io.Reader) ([]*Material, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("material: decode: %w", err)
	}
	for name, xs := range f.CrossSections {
		if xs == nil {
			return nil, fmt.Errorf("material: cross sections %q are empty: %w", name, ErrInvalidCrossSections)
		}
		if err := xs.Finalize(); err != nil {
			return nil, fmt.Errorf("cross sections %q: %w", name, err)
		}
	}

	mats := make([]*Material, len(f.Materials))
	for i, fm := range f.Materials {
		xs, ok := f.CrossSections[fm.XS]
		if !ok {
			return nil, fmt.Errorf("material: %q references unknown cross sections %q: %w", fm.Name, fm.XS, ErrInvalidCrossSections)
		}
		m := &Material{Name: fm.Name, XS: xs}
		if fm.Source != nil {
			if len(fm.Source) != xs.NumGroups() {
				return nil, fmt.Errorf("material: %q source has %d groups, cross sections have %d: %w", fm.Name, len(fm.Source), xs.NumGroups(), ErrInvalidCrossSections)
			}
			m.Source = &IsotropicSource{Values: fm.Source}
		}
		mats[i] = m
	}
	return mats, nil
}

// Write encodes materials as a material library.  Cross sections shared by
// several materials are written once.
func Write(w io.Writer, mats []*Material) error {
	f := File{CrossSections: map[string]*CrossSections{}}
	names := map[*CrossSections]string{}
	for i, m := range mats {
		name, ok := names[m.XS]
		if !ok {
			name = fmt.Sprintf("xs%d", i)
			if m.Name != "" {
				name = m.Name
			}
			if _, dup := f.CrossSections[name]; dup {
				name = fmt.Sprintf("%s_%d", name, i)
			}
			names[m.XS] = name
			f.CrossSections[name] = m.XS
		}
		fm := FileMaterial{Name: m.Name, XS: name}
		if m.Source != nil {
			fm.Source = m.Source.Values
		}
		f.Materials = append(f.Materials, fm)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("material: encode: %w", err)
	}
	return enc.Close()
}
