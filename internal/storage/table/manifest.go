package table

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

// Manifest is the persisted description of a table: its title, its
// columns with unit labels, and the time index over its part files.
type Manifest struct {
	Title    string         `yaml:"title"`
	Columns  []types.Column `yaml:"columns"`
	Parts    []Part         `yaml:"parts"`
	NextPart int            `yaml:"next_part"`
}

// Part is one entry of the time index.
type Part struct {
	File    string `yaml:"file"`
	Rows    int64  `yaml:"rows"`
	MinTime int64  `yaml:"min_time"`
	MaxTime int64  `yaml:"max_time"`
}

// Schema returns the table schema.
func (m *Manifest) Schema() types.Schema {
	return types.Schema{Columns: m.Columns}
}

// Rows returns the total number of rows.
func (m *Manifest) Rows() int64 {
	var n int64
	for _, p := range m.Parts {
		n += p.Rows
	}
	return n
}

// TimeRange returns the smallest and largest stored timestamp. ok is false
// for a table without rows.
func (m *Manifest) TimeRange() (min, max int64, ok bool) {
	if len(m.Parts) == 0 {
		return 0, 0, false
	}
	// Parts are sorted by MinTime.
	min = m.Parts[0].MinTime
	max = m.Parts[0].MaxTime
	for _, p := range m.Parts[1:] {
		if p.MaxTime > max {
			max = p.MaxTime
		}
	}
	return min, max, true
}

// Overlapping returns the parts that may hold rows in [from, to].
func (m *Manifest) Overlapping(from, to int64) []Part {
	// First part whose MinTime is past the range; nothing after it overlaps.
	end := sort.Search(len(m.Parts), func(i int) bool {
		return m.Parts[i].MinTime > to
	})
	var out []Part
	for _, p := range m.Parts[:end] {
		if p.MaxTime >= from {
			out = append(out, p)
		}
	}
	return out
}

// index sorts the parts by time.
func (m *Manifest) index() {
	sort.SliceStable(m.Parts, func(i, j int) bool {
		if m.Parts[i].MinTime != m.Parts[j].MinTime {
			return m.Parts[i].MinTime < m.Parts[j].MinTime
		}
		return m.Parts[i].MaxTime < m.Parts[j].MaxTime
	})
}

func (m *Manifest) validate() error {
	if len(m.Columns) == 0 {
		return fmt.Errorf("no columns: %w", errors.ErrCorruptIndex)
	}
	for _, p := range m.Parts {
		if p.File == "" || filepath.Base(p.File) != p.File {
			return fmt.Errorf("part file %q: %w", p.File, errors.ErrCorruptIndex)
		}
		if p.Rows <= 0 || p.MinTime > p.MaxTime {
			return fmt.Errorf("part %s: rows=%d range=[%d, %d]: %w",
				p.File, p.Rows, p.MinTime, p.MaxTime, errors.ErrCorruptIndex)
		}
	}
	return nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", path, err, errors.ErrCorruptIndex)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.index()
	return &m, nil
}

// writeManifest replaces the manifest at path atomically.
func writeManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Chmod(tmp, config.FilePerm); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
