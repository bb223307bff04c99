// Package document decodes KeepTrack XML exports into metric declarations.
//
// Layout of an export:
//
//	<keeptrack>
//	  <watch name="Weight" type="number" units="kg">
//	    <value time="1000">70.5</value>
//	  </watch>
//	  <watch name="Mood" type="set">
//	    <predefined>Low</predefined>
//	    <predefined>High</predefined>
//	    <value time="1000">High</value>
//	  </watch>
//	</keeptrack>
//
// Every child of the root element is a metric; its element name is not
// checked.
package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Document is a parsed export.
type Document struct {
	XMLName xml.Name
	Metrics []Metric `xml:",any"`
}

// Metric is one metric declaration with its recorded values.
type Metric struct {
	XMLName    xml.Name
	Name       string   `xml:"name,attr"`
	Type       string   `xml:"type,attr"`
	Units      *string  `xml:"units,attr"`
	Predefined []string `xml:"predefined"`
	Values     []Entry  `xml:"value"`
}

// Unit returns the declared unit and whether the attribute was present.
func (m *Metric) Unit() (string, bool) {
	if m.Units == nil {
		return "", false
	}
	return *m.Units, true
}

// Entry is one recorded value.
type Entry struct {
	// Time is seconds since the epoch.
	Time int64  `xml:"time,attr"`
	Text string `xml:",chardata"`
}

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Open reads the document at path. Files ending in .gz or .zst are
// decompressed first.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	return Decode(r)
}
