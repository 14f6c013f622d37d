// Package document is the in-memory model of a PMC file: an XML tree of
// device records addressed by name, each carrying config entries and an
// optional SDR (Sensor Data Record) block. Callers above this package never
// touch the underlying XML elements.
package document

import (
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

var (
	ErrNotFound       = errors.New("file not found")
	ErrParse          = errors.New("failed to parse XML file")
	ErrDeviceNotFound = errors.New("device not found")
	ErrNoSDR          = errors.New("device has no SDR section")
)

// Document is a loaded PMC file.
type Document struct {
	path string
	doc  *etree.Document
}

// Summary is the listing view of one device, in document order.
type Summary struct {
	Name    string
	Class   string
	DevName string
}

// Load reads and parses the PMC file at path.
func Load(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{path: path, doc: doc}, nil
}

// Path returns the source file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Bytes serializes the current tree.
func (d *Document) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// Devices lists every device in document order. The ordering defines the
// numbering shown to the operator and is stable across calls.
func (d *Document) Devices() []Summary {
	elements := d.doc.FindElements("//device")
	summaries := make([]Summary, 0, len(elements))
	for _, el := range elements {
		summaries = append(summaries, Summary{
			Name:    childText(el, "name"),
			Class:   childText(el, "class"),
			DevName: childText(el, "dev_name"),
		})
	}
	return summaries
}

// Find resolves a device by its <name> tag. Matching is exact and
// case-sensitive.
func (d *Document) Find(name string) (*Device, error) {
	for _, el := range d.doc.FindElements("//device") {
		if childText(el, "name") == name {
			return &Device{
				el:      el,
				sdr:     el.SelectElement("sdr"),
				Name:    name,
				Class:   childText(el, "class"),
				DevName: childText(el, "dev_name"),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return c.Text()
	}
	return ""
}
