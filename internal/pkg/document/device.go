package document

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// sdrPrefix forces a lookup into the SDR block only.
const sdrPrefix = "SDR_"

// Device is one <device> record. Config entries live either directly under
// the device element or inside its <sdr> block, each as
// <config><variable>NAME</variable><value>V</value></config>.
type Device struct {
	el  *etree.Element
	sdr *etree.Element

	Name    string
	Class   string
	DevName string
}

// Value is a settable handle on one parameter's <value> node.
type Value struct {
	el *etree.Element
}

func (v *Value) Get() string {
	return v.el.Text()
}

func (v *Value) Set(s string) {
	v.el.SetText(s)
}

// Entry pairs a parameter name with its value node, preserving the order the
// entries appear in the file.
type Entry struct {
	Name  string
	Value *Value
}

// HasSDR reports whether the device carries a Sensor Data Record block.
func (d *Device) HasSDR() bool {
	return d.sdr != nil
}

// SDRName returns the <name> of the SDR block, if any.
func (d *Device) SDRName() string {
	if d.sdr == nil {
		return ""
	}
	return childText(d.sdr, "name")
}

// Entries returns the device-level config entries in document order.
func (d *Device) Entries() []Entry {
	return configEntries(d.el)
}

// SDREntries returns the SDR config entries in document order, or nil when
// the device has no SDR block.
func (d *Device) SDREntries() []Entry {
	if d.sdr == nil {
		return nil
	}
	return configEntries(d.sdr)
}

// Param resolves a parameter to its value node. Names with the SDR_ prefix
// search the SDR block only (prefix stripped); all other names search the
// device-level entries first, then the SDR block.
func (d *Device) Param(variable string) (*Value, bool) {
	if sdrVar, ok := strings.CutPrefix(variable, sdrPrefix); ok {
		return d.SDRParam(sdrVar)
	}
	if v, ok := findConfig(d.el, variable); ok {
		return v, true
	}
	return d.SDRParam(variable)
}

// SDRParam resolves a parameter within the SDR block only.
func (d *Device) SDRParam(variable string) (*Value, bool) {
	if d.sdr == nil {
		return nil, false
	}
	return findConfig(d.sdr, variable)
}

// EnsureParam returns the value node for variable, creating a new
// device-level config entry when none exists. SDR_-prefixed names are never
// created implicitly.
func (d *Device) EnsureParam(variable string) (*Value, error) {
	if strings.HasPrefix(variable, sdrPrefix) {
		if v, ok := d.Param(variable); ok {
			return v, nil
		}
		return nil, fmt.Errorf("%w: SDR config %q in device %q", ErrNoSDR, strings.TrimPrefix(variable, sdrPrefix), d.Name)
	}
	if v, ok := d.Param(variable); ok {
		return v, nil
	}
	cfg := d.el.CreateElement("config")
	cfg.CreateElement("variable").SetText(variable)
	val := cfg.CreateElement("value")
	return &Value{el: val}, nil
}

// Glyph is the optional on-screen placement block of a device.
type Glyph struct {
	TopLeftX string
	TopLeftY string
	Width    string
	Height   string
}

// Glyph returns the device_glyph block, if present.
func (d *Device) Glyph() (Glyph, bool) {
	g := d.el.SelectElement("device_glyph")
	if g == nil {
		return Glyph{}, false
	}
	return Glyph{
		TopLeftX: childText(g, "topleft_x"),
		TopLeftY: childText(g, "topleft_y"),
		Width:    childText(g, "width"),
		Height:   childText(g, "height"),
	}, true
}

func configEntries(parent *etree.Element) []Entry {
	var entries []Entry
	for _, cfg := range parent.SelectElements("config") {
		variable := cfg.SelectElement("variable")
		value := cfg.SelectElement("value")
		if variable == nil || value == nil {
			continue
		}
		entries = append(entries, Entry{Name: variable.Text(), Value: &Value{el: value}})
	}
	return entries
}

func findConfig(parent *etree.Element, variable string) (*Value, bool) {
	for _, cfg := range parent.SelectElements("config") {
		v := cfg.SelectElement("variable")
		val := cfg.SelectElement("value")
		if v != nil && val != nil && v.Text() == variable {
			return &Value{el: val}, true
		}
	}
	return nil, false
}
