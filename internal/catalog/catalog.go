// Package catalog holds the table of devices the bot can watch. The table is
// built once at startup and injected into the handlers and the watcher.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownDevice is returned by Resolve for names absent from the catalog.
var ErrUnknownDevice = errors.New("unknown device")

// Device maps a display name to the vendor identifier used by the firmware API.
type Device struct {
	Name       string `yaml:"name"`
	Identifier string `yaml:"identifier"`
}

// Catalog is an immutable ordered device table. Devices() preserves
// construction order, which is also the menu order.
type Catalog struct {
	devices []Device
	byName  map[string]string
}

// New builds a catalog from the given devices. Empty names or identifiers
// and duplicate names are rejected.
func New(devices []Device) (*Catalog, error) {
	if len(devices) == 0 {
		return nil, errors.New("catalog: no devices")
	}
	byName := make(map[string]string, len(devices))
	out := make([]Device, 0, len(devices))
	for i, d := range devices {
		name := strings.TrimSpace(d.Name)
		ident := strings.TrimSpace(d.Identifier)
		if name == "" || ident == "" {
			return nil, fmt.Errorf("catalog: entry %d is incomplete", i)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("catalog: duplicate device %q", name)
		}
		byName[name] = ident
		out = append(out, Device{Name: name, Identifier: ident})
	}
	return &Catalog{devices: out, byName: byName}, nil
}

// Load reads a YAML catalog file of the form:
//
//	devices:
//	  - name: iPhone 15
//	    identifier: iPhone15,4
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var doc struct {
		Devices []Device `yaml:"devices"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(doc.Devices)
}

// Resolve returns the vendor identifier for a display name.
func (c *Catalog) Resolve(name string) (string, error) {
	if ident, ok := c.byName[name]; ok {
		return ident, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDevice, name)
}

// Contains reports whether the catalog knows the given display name.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Devices returns the table in menu order. The slice is a copy.
func (c *Catalog) Devices() []Device {
	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// Len returns the number of devices.
func (c *Catalog) Len() int { return len(c.devices) }

// Default returns the built-in iPhone table.
func Default() *Catalog {
	c, err := New([]Device{
		{Name: "iPhone 11", Identifier: "iPhone12,1"},
		{Name: "iPhone 11 Pro", Identifier: "iPhone12,3"},
		{Name: "iPhone 11 Pro Max", Identifier: "iPhone12,5"},
		{Name: "iPhone SE (2nd Gen)", Identifier: "iPhone12,8"},
		{Name: "iPhone SE (3rd Gen)", Identifier: "iPhone14,6"},
		{Name: "iPhone 12", Identifier: "iPhone13,2"},
		{Name: "iPhone 12 Mini", Identifier: "iPhone13,1"},
		{Name: "iPhone 12 Pro", Identifier: "iPhone13,3"},
		{Name: "iPhone 12 Pro Max", Identifier: "iPhone13,4"},
		{Name: "iPhone 13", Identifier: "iPhone14,5"},
		{Name: "iPhone 13 Mini", Identifier: "iPhone14,4"},
		{Name: "iPhone 13 Pro", Identifier: "iPhone14,2"},
		{Name: "iPhone 13 Pro Max", Identifier: "iPhone14,3"},
		{Name: "iPhone 14", Identifier: "iPhone14,7"},
		{Name: "iPhone 14 Plus", Identifier: "iPhone14,8"},
		{Name: "iPhone 14 Pro", Identifier: "iPhone15,2"},
		{Name: "iPhone 14 Pro Max", Identifier: "iPhone15,3"},
		{Name: "iPhone 15", Identifier: "iPhone15,4"},
		{Name: "iPhone 15 Plus", Identifier: "iPhone15,5"},
		{Name: "iPhone 15 Pro", Identifier: "iPhone16,1"},
		{Name: "iPhone 15 Pro Max", Identifier: "iPhone16,2"},
	})
	if err != nil {
		panic(err)
	}
	return c
}
