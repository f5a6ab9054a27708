package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewRejectsDuplicatesAndEmpties(t *testing.T) {
	_, err := New([]Device{
		{Name: "iPhone 15", Identifier: "iPhone15,4"},
		{Name: "iPhone 15", Identifier: "iPhone15,5"},
	})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}

	_, err = New([]Device{{Name: " ", Identifier: "iPhone15,4"}})
	if err == nil {
		t.Fatal("expected incomplete entry error")
	}

	_, err = New(nil)
	if err == nil {
		t.Fatal("expected empty catalog error")
	}
}

func TestResolveUnknownDevice(t *testing.T) {
	c := Default()
	if _, err := c.Resolve("Nokia 3310"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
	ident, err := c.Resolve("iPhone 13 Mini")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident != "iPhone14,4" {
		t.Fatalf("identifier = %q", ident)
	}
}

func TestDevicesPreserveOrder(t *testing.T) {
	c, err := New([]Device{
		{Name: "b", Identifier: "2"},
		{Name: "a", Identifier: "1"},
		{Name: "c", Identifier: "3"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := c.Devices()
	want := []string{"b", "a", "c"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("devices[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	// Mutating the returned slice must not leak into the catalog.
	got[0].Name = "mutated"
	if c.Devices()[0].Name != "b" {
		t.Fatal("Devices returned internal slice")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.yaml")
	data := "devices:\n  - name: iPhone 15\n    identifier: iPhone15,4\n  - name: iPhone 15 Pro\n    identifier: iPhone16,1\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
	if !c.Contains("iPhone 15 Pro") {
		t.Fatal("missing loaded device")
	}
}
