package bot

import (
	"testing"

	"github.com/m3rciful/ipswbot/internal/ipsw"
)

func TestActionRoundTrip(t *testing.T) {
	unique, payload := EncodeDeviceSelect("iPhone SE (3rd Gen)")
	action, err := DecodeAction(unique, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action.Kind != ActionDeviceSelect || action.Device != "iPhone SE (3rd Gen)" {
		t.Fatalf("action = %+v", action)
	}

	unique, payload = EncodeVersionList(ipsw.ClassBeta, "iPhone 15 Pro Max")
	action, err = DecodeAction(unique, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action.Kind != ActionVersionList || action.Class != ipsw.ClassBeta || action.Device != "iPhone 15 Pro Max" {
		t.Fatalf("action = %+v", action)
	}

	unique, payload = EncodeDeviceBack()
	action, err = DecodeAction(unique, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action.Kind != ActionDeviceBack {
		t.Fatalf("action = %+v", action)
	}
}

func TestDecodeActionRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		unique  string
		payload string
	}{
		{"unknown unique", "reboot", ""},
		{"empty device", cbDeviceSelect, "  "},
		{"missing separator", cbVersionList, "signed"},
		{"unknown class", cbVersionList, "nightly|iPhone 15"},
		{"empty device in list", cbVersionList, "signed|"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeAction(tc.unique, tc.payload); err == nil {
				t.Fatalf("DecodeAction(%q, %q) succeeded", tc.unique, tc.payload)
			}
		})
	}
}
