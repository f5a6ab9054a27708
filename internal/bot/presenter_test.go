package bot

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/m3rciful/ipswbot/internal/ipsw"
)

func TestRenderVersionCardColors(t *testing.T) {
	for class, want := range cardColors {
		data, err := renderVersionCard(class, "18.0.1")
		if err != nil {
			t.Fatalf("%s: render: %v", class, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: decode: %v", class, err)
		}
		b := img.Bounds()
		if b.Dx() != cardWidth || b.Dy() != cardHeight {
			t.Fatalf("%s: bounds = %v", class, b)
		}
		// Corner pixel is background.
		r, g, bl, _ := img.At(1, 1).RGBA()
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(bl>>8) != want.B {
			t.Fatalf("%s: corner = (%d,%d,%d), want (%d,%d,%d)",
				class, r>>8, g>>8, bl>>8, want.R, want.G, want.B)
		}
	}
}

func TestFirmwareCaption(t *testing.T) {
	got := firmwareCaption(ipsw.Firmware{
		Version:     "18.0.1",
		Signed:      true,
		ReleaseDate: "2025-10-01",
		Description: "Bug fixes",
	})
	for _, want := range []string{"Version: 18.0.1", "Status: Current", "Type: Stable", "Released: 2025-10-01", "Description: Bug fixes"} {
		if !strings.Contains(got, want) {
			t.Fatalf("caption missing %q:\n%s", want, got)
		}
	}

	got = firmwareCaption(ipsw.Firmware{Version: "18.1 beta 2", Beta: true})
	if !strings.Contains(got, "Status: Revoked") || !strings.Contains(got, "Type: Beta/Developer") {
		t.Fatalf("beta caption = %s", got)
	}
}

func TestNotificationCaption(t *testing.T) {
	got := notificationCaption("iPhone 15", ipsw.Firmware{Version: "18.0.1", Signed: true})
	if !strings.HasPrefix(got, "New current version for iPhone 15!") {
		t.Fatalf("caption = %s", got)
	}
	if !strings.Contains(got, "Version: 18.0.1") {
		t.Fatalf("caption missing version: %s", got)
	}
}
