package bot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/m3rciful/ipswbot/internal/ipsw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 600
	cardHeight = 300
)

var cardColors = map[ipsw.Class]color.RGBA{
	ipsw.ClassSigned:   {R: 100, G: 200, B: 100, A: 255},
	ipsw.ClassUnsigned: {R: 200, G: 100, B: 100, A: 255},
	ipsw.ClassBeta:     {R: 100, G: 100, B: 200, A: 255},
}

var cardTitles = map[ipsw.Class]string{
	ipsw.ClassSigned:   "Current iOS version",
	ipsw.ClassUnsigned: "Revoked iOS version",
	ipsw.ClassBeta:     "Beta / Developer iOS version",
}

// renderVersionCard draws a color-coded PNG with the class title and the
// version label centered. The color encodes the class at a glance: green
// for signed, red for revoked, blue for beta.
func renderVersionCard(class ipsw.Class, version string) ([]byte, error) {
	bg, ok := cardColors[class]
	if !ok {
		bg = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	}

	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	title := cardTitles[class]
	if title == "" {
		title = "iOS version"
	}

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 6
	lines := []string{title, version}
	startY := (cardHeight-lineHeight*len(lines))/2 + face.Metrics().Ascent.Ceil()

	for i, line := range lines {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.White),
			Face: face,
		}
		width := d.MeasureString(line).Ceil()
		d.Dot = fixed.P((cardWidth-width)/2, startY+i*lineHeight)
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	return buf.Bytes(), nil
}

// firmwareCaption builds the caption shown under a version card.
func firmwareCaption(fw ipsw.Firmware) string {
	status := "Revoked"
	if fw.Signed {
		status = "Current"
	}
	kind := "Stable"
	if fw.Beta {
		kind = "Beta/Developer"
	}
	return fmt.Sprintf("Version: %s\nStatus: %s\nType: %s\nReleased: %s\nDescription: %s",
		fw.Version, status, kind, fw.ReleaseDate, fw.Description)
}

// notificationCaption builds the caption for a new-version push.
func notificationCaption(device string, fw ipsw.Firmware) string {
	return fmt.Sprintf("New current version for %s!\n%s", device, firmwareCaption(fw))
}
