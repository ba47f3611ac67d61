package ai

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maskDataPrefix = "data:image/png;base64,"
	// maskThreshold is the gray level above which a mask pixel is foreground.
	maskThreshold = 128
	// overlayAlpha is the opacity of the white highlight drawn over the mask.
	overlayAlpha = 200
)

// ArtifactWriter persists segmentation masks and their overlays. Each
// detection pass gets its own directory under Dir.
type ArtifactWriter struct {
	Dir string
}

// NewArtifactWriter returns a writer for dir, or nil when dir is empty.
func NewArtifactWriter(dir string) *ArtifactWriter {
	if dir == "" {
		return nil
	}
	return &ArtifactWriter{Dir: dir}
}

// Write saves <label>_<i>_mask.png and <label>_<i>_overlay.png for every
// segment carrying a PNG mask and returns the pass directory. A nil writer or
// a pass without masks writes nothing.
func (w *ArtifactWriter) Write(src image.Image, segments []Segment) (string, error) {
	if w == nil || src == nil || !hasMasks(segments) {
		return "", nil
	}

	passDir := filepath.Join(w.Dir, uuid.New().String())
	if err := os.MkdirAll(passDir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}

	for i, seg := range segments {
		if !strings.HasPrefix(seg.Mask, maskDataPrefix) {
			continue
		}
		if err := writeSegment(passDir, i, src, seg); err != nil {
			log.Printf("Warning: skipping mask %d (%s): %v", i, seg.Label, err)
		}
	}
	return passDir, nil
}

func hasMasks(segments []Segment) bool {
	for _, s := range segments {
		if strings.HasPrefix(s.Mask, maskDataPrefix) {
			return true
		}
	}
	return false
}

func writeSegment(dir string, i int, src image.Image, seg Segment) error {
	mask, err := decodeMask(seg.Mask)
	if err != nil {
		return err
	}
	mask = imaging.Resize(mask, seg.Box.Width(), seg.Box.Height(), imaging.Linear)

	base := fmt.Sprintf("%s_%d", artifactName(seg.Label), i)
	if err := savePNG(filepath.Join(dir, base+"_mask.png"), mask); err != nil {
		return err
	}
	return savePNG(filepath.Join(dir, base+"_overlay.png"), composeOverlay(src, mask, seg))
}

func decodeMask(dataURL string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, maskDataPrefix))
	if err != nil {
		return nil, fmt.Errorf("decoding mask base64: %w", err)
	}
	mask, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding mask png: %w", err)
	}
	return mask, nil
}

// composeOverlay highlights the mask foreground over the source image. The
// mask has already been resized to the segment box.
func composeOverlay(src, mask image.Image, seg Segment) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), src, bounds.Min, draw.Src)

	alpha := image.NewAlpha(out.Bounds())
	mb := mask.Bounds()
	for y := seg.Box.Y0; y < seg.Box.Y1; y++ {
		for x := seg.Box.X0; x < seg.Box.X1; x++ {
			g := color.GrayModel.Convert(mask.At(mb.Min.X+x-seg.Box.X0, mb.Min.Y+y-seg.Box.Y0)).(color.Gray)
			if g.Y > maskThreshold {
				alpha.SetAlpha(x, y, color.Alpha{A: overlayAlpha})
			}
		}
	}

	draw.DrawMask(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, alpha, image.Point{}, draw.Over)
	return out
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path built from sanitized label
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// artifactName makes a label safe to use in a file name.
func artifactName(label string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(label))
	if name == "" {
		return "object"
	}
	return name
}
