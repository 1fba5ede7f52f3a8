package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"memento/internal/interaction"
)

// TextRenderer lays out and draws text with the Go Regular font. Faces are
// cached per quarter-pixel size. A TextRenderer is safe for concurrent use.
type TextRenderer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// maxFaces bounds the face cache; preview scales follow the window size.
const maxFaces = 32

// NewTextRenderer parses the embedded font.
func NewTextRenderer() (*TextRenderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &TextRenderer{font: f, faces: make(map[float64]font.Face)}, nil
}

func faceSize(size float64) float64 {
	return math.Max(math.Round(size*4)/4, 0.25)
}

func (r *TextRenderer) face(size float64) (font.Face, error) {
	size = faceSize(size)
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	if len(r.faces) >= maxFaces {
		for k, old := range r.faces {
			old.Close()
			delete(r.faces, k)
		}
	}
	r.faces[size] = f
	return f, nil
}

// Measure implements interaction.Measurer: the height of content wrapped to
// width at fontSize.
func (r *TextRenderer) Measure(content string, fontSize, width float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.face(fontSize)
	if err != nil {
		return interaction.EstimateMeasurer{}.Measure(content, fontSize, width)
	}
	lines := wrap(f, content, width)
	return float64(len(lines)) * fontSize * interaction.LineHeight
}

// Draw renders content wrapped to the width of rect onto dst. fontSize is in
// destination pixels. Lines that fall below rect are clipped.
func (r *TextRenderer) Draw(dst *image.RGBA, rect image.Rectangle, content string, fontSize float64, col color.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.face(fontSize)
	if err != nil {
		return err
	}

	clip, ok := dst.SubImage(rect).(*image.RGBA)
	if !ok || clip.Bounds().Empty() {
		return nil
	}
	d := &font.Drawer{Dst: clip, Src: image.NewUniform(col), Face: f}

	lineHeight := fontSize * interaction.LineHeight
	ascent := f.Metrics().Ascent.Round()
	// Center the glyph box within the line box.
	lead := (lineHeight - float64((f.Metrics().Ascent + f.Metrics().Descent).Round())) / 2

	for i, line := range wrap(f, content, float64(rect.Dx())) {
		top := float64(rect.Min.Y) + float64(i)*lineHeight
		if top >= float64(rect.Max.Y) {
			break
		}
		d.Dot = fixed.P(rect.Min.X, int(math.Round(top+lead))+ascent)
		d.DrawString(line)
	}
	return nil
}

// wrap breaks content into lines no wider than width. Explicit newlines are
// kept, runs of spaces collapse, and words wider than width are split.
func wrap(f font.Face, content string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			for _, piece := range splitWord(f, w, width) {
				candidate := piece
				if line != "" {
					candidate = line + " " + piece
				}
				if line == "" || advance(f, candidate) <= width {
					line = candidate
					continue
				}
				lines = append(lines, line)
				line = piece
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func splitWord(f font.Face, w string, width float64) []string {
	if advance(f, w) <= width {
		return []string{w}
	}
	var pieces []string
	cur := ""
	for _, r := range w {
		next := cur + string(r)
		if cur != "" && advance(f, next) > width {
			pieces = append(pieces, cur)
			next = string(r)
		}
		cur = next
	}
	if cur != "" {
		pieces = append(pieces, cur)
	}
	return pieces
}

func advance(f font.Face, s string) float64 {
	return float64(font.MeasureString(f, s)) / 64
}
