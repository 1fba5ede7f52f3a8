// Package page holds the element model of a composable page: text blocks,
// placed images and stickers, the ink strokes drawn over them, and the page
// bounds and background they live in.
package page

import (
	"image/color"

	"memento/pkg/geometry"
)

// ID identifies an element. IDs are unique and increase monotonically.
type ID int64

// Kind identifies which body an element carries.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindSticker
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindSticker:
		return "sticker"
	default:
		return "unknown"
	}
}

// Body is the variant part of an element.
type Body interface {
	Kind() Kind
	clone() Body
}

// TextBody is the payload of a text element.
type TextBody struct {
	Content  string
	Color    color.RGBA
	FontSize float64
}

// Kind implements Body.
func (t *TextBody) Kind() Kind { return KindText }

func (t *TextBody) clone() Body {
	c := *t
	return &c
}

// VisualBody is the payload of an image or sticker element.
type VisualBody struct {
	Sticker bool
	// SourceRef is an opaque handle understood by the image source.
	SourceRef string
	// AspectRatio is width/height, fixed when the pixel data first resolved.
	AspectRatio float64
}

// Kind implements Body.
func (v *VisualBody) Kind() Kind {
	if v.Sticker {
		return KindSticker
	}
	return KindImage
}

func (v *VisualBody) clone() Body {
	c := *v
	return &c
}

// Element is a positioned, resizable unit on the page.
type Element struct {
	ID       ID
	Position geometry.Point2D
	Size     geometry.Size
	ZIndex   int
	Focused  bool
	Body     Body
}

// Kind returns the kind of the element's body.
func (e *Element) Kind() Kind {
	return e.Body.Kind()
}

// Rect returns the element's hit area in page coordinates.
func (e *Element) Rect() geometry.Rect {
	return geometry.RectFrom(e.Position, e.Size)
}

// Text returns the text body, or nil for visual elements.
func (e *Element) Text() *TextBody {
	t, _ := e.Body.(*TextBody)
	return t
}

// Visual returns the visual body, or nil for text elements.
func (e *Element) Visual() *VisualBody {
	v, _ := e.Body.(*VisualBody)
	return v
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	if e.Body != nil {
		c.Body = e.Body.clone()
	}
	return &c
}

// NewText builds an unattached text element. The model assigns its ID.
func NewText(pos geometry.Point2D, size geometry.Size, col color.RGBA, fontSize float64) *Element {
	return &Element{
		Position: pos,
		Size:     size,
		Body:     &TextBody{Color: col, FontSize: fontSize},
	}
}

// NewVisual builds an unattached image or sticker element.
func NewVisual(pos geometry.Point2D, size geometry.Size, ref string, ratio float64, sticker bool) *Element {
	return &Element{
		Position: pos,
		Size:     size,
		Body:     &VisualBody{Sticker: sticker, SourceRef: ref, AspectRatio: ratio},
	}
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Position *geometry.Point2D
	Size     *geometry.Size
	ZIndex   *int
	Focused  *bool

	// Text-only fields; ignored for visual elements.
	Content  *string
	Color    *color.RGBA
	FontSize *float64
}

func (p Patch) apply(e *Element) {
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Size != nil {
		e.Size = *p.Size
	}
	if p.ZIndex != nil {
		e.ZIndex = *p.ZIndex
	}
	if p.Focused != nil {
		e.Focused = *p.Focused
	}
	if t := e.Text(); t != nil {
		if p.Content != nil {
			t.Content = *p.Content
		}
		if p.Color != nil {
			t.Color = *p.Color
		}
		if p.FontSize != nil {
			t.FontSize = *p.FontSize
		}
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
