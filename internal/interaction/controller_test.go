package interaction

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/focus"
	"memento/internal/ink"
	"memento/internal/page"
	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

type fakeResolver map[string]geometry.Size

func (f fakeResolver) Resolve(_ context.Context, ref string) (geometry.Size, error) {
	s, ok := f[ref]
	if !ok {
		return geometry.Size{}, errors.New("no such image")
	}
	return s, nil
}

type recorder struct {
	events []Event
}

func (r *recorder) Emit(ev Event, _ interface{}) {
	r.events = append(r.events, ev)
}

func (r *recorder) count(ev Event) int {
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

func newController(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	model := page.NewModel(geometry.NewSize(1060, 583), colorutil.White)
	layer := ink.NewLayer(ink.DefaultStyle(), ink.MinWidth, ink.MaxWidth)
	machine := focus.NewMachine(model, focus.NewArena(), focus.NewZones(), nil)
	rec := &recorder{}
	c := New(model, layer, machine, Options{
		Resolver: fakeResolver{"wide.png": geometry.NewSize(400, 200), "tall.png": geometry.NewSize(100, 300)},
		Emitter:  rec,
		Rand:     rand.New(rand.NewSource(1)),
	})
	return c, rec
}

func pt(x, y float64) geometry.Point2D { return geometry.NewPoint2D(x, y) }

func TestDragClampsToBounds(t *testing.T) {
	c, _ := newController(t)
	id := c.Model().Add(page.NewText(pt(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))

	require.NoError(t, c.PointerDown(pt(60, 55)))
	c.PointerMove(pt(2060, 2055))
	c.PointerUp(pt(2060, 2055))

	e, ok := c.Model().Get(id)
	require.True(t, ok)
	assert.Equal(t, pt(860, 563), e.Position)
	assert.False(t, c.SessionActive())
}

func TestDragRepeatedMoveIsIdempotent(t *testing.T) {
	c, rec := newController(t)
	id := c.Model().Add(page.NewText(pt(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))

	require.NoError(t, c.PointerDown(pt(60, 55)))
	c.PointerMove(pt(70, 75))
	v := c.Model().Version()
	c.PointerMove(pt(70, 75))
	assert.Equal(t, v, c.Model().Version())
	c.PointerUp(pt(70, 75))

	e, _ := c.Model().Get(id)
	assert.Equal(t, pt(60, 70), e.Position)
	assert.Equal(t, 1, rec.count(EventElementChanged))
}

func TestResizeHandleLocksAspect(t *testing.T) {
	c, _ := newController(t)
	id := c.Model().Add(page.NewVisual(pt(0, 0), geometry.NewSize(150, 75), "wide.png", 2, false))

	hit, ok := c.HitTest(pt(145, 70))
	require.True(t, ok)
	assert.True(t, hit.Handle)

	require.NoError(t, c.PointerDown(pt(145, 70)))
	c.PointerMove(pt(895, 895))
	c.PointerUp(pt(895, 895))

	e, _ := c.Model().Get(id)
	assert.InDelta(t, 1060.0, e.Size.Width, 1e-9)
	assert.InDelta(t, 530.0, e.Size.Height, 1e-9)
	assert.Equal(t, pt(0, 0), e.Position)
}

func TestResizeTextIsFreeWithFloor(t *testing.T) {
	c, _ := newController(t)
	id := c.Model().Add(page.NewText(pt(50, 50), geometry.NewSize(200, 80), colorutil.Black, 16))

	require.NoError(t, c.PointerDown(pt(245, 125)))
	c.PointerMove(pt(145, 85))
	c.PointerUp(pt(145, 85))

	e, _ := c.Model().Get(id)
	assert.Equal(t, geometry.NewSize(100, 60), e.Size)
}

func TestDrawModeRecordsOneStroke(t *testing.T) {
	c, rec := newController(t)
	red := colorutil.MustParseHex(colorutil.PenColors[2])

	c.SetTool(ToolDraw)
	c.SetPenColor(red)
	c.SetPenWidth(8)

	require.NoError(t, c.PointerDown(pt(10, 10)))
	c.PointerMove(pt(20, 20))
	c.PointerMove(pt(30, 25))
	c.PointerMove(pt(40, 35))
	c.PointerUp(pt(40, 35))
	c.PointerMove(pt(80, 80))

	strokes := c.Ink().Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, []geometry.Point2D{pt(20, 20), pt(30, 25), pt(40, 35)}, strokes[0].Points)
	assert.Equal(t, red, strokes[0].Color)
	assert.Equal(t, 8.0, strokes[0].Width)
	assert.Equal(t, 1, rec.count(EventStrokeSealed))
}

func TestDrawModeClearsFocus(t *testing.T) {
	c, _ := newController(t)
	id := c.AddText()
	require.Equal(t, focus.Editing, c.Status().State)

	c.SetTool(ToolDraw)
	assert.Equal(t, focus.Unfocused, c.Status().State)
	assert.False(t, c.Model().Has(id), "empty text is destroyed on focus loss")
	assert.True(t, c.Ink().Enabled())

	c.SetTool(ToolNone)
	assert.False(t, c.Ink().Enabled())
}

func TestSecondPointerDownRejected(t *testing.T) {
	c, _ := newController(t)
	c.Model().Add(page.NewText(pt(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))

	require.NoError(t, c.PointerDown(pt(60, 55)))
	v := c.Model().Version()
	err := c.PointerDown(pt(500, 500))
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, v, c.Model().Version())
}

func TestOutsideClickRule(t *testing.T) {
	c, rec := newController(t)

	kept := c.AddText()
	c.TypeText("hello")
	require.NoError(t, c.PointerDown(pt(900, 500)))
	c.PointerUp(pt(900, 500))
	assert.Equal(t, focus.Unfocused, c.Status().State)
	assert.True(t, c.Model().Has(kept))

	gone := c.AddText()
	require.NoError(t, c.PointerDown(pt(900, 500)))
	assert.False(t, c.Model().Has(gone))
	assert.Equal(t, 1, rec.count(EventElementRemoved))
}

func TestDeleteKeyDestroysFocused(t *testing.T) {
	c, _ := newController(t)
	id := c.AddText()
	c.TypeText("keep me?")
	c.KeyDown(KeyDelete)
	assert.False(t, c.Model().Has(id))
	assert.Equal(t, focus.Unfocused, c.Status().State)
}

func TestBackspace(t *testing.T) {
	c, _ := newController(t)
	text := c.AddText()
	c.TypeText("héllo")
	c.KeyDown(KeyBackspace)
	e, _ := c.Model().Get(text)
	assert.Equal(t, "héll", e.Text().Content)

	img := c.Model().Add(page.NewVisual(pt(400, 300), geometry.NewSize(100, 100), "x.png", 1, false))
	require.NoError(t, c.PointerDown(pt(420, 320)))
	c.PointerUp(pt(420, 320))
	c.KeyDown(KeyBackspace)
	assert.False(t, c.Model().Has(img))
	assert.True(t, c.Model().Has(text))
}

func TestPausedInputIsNoop(t *testing.T) {
	c, _ := newController(t)
	id := c.Model().Add(page.NewText(pt(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))

	c.Pause()
	v := c.Model().Version()
	require.NoError(t, c.PointerDown(pt(60, 55)))
	c.PointerMove(pt(300, 300))
	c.KeyDown(KeyDelete)
	c.SetTool(ToolDraw)
	assert.Equal(t, v, c.Model().Version())
	assert.True(t, c.Model().Has(id))
	assert.Equal(t, ToolNone, c.Tool())

	c.Resume()
	require.NoError(t, c.PointerDown(pt(60, 55)))
	assert.True(t, c.SessionActive())
}

func TestReleaseWhilePausedClosesSession(t *testing.T) {
	c, _ := newController(t)
	id := c.Model().Add(page.NewVisual(pt(50, 50), geometry.NewSize(200, 100), "wide.png", 2, false))

	require.NoError(t, c.PointerDown(pt(60, 55)))
	c.Pause()
	v := c.Model().Version()
	c.PointerUp(pt(400, 300))
	assert.False(t, c.SessionActive())
	assert.Equal(t, v, c.Model().Version())
	c.Resume()

	require.NoError(t, c.PointerDown(pt(900, 500)))
	c.PointerUp(pt(900, 500))
	e, _ := c.Model().Get(id)
	assert.Equal(t, pt(50, 50), e.Position)
}

func TestCancelWhilePausedDiscardsStroke(t *testing.T) {
	c, rec := newController(t)
	c.SetTool(ToolDraw)
	require.NoError(t, c.PointerDown(pt(10, 10)))
	c.PointerMove(pt(20, 20))

	c.Pause()
	v := c.Ink().Version()
	c.CancelSession()
	c.Resume()

	assert.False(t, c.SessionActive())
	assert.False(t, c.Ink().Drawing())
	assert.Equal(t, v, c.Ink().Version())
	assert.Empty(t, c.Ink().Strokes())
	assert.Zero(t, rec.count(EventStrokeSealed))

	require.NoError(t, c.PointerDown(pt(30, 30)))
	assert.True(t, c.SessionActive())
}

func TestViewportMapsScreenToPage(t *testing.T) {
	c, _ := newController(t)
	id := c.Model().Add(page.NewText(pt(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))

	require.True(t, c.SetViewport(geometry.Translation(100, 20).Compose(geometry.Scale(2, 2))))
	assert.False(t, c.SetViewport(geometry.Scale(0, 1)))

	// Screen (220, 130) is page (60, 55).
	require.NoError(t, c.PointerDown(pt(220, 130)))
	c.PointerMove(pt(240, 150))
	c.PointerUp(pt(240, 150))

	e, _ := c.Model().Get(id)
	assert.Equal(t, pt(60, 60), e.Position)
}

func TestPlaceImageSizing(t *testing.T) {
	c, _ := newController(t)

	wide, err := c.PlaceImage(context.Background(), "wide.png")
	require.NoError(t, err)
	e, _ := c.Model().Get(wide)
	assert.Equal(t, geometry.NewSize(150, 75), e.Size)
	assert.Equal(t, pt(100, 100), e.Position)
	assert.Equal(t, 2.0, e.Visual().AspectRatio)
	assert.Equal(t, focus.Status{State: focus.Focused, ID: wide}, c.Status())

	tall, err := c.PlaceImage(context.Background(), "tall.png")
	require.NoError(t, err)
	e, _ = c.Model().Get(tall)
	assert.InDelta(t, 50.0, e.Size.Width, 1e-9)
	assert.Equal(t, 150.0, e.Size.Height)

	missing, err := c.PlaceImage(context.Background(), "missing.png")
	require.NoError(t, err)
	e, _ = c.Model().Get(missing)
	assert.Equal(t, geometry.NewSize(150, 150), e.Size)
	assert.Equal(t, 1.0, e.Visual().AspectRatio)
}

func TestPlaceCancelled(t *testing.T) {
	c, _ := newController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.PlaceImage(ctx, "missing.png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Model().Len())
}

func TestPlaceStickerScatter(t *testing.T) {
	c, _ := newController(t)
	area := c.Config().StickerScatter
	for i := 0; i < 20; i++ {
		id, err := c.PlaceSticker(context.Background(), "wide.png")
		require.NoError(t, err)
		e, _ := c.Model().Get(id)
		assert.Equal(t, page.KindSticker, e.Kind())
		assert.True(t, area.Contains(e.Position), "position %v", e.Position)
	}
}

func TestFontSizeStepsByOnePoint(t *testing.T) {
	c, _ := newController(t)
	id := c.AddText()
	c.TypeText("x")

	c.IncreaseFontSize()
	e, _ := c.Model().Get(id)
	assert.Equal(t, 17.0, e.Text().FontSize)
	c.DecreaseFontSize()
	c.DecreaseFontSize()
	assert.Equal(t, 15.0, c.FontSize())
}

func TestFontSizeStepsAreBounded(t *testing.T) {
	c, _ := newController(t)
	id := c.AddText()
	c.TypeText("x")

	for i := 0; i < 60; i++ {
		c.IncreaseFontSize()
	}
	e, _ := c.Model().Get(id)
	assert.Equal(t, 60.0, e.Text().FontSize)
	assert.Equal(t, 60.0, c.FontSize())

	for i := 0; i < 60; i++ {
		c.DecreaseFontSize()
	}
	e, _ = c.Model().Get(id)
	assert.Equal(t, 10.0, e.Text().FontSize)
}

func TestTextAutoGrow(t *testing.T) {
	c, _ := newController(t)
	id := c.AddText()
	e, _ := c.Model().Get(id)
	assert.Equal(t, geometry.NewSize(200, 20), e.Size)
	assert.Equal(t, pt(50, 50), e.Position)

	c.TypeText(strings.Repeat("word ", 40))
	e, _ = c.Model().Get(id)
	assert.Greater(t, e.Size.Height, 20.0)

	c.SetText("short")
	e, _ = c.Model().Get(id)
	assert.Equal(t, 20.0, e.Size.Height)
}

func TestAutoGrowKeepsUserHeight(t *testing.T) {
	c, _ := newController(t)
	id := c.AddText()
	c.TypeText("a")

	// Drag the handle down to 100 high.
	require.NoError(t, c.PointerDown(pt(245, 65)))
	c.PointerMove(pt(245, 145))
	c.PointerUp(pt(245, 145))
	e, _ := c.Model().Get(id)
	require.Equal(t, 100.0, e.Size.Height)

	c.TypeText("b")
	e, _ = c.Model().Get(id)
	assert.Equal(t, 100.0, e.Size.Height)
}

func TestCreatedElementsRegisterSnapshots(t *testing.T) {
	c, _ := newController(t)
	arena := c.Focus().Arena()

	text := c.AddText()
	got, ok := arena.Snapshot(text)
	require.True(t, ok)
	assert.Equal(t, "", got)
	c.TypeText("dear diary")
	got, _ = arena.Snapshot(text)
	assert.Equal(t, "dear diary", got)

	img, err := c.PlaceImage(context.Background(), "wide.png")
	require.NoError(t, err)
	got, ok = arena.Snapshot(img)
	require.True(t, ok)
	assert.Equal(t, "wide.png", got)

	require.NoError(t, c.Delete(text))
	_, ok = arena.Snapshot(text)
	assert.False(t, ok)
	c.KeyDown(KeyDelete)
	_, ok = arena.Snapshot(img)
	assert.False(t, ok)
}

func TestGrowOnRemovedElementIsLogged(t *testing.T) {
	var buf bytes.Buffer
	model := page.NewModel(geometry.NewSize(1060, 583), colorutil.White)
	c := New(model, ink.NewLayer(ink.DefaultStyle(), ink.MinWidth, ink.MaxWidth),
		focus.NewMachine(model, focus.NewArena(), focus.NewZones(), nil), Options{
			Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		})

	e := page.NewText(pt(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16)
	e.Text().Content = "line\nline\nline"
	c.grow(e)

	assert.Contains(t, buf.String(), "failed to grow text")
	assert.Zero(t, model.Len())
}

func TestSetTextColor(t *testing.T) {
	c, _ := newController(t)
	blue := color.RGBA{B: 0xff, A: 0xff}
	id := c.AddText()
	c.SetTextColor(blue)
	e, _ := c.Model().Get(id)
	assert.Equal(t, blue, e.Text().Color)
	assert.Equal(t, blue, c.TextColor())
}

func TestAddTextEvents(t *testing.T) {
	c, rec := newController(t)
	c.SetTool(ToolText)
	assert.Equal(t, []Event{EventElementAdded, EventFocusChanged, EventToolChanged}, rec.events)
}

func TestSetBackground(t *testing.T) {
	c, rec := newController(t)
	pink := colorutil.MustParseHex(colorutil.BackgroundColors[2])
	c.SetBackground(pink)
	assert.Equal(t, pink, c.Model().Background())
	assert.Equal(t, 1, rec.count(EventBackgroundChanged))
}

func TestDeleteByID(t *testing.T) {
	c, _ := newController(t)
	a := c.Model().Add(page.NewVisual(pt(400, 300), geometry.NewSize(100, 100), "x.png", 1, false))
	b := c.AddText()
	require.NoError(t, c.Delete(a))
	assert.False(t, c.Model().Has(a))
	assert.Equal(t, focus.Status{State: focus.Editing, ID: b}, c.Status())
	assert.ErrorIs(t, c.Delete(a), page.ErrNotFound)
}

func TestParseTool(t *testing.T) {
	for tool := ToolNone; tool <= ToolBackground; tool++ {
		got, ok := ParseTool(tool.String())
		assert.True(t, ok)
		assert.Equal(t, tool, got)
	}
	_, ok := ParseTool("lasso")
	assert.False(t, ok)
}
