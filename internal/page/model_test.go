package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/pkg/colorutil"
	"memento/pkg/geometry"
)

func newTestModel() *Model {
	return NewModel(geometry.NewSize(1060.30, 583.31), colorutil.White)
}

func TestModelAddAssignsMonotonicIDs(t *testing.T) {
	m := newTestModel()

	a := m.Add(NewText(geometry.NewPoint2D(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))
	b := m.Add(NewVisual(geometry.NewPoint2D(100, 100), geometry.NewSize(150, 75), "smile.png", 2, true))
	require.NoError(t, m.Remove(a))
	c := m.Add(NewText(geometry.Point2D{}, geometry.NewSize(200, 20), colorutil.Black, 16))

	assert.Less(t, int64(a), int64(b))
	assert.Less(t, int64(b), int64(c))
	assert.Equal(t, 2, m.Len())
}

func TestModelUpdateAndGet(t *testing.T) {
	m := newTestModel()
	id := m.Add(NewText(geometry.NewPoint2D(50, 50), geometry.NewSize(200, 20), colorutil.Black, 16))

	err := m.Update(id, Patch{
		Position: Ptr(geometry.NewPoint2D(70, 80)),
		Content:  Ptr("hello"),
		FontSize: Ptr(24.0),
	})
	require.NoError(t, err)

	e, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, geometry.NewPoint2D(70, 80), e.Position)
	assert.Equal(t, "hello", e.Text().Content)
	assert.Equal(t, 24.0, e.Text().FontSize)
	assert.Nil(t, e.Visual())

	// Get returns a copy.
	e.Text().Content = "mutated"
	again, _ := m.Get(id)
	assert.Equal(t, "hello", again.Text().Content)

	assert.ErrorIs(t, m.Update(999, Patch{}), ErrNotFound)
	assert.ErrorIs(t, m.Remove(999), ErrNotFound)
}

func TestModelTextFieldsIgnoredForVisuals(t *testing.T) {
	m := newTestModel()
	id := m.Add(NewVisual(geometry.Point2D{}, geometry.NewSize(100, 50), "a.png", 2, false))
	require.NoError(t, m.Update(id, Patch{Content: Ptr("x")}))

	e, _ := m.Get(id)
	assert.Equal(t, KindImage, e.Kind())
	assert.Equal(t, 2.0, e.Visual().AspectRatio)
}

func TestModelListOrder(t *testing.T) {
	m := newTestModel()
	a := m.Add(NewText(geometry.Point2D{}, geometry.NewSize(10, 10), colorutil.Black, 16))
	b := m.Add(NewText(geometry.Point2D{}, geometry.NewSize(10, 10), colorutil.Black, 16))
	c := m.Add(NewText(geometry.Point2D{}, geometry.NewSize(10, 10), colorutil.Black, 16))

	require.NoError(t, m.Update(a, Patch{ZIndex: Ptr(m.TopZ() + 1)}))

	var ids []ID
	for _, e := range m.List() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []ID{b, c, a}, ids)
}

func TestModelVersionBumpsOnMutation(t *testing.T) {
	m := newTestModel()
	v0 := m.Version()
	id := m.Add(NewText(geometry.Point2D{}, geometry.NewSize(10, 10), colorutil.Black, 16))
	v1 := m.Version()
	require.NoError(t, m.Update(id, Patch{Focused: Ptr(true)}))
	v2 := m.Version()
	m.SetBackground(colorutil.Black)
	v3 := m.Version()

	assert.Less(t, v0, v1)
	assert.Less(t, v1, v2)
	assert.Less(t, v2, v3)

	snap := m.Snapshot()
	assert.Equal(t, v3, snap.Version)
	assert.Equal(t, colorutil.Black, snap.Background)
	assert.Len(t, snap.Elements, 1)
}
