package image

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/pkg/geometry"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoaderResolve(t *testing.T) {
	src := MemorySource{"wide.png": encodePNG(t, 40, 20, color.White), "junk.png": []byte("not an image")}
	l := NewLoader(src)
	ctx := context.Background()

	size, err := l.Resolve(ctx, "wide.png")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(40, 20), size)
	assert.Equal(t, 2.0, size.Ratio())

	_, err = l.Resolve(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrUnknownRef)

	_, err = l.Resolve(ctx, "junk.png")
	assert.Error(t, err)
}

func TestLoaderLoadCaches(t *testing.T) {
	src := MemorySource{"a.png": encodePNG(t, 3, 2, color.Black)}
	l := NewLoader(src)

	img, err := l.Load(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	delete(src, "a.png")
	again, err := l.Load(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Same(t, img, again)

	l.Forget("a.png")
	_, err = l.Load(context.Background(), "a.png")
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestLoaderHonoursContext(t *testing.T) {
	l := NewLoader(MemorySource{"a.png": encodePNG(t, 1, 1, color.Black)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Resolve(ctx, "a.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "star.png"), encodePNG(t, 10, 10, color.White), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heart.PNG"), encodePNG(t, 10, 5, color.White), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src := DirSource{Root: dir}
	refs, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"heart.PNG", "star.png"}, refs)

	size, err := NewLoader(src).Resolve(context.Background(), "heart.PNG")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(10, 5), size)

	_, err = src.Open(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrUnknownRef)
	_, err = src.Open(context.Background(), "nope.png")
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("a/b/photo.JPG"))
	assert.True(t, IsSupportedFormat("scan.tif"))
	assert.False(t, IsSupportedFormat("doc.pdf"))
}

func TestCompositeRender(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	tile := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range tile.Pix {
		tile.Pix[i] = 0xff
	}
	redTile := image.NewUniform(red)

	c := NewComposite(20, 10, color.RGBA{B: 0xff, A: 0xff})
	c.AddLayer(tile, image.Rect(0, 0, 2, 2))
	c.AddLayer(image.NewRGBA(image.Rect(0, 0, 4, 4)), image.Rect(0, 0, 20, 10)) // fully transparent
	c.AddLayer(&boundedUniform{redTile, image.Rect(0, 0, 2, 2)}, image.Rect(10, 0, 20, 10))
	out := c.Render()

	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, out.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, out.RGBAAt(5, 5))
	scaled := out.RGBAAt(15, 5)
	assert.Greater(t, scaled.R, uint8(0xf0))
	assert.Less(t, scaled.B, uint8(0x10))
}

// boundedUniform is a uniform color with finite bounds, to exercise scaling.
type boundedUniform struct {
	*image.Uniform
	r image.Rectangle
}

func (b *boundedUniform) Bounds() image.Rectangle { return b.r }
