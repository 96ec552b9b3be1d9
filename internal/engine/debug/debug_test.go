package debug

import (
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-rig/internal/engine/bounds"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

func TestBoxWireframe(t *testing.T) {
	b := bounds.FromMinMax(math.V3(0, 0, 0), math.V3(1, 2, 3))
	v := BoxWireframe(&b, 0.5)
	require.Len(t, v, BBoxWireframeVertexCount*3)

	lo, hi := math.V3(10, 10, 10), math.V3(-10, -10, -10)
	for i := 0; i < len(v); i += 3 {
		p := math.V3(v[i], v[i+1], v[i+2])
		lo, hi = lo.Min(p), hi.Max(p)
	}
	assert.Equal(t, math.V3(-0.5, -0.5, -0.5), lo)
	assert.Equal(t, math.V3(1.5, 2.5, 3.5), hi)

	// Every edge is axis aligned.
	for i := 0; i < len(v); i += 6 {
		a := math.V3(v[i], v[i+1], v[i+2])
		c := math.V3(v[i+3], v[i+4], v[i+5])
		d := c.Sub(a)
		zero := 0
		for _, x := range d.Array() {
			if x == 0 {
				zero++
			}
		}
		assert.Equal(t, 2, zero, "edge %d: %v -> %v", i/6, a, c)
	}

	empty := bounds.New()
	assert.Nil(t, BoxWireframe(&empty, 1))
}

func TestScreenshotsSaveRGBA(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "rig")
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	// 1x2 image: bottom row red, top row blue.
	pixels := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	path, err := s.SaveRGBA(pixels, 1, 2)
	require.NoError(t, err)
	assert.Contains(t, path, "rig_2024-05-01_12-00-00.000.png")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), b)

	_, err = s.SaveRGBA(pixels[:4], 1, 2)
	assert.Error(t, err)
}
