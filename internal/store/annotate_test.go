package store

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravlin/whereabouts/internal/models"
)

func grayFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			frame.Set(x, y, color.RGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	return frame
}

func TestAnnotateFrameDrawsBoundingBox(t *testing.T) {
	st, _ := newTestStore(t)
	require.NoError(t, st.StoreSighting(models.Sighting{
		Label:     "keys",
		TrackID:   3,
		BBox:      models.BBox{X: 40, Y: 60, W: 80, H: 50},
		Timestamp: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Location:  models.LatLng{Lat: 52.52, Lon: 13.4},
	}))

	frame := grayFrame(320, 240)
	out := st.AnnotateFrame(frame, "keys")

	rgba, ok := out.(*image.RGBA)
	require.True(t, ok)

	// Top-left corner of the box must carry the annotation color.
	assert.Equal(t, annotationColor, rgba.RGBAAt(40, 60))
	// Well inside the box the frame is untouched.
	assert.Equal(t, color.RGBA{R: 30, G: 30, B: 30, A: 255}, rgba.RGBAAt(80, 85))

	// The input frame is never modified.
	assert.Equal(t, color.RGBA{R: 30, G: 30, B: 30, A: 255}, frame.RGBAAt(40, 60))
}

func TestAnnotateFrameUnknownLabel(t *testing.T) {
	st, _ := newTestStore(t)

	frame := grayFrame(64, 64)
	out := st.AnnotateFrame(frame, "ghost")

	rgba, ok := out.(*image.RGBA)
	require.True(t, ok)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if rgba.RGBAAt(x, y) != frame.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed on a label with no sightings", x, y)
			}
		}
	}
}
