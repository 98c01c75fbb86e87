package store

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var annotationColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// AnnotateFrame returns a copy of frame with the label's most recent
// sighting drawn on it: the bounding box plus a caption with the track id,
// timestamp and location. The input frame is never modified. If the label
// has no sightings the copy comes back unmarked.
func (s *Store) AnnotateFrame(frame image.Image, label string) image.Image {
	out := image.NewRGBA(frame.Bounds())
	draw.Draw(out, out.Bounds(), frame, frame.Bounds().Min, draw.Src)

	ev, ok := s.LastSeen(label)
	if !ok {
		return out
	}

	box := image.Rect(ev.BBox.X, ev.BBox.Y, ev.BBox.X+ev.BBox.W, ev.BBox.Y+ev.BBox.H)
	drawRect(out, box, 2)

	caption1 := fmt.Sprintf("%s:%d @ %s", label, ev.TrackID,
		ev.Timestamp.Format("2006-01-02 15:04:05"))
	caption2 := fmt.Sprintf("Loc: (%.5f, %.5f)", ev.Location.Lat, ev.Location.Lon)
	drawText(out, caption1, ev.BBox.X, ev.BBox.Y-20)
	drawText(out, caption2, ev.BBox.X, ev.BBox.Y-5)

	return out
}

// drawRect draws an unfilled rectangle of the given border thickness.
func drawRect(img *image.RGBA, r image.Rectangle, thickness int) {
	src := image.NewUniform(annotationColor)
	for i := 0; i < thickness; i++ {
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y+i, r.Max.X, r.Min.Y+i+1), src, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-i-1, r.Max.X, r.Max.Y-i), src, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X+i, r.Min.Y, r.Min.X+i+1, r.Max.Y), src, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Max.X-i-1, r.Min.Y, r.Max.X-i, r.Max.Y), src, image.Point{}, draw.Src)
	}
}

func drawText(img *image.RGBA, text string, x, y int) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(annotationColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
