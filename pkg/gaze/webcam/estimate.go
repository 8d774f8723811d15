package webcam

import (
	"image"

	"github.com/teslashibe/go-foveate/pkg/gaze"
)

// Cascade file names looked up in Config.CascadeDir.
const (
	FaceCascade = "haarcascade_frontalface_default.xml"
	EyeCascade  = "haarcascade_eye.xml"
)

// largest returns the rectangle with the biggest area.
func largest(rects []image.Rectangle) (image.Rectangle, bool) {
	var best image.Rectangle
	found := false
	for _, r := range rects {
		if !found || area(r) > area(best) {
			best = r
			found = true
		}
	}
	return best, found
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// eyeCentre averages the centres of up to two eye rectangles, offset by
// the face origin so the result is in frame coordinates.
func eyeCentre(face image.Rectangle, eyes []image.Rectangle) (float64, float64, bool) {
	if len(eyes) == 0 {
		return 0, 0, false
	}
	if len(eyes) > 2 {
		eyes = eyes[:2]
	}

	var sx, sy float64
	for _, e := range eyes {
		sx += float64(face.Min.X) + float64(e.Min.X+e.Max.X)/2
		sy += float64(face.Min.Y) + float64(e.Min.Y+e.Max.Y)/2
	}
	n := float64(len(eyes))
	return sx / n, sy / n, true
}

// toSample maps a point in a mirrored frame of size w x h to a gaze
// sample. Up on screen is positive Y.
func toSample(x, y float64, w, h int) gaze.Sample {
	if w <= 0 || h <= 0 {
		return gaze.Sample{}
	}
	nx := x / float64(w)
	ny := y / float64(h)
	return gaze.Sample{X: nx*2 - 1, Y: 1 - ny*2}.Clamp()
}
