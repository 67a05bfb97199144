package shape

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"pdf-annotator/pkg/geometry"
)

// Kind is the shape a stroke was recognised as.
type Kind int

const (
	Unmodified Kind = iota
	Line
	Triangle
	Rectangle
	Circle
)

func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Triangle:
		return "triangle"
	case Rectangle:
		return "rectangle"
	case Circle:
		return "circle"
	}
	return "unmodified"
}

// Recognition thresholds, in document units.
const (
	MinShapePoints     = 10
	SimplifyTolerance  = 4.0
	PolygonCloseDist   = 25.0
	CircleCloseDist    = 35.0
	CircleMaxDeviation = 0.22
	CircleMinAspect    = 0.7
	CircleMaxAspect    = 1.3
	CircleMinFill      = 0.65
	CircleStepDegrees  = 10
)

// Result is a corrected stroke.
type Result struct {
	Shape  Kind
	Points []geometry.Point
}

// Correct replaces a freehand stroke with the shape it most resembles.
// Polygons are tried before circles so a rough rectangle is not taken for
// a circle. Anything unrecognised becomes a straight line from the first to
// the last point.
func Correct(path []geometry.Point) Result {
	if len(path) < 2 {
		return Result{Shape: Unmodified, Points: path}
	}
	start, end := path[0], path[len(path)-1]
	line := Result{Shape: Line, Points: []geometry.Point{start, end}}

	if len(path) < MinShapePoints {
		return line
	}

	simplified := Simplify(path, SimplifyTolerance)
	vertices := simplified
	if simplified[0].Distance(simplified[len(simplified)-1]) < PolygonCloseDist {
		vertices = simplified[:len(simplified)-1]
	}

	switch len(vertices) {
	case 3:
		closed := make([]geometry.Point, 0, 4)
		closed = append(closed, vertices...)
		return Result{Shape: Triangle, Points: append(closed, vertices[0])}
	case 4:
		bb := geometry.BoundingBox(path)
		c := bb.Corners()
		return Result{Shape: Rectangle, Points: []geometry.Point{c[0], c[1], c[2], c[3], c[0]}}
	}

	if start.Distance(end) < CircleCloseDist {
		if pts, ok := fitCircle(path); ok {
			return Result{Shape: Circle, Points: pts}
		}
	}
	return line
}

func fitCircle(path []geometry.Point) ([]geometry.Point, bool) {
	bb := geometry.BoundingBox(path)
	center := bb.Center()

	radii := make([]float64, len(path))
	for i, p := range path {
		radii[i] = p.Distance(center)
	}
	avgR, stdDev := stat.PopMeanStdDev(radii, nil)

	h := bb.Height
	if h == 0 {
		h = 1
	}
	aspect := bb.Width / h
	circleArea := math.Pi * avgR * avgR
	if circleArea == 0 {
		circleArea = 1
	}
	fill := bb.Width * bb.Height / circleArea

	if !(stdDev/avgR < CircleMaxDeviation && aspect > CircleMinAspect && aspect < CircleMaxAspect && fill > CircleMinFill) {
		return nil, false
	}

	radius := (bb.Width + bb.Height) / 4
	pts := make([]geometry.Point, 0, 360/CircleStepDegrees+1)
	for deg := 0; deg <= 360; deg += CircleStepDegrees {
		rad := float64(deg) * math.Pi / 180
		pts = append(pts, geometry.Pt(center.X+radius*math.Cos(rad), center.Y+radius*math.Sin(rad)))
	}
	return pts, true
}
