package canvas

// Viewport translates the tree and canvas layer. There is no zoom.
type Viewport struct {
	Pan Point `json:"pan"`
}

// ToCanvas maps a screen position into canvas coordinates.
func (v Viewport) ToCanvas(screen Point) Point {
	return screen.Sub(v.Pan)
}

// CenterOn returns the pan that puts canvas point p in the middle of a
// screen of the given size.
func CenterOn(p Point, screenWidth, screenHeight float64) Point {
	return Point{X: screenWidth/2 - p.X, Y: screenHeight/2 - p.Y}
}
