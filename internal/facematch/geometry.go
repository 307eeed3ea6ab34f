package facematch

// Box is a face bounding box [x1, y1, x2, y2].
type Box []float64

// Valid reports whether the box has four coordinates and a positive area.
func (b Box) Valid() bool {
	return len(b) == 4 && b[2] > b[0] && b[3] > b[1]
}

// Scale multiplies every coordinate by factor, e.g. to map a box found on a
// downscaled frame back to the original resolution.
func (b Box) Scale(factor float64) Box {
	if len(b) != 4 || factor <= 0 {
		return b
	}
	return Box{b[0] * factor, b[1] * factor, b[2] * factor, b[3] * factor}
}

// Relative converts a pixel box to relative (0-1) coordinates.
func (b Box) Relative(width, height int) Box {
	if len(b) != 4 || width <= 0 || height <= 0 {
		return b
	}
	return Box{
		b[0] / float64(width),
		b[1] / float64(height),
		b[2] / float64(width),
		b[3] / float64(height),
	}
}
