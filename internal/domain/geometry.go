package domain

// Point is a planar (x, y) position. For sites x is longitude and y is latitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsPointInPolygon reports whether p lies inside polygon using ray casting.
// The last vertex connects back to the first. Points on an edge or vertex may
// land on either side. Polygons with fewer than 3 vertices are not guarded
// and always report false.
func IsPointInPolygon(p Point, polygon []Point) bool {
	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi, yi := polygon[i].X, polygon[i].Y
		xj, yj := polygon[j].X, polygon[j].Y

		if (yi > p.Y) != (yj > p.Y) && p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Centroid returns the arithmetic mean of the polygon's vertices. Repeated
// vertices count once per occurrence; this is deliberately not the
// area-weighted centroid. An empty polygon yields the zero point.
func Centroid(polygon []Point) Point {
	if len(polygon) == 0 {
		return Point{}
	}
	var sumX, sumY float64
	for _, p := range polygon {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(polygon))
	return Point{X: sumX / n, Y: sumY / n}
}

// SiteCentroid returns the centroid of a site's boundary as a coordinate.
func SiteCentroid(site Site) Coordinate {
	c := Centroid(site.Polygon())
	return Coordinate{Lon: c.X, Lat: c.Y}
}
