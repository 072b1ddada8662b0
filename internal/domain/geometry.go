package domain

import (
	"fmt"
	"strings"
)

// GeometryKind discriminates the two accepted geometry shapes.
type GeometryKind string

const (
	GeometryPoint GeometryKind = "point"
	GeometryPath  GeometryKind = "path"
)

// Point is a WGS-84 latitude/longitude coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geometry is either a single point or an ordered shoreline path.
// Exactly one of Point and Path is set; geometries are immutable once
// submitted to an assessment.
type Geometry struct {
	Point *Point  `json:"point,omitempty"`
	Path  []Point `json:"path,omitempty"`
}

// PointGeometry builds a point geometry.
func PointGeometry(lat, lon float64) Geometry {
	return Geometry{Point: &Point{Lat: lat, Lon: lon}}
}

// PathGeometry builds a shoreline path geometry from ordered vertices.
func PathGeometry(points ...Point) Geometry {
	return Geometry{Path: points}
}

// Kind reports which shape the geometry carries, or "" when neither is set.
func (g Geometry) Kind() GeometryKind {
	switch {
	case g.Point != nil && g.Path == nil:
		return GeometryPoint
	case g.Point == nil && len(g.Path) > 0:
		return GeometryPath
	default:
		return ""
	}
}

// Validate checks the shape invariants: exactly one of point/path set, a path
// of at least two vertices, and all coordinates within WGS-84 bounds.
// Violations wrap ErrInvalidGeometry.
func (g Geometry) Validate() error {
	switch g.Kind() {
	case GeometryPoint:
		if err := validCoordinate(*g.Point); err != nil {
			return err
		}
	case GeometryPath:
		if len(g.Path) < 2 {
			return fmt.Errorf("%w: shoreline path needs at least 2 vertices, got %d", ErrInvalidGeometry, len(g.Path))
		}
		for i, p := range g.Path {
			if err := validCoordinate(p); err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("%w: geometry must be exactly one of point or path", ErrInvalidGeometry)
	}
	return nil
}

func validCoordinate(p Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90,90]", ErrInvalidGeometry, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180,180]", ErrInvalidGeometry, p.Lon)
	}
	return nil
}

// Anchor returns the representative coordinate used for provider lookups:
// the point itself, or the first vertex of a path.
func (g Geometry) Anchor() (Point, bool) {
	switch g.Kind() {
	case GeometryPoint:
		return *g.Point, true
	case GeometryPath:
		return g.Path[0], true
	default:
		return Point{}, false
	}
}

// canonical renders the geometry as a stable string for ID hashing.
// Coordinates are fixed to 6 decimal places (~0.1m) so formatting noise
// cannot change the hash.
func (g Geometry) canonical() string {
	switch g.Kind() {
	case GeometryPoint:
		return fmt.Sprintf("point:%.6f,%.6f", g.Point.Lat, g.Point.Lon)
	case GeometryPath:
		parts := make([]string, len(g.Path))
		for i, p := range g.Path {
			parts[i] = fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
		}
		return "path:" + strings.Join(parts, ";")
	default:
		return ""
	}
}
