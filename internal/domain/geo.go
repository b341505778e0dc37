package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is an axis-aligned latitude/longitude rectangle used as a
// spatial query filter. Callers are responsible for min <= max on each axis;
// queries with inverted bounds return empty results rather than failing.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the point lies within the box, boundary inclusive.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ParsePointWKT parses a WKT point of the form "POINT(lon lat)" as produced
// by ST_AsText. The x coordinate is longitude and y is latitude.
func ParsePointWKT(s string) (lat, lon float64, err error) {
	inner := strings.TrimSpace(s)
	inner = strings.TrimPrefix(inner, "POINT")
	inner = strings.TrimSpace(inner)
	if !strings.HasPrefix(inner, "(") || !strings.HasSuffix(inner, ")") {
		return 0, 0, fmt.Errorf("parse WKT point %q: not a POINT", s)
	}
	inner = strings.TrimSuffix(strings.TrimPrefix(inner, "("), ")")

	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("parse WKT point %q: want 2 coordinates, got %d", s, len(parts))
	}

	lon, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse WKT point %q: bad longitude: %w", s, err)
	}
	lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse WKT point %q: bad latitude: %w", s, err)
	}
	return lat, lon, nil
}
