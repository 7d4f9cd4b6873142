package recommend

import (
	"github.com/twpayne/go-geom"
)

// RegionTable maps coordinates to coarse region labels.
type RegionTable struct {
	Fallback string       `yaml:"fallback"`
	Bands    []RegionBand `yaml:"bands"`
}

// RegionBand is a lat/lon rectangle. Bounds are inclusive.
type RegionBand struct {
	Label  string  `yaml:"label"`
	MinLat float64 `yaml:"minLat"`
	MaxLat float64 `yaml:"maxLat"`
	MinLon float64 `yaml:"minLon"`
	MaxLon float64 `yaml:"maxLon"`
}

func (b RegionBand) bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Contains reports whether the point lies inside or on the edge of the band.
func (b RegionBand) Contains(lat, lon float64) bool {
	return b.bounds().OverlapsPoint(geom.XY, geom.Coord{lon, lat})
}

// Classify returns the label of the first band containing the point, in table
// order, or the fallback label when none does.
func (r RegionTable) Classify(lat, lon float64) string {
	for _, b := range r.Bands {
		if b.Contains(lat, lon) {
			return b.Label
		}
	}
	return r.Fallback
}
