package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionTable_Classify(t *testing.T) {
	regions := DefaultTables().Regions

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"delhi", 28.6, 77.2, "north_india"},
		{"north lower edge", 28, 75, "north_india"},
		{"central", 23.2, 77.4, "central_india"},
		{"central wins over south at 20", 20, 75, "central_india"},
		{"south", 12.9, 77.6, "south_india"},
		{"east", 23.8, 86.8, "east_india"},
		{"null island", 0, 0, "general_india"},
		{"outside india", 51.5, -0.1, "general_india"},
		{"southern hemisphere", -33.9, 151.2, "general_india"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, regions.Classify(tt.lat, tt.lon))
		})
	}
}

func TestRegionTable_PriorityOrder(t *testing.T) {
	regions := RegionTable{
		Fallback: "general_x",
		Bands: []RegionBand{
			{Label: "first_x", MinLat: 0, MaxLat: 10, MinLon: 0, MaxLon: 10},
			{Label: "second_x", MinLat: 5, MaxLat: 15, MinLon: 5, MaxLon: 15},
		},
	}

	assert.Equal(t, "first_x", regions.Classify(7, 7))
	assert.Equal(t, "second_x", regions.Classify(12, 12))
	assert.Equal(t, "general_x", regions.Classify(20, 20))
	assert.Equal(t, "general_x", RegionTable{Fallback: "general_x"}.Classify(1, 1))
}

func TestRegionBand_Contains(t *testing.T) {
	b := RegionBand{Label: "x", MinLat: 10, MaxLat: 20, MinLon: 30, MaxLon: 40}

	assert.True(t, b.Contains(10, 30))
	assert.True(t, b.Contains(20, 40))
	assert.True(t, b.Contains(15, 35))
	assert.False(t, b.Contains(35, 15), "lat and lon must not be swapped")
	assert.False(t, b.Contains(9.99, 35))
}
