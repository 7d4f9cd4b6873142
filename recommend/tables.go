package recommend

import (
	_ "embed"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// Tables holds the rule data behind fallback recommendations. A Tables value is
// read-only after construction and safe for concurrent use.
type Tables struct {
	Regions     RegionTable             `yaml:"regions"`
	Soils       map[string][]Crop       `yaml:"soils"`
	Seasons     SeasonTable             `yaml:"seasons"`
	Fertilizers map[string][]Fertilizer `yaml:"fertilizers"`
	Irrigation  []IrrigationBand        `yaml:"irrigation"`
}

// SeasonTable splits the calendar into Kharif months and everything else (Rabi).
type SeasonTable struct {
	KharifMonths []int  `yaml:"kharifMonths"`
	Kharif       []Crop `yaml:"kharif"`
	Rabi         []Crop `yaml:"rabi"`
}

// IrrigationBand is the advice for one irrigation frequency code.
type IrrigationBand struct {
	Code             int      `yaml:"code"`
	Name             string   `yaml:"name"`
	Method           string   `yaml:"method"`
	WaterRequirement string   `yaml:"waterRequirement"`
	Timing           string   `yaml:"timing"`
	Tips             []string `yaml:"tips"`
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// DefaultTables returns the built-in tables. It panics if the embedded data is
// invalid, which can only happen with a broken build.
func DefaultTables() *Tables {
	defaultOnce.Do(func() {
		t, err := ParseTables(defaultTablesYAML)
		if err != nil {
			panic(err)
		}
		defaultTables = t
	})
	return defaultTables
}

// ParseTables decodes and validates a YAML rule document.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "recommend: decode tables")
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(t.Irrigation, func(i, j int) bool { return t.Irrigation[i].Code < t.Irrigation[j].Code })
	return &t, nil
}

func (t *Tables) validate() error {
	if len(t.Soils[DefaultSoil]) == 0 {
		return eris.Errorf("recommend: soil table has no %q entry", DefaultSoil)
	}
	if len(t.Fertilizers[DefaultSoil]) == 0 {
		return eris.Errorf("recommend: fertilizer table has no %q entry", DefaultSoil)
	}
	if len(t.Seasons.Kharif) == 0 || len(t.Seasons.Rabi) == 0 {
		return eris.New("recommend: seasonal table needs kharif and rabi crops")
	}
	if t.Regions.Fallback == "" {
		return eris.New("recommend: region table needs a fallback label")
	}
	seen := make(map[int]bool, len(t.Irrigation))
	for _, b := range t.Irrigation {
		seen[b.Code] = true
	}
	for code := 0; code <= maxIrrigationCode; code++ {
		if !seen[code] {
			return eris.Errorf("recommend: irrigation table missing code %d", code)
		}
	}
	for _, crops := range t.Soils {
		for _, c := range crops {
			if c.Confidence < 0 || c.Confidence > 1 {
				return eris.Errorf("recommend: crop %q confidence %v out of range", c.Name, c.Confidence)
			}
		}
	}
	return nil
}

// SoilCrops returns the candidates for a soil type, or the loamy list when the
// soil is unknown.
func (t *Tables) SoilCrops(soil string) []Crop {
	if crops, ok := t.Soils[soil]; ok && len(crops) > 0 {
		return crops
	}
	return t.Soils[DefaultSoil]
}

// SeasonalCrops returns the Kharif list during Kharif months and the Rabi list
// otherwise.
func (t *Tables) SeasonalCrops(now time.Time) []Crop {
	if t.IsKharif(now.Month()) {
		return t.Seasons.Kharif
	}
	return t.Seasons.Rabi
}

// IsKharif reports whether m falls in the Kharif season.
func (t *Tables) IsKharif(m time.Month) bool {
	for _, k := range t.Seasons.KharifMonths {
		if time.Month(k) == m {
			return true
		}
	}
	return false
}

// FertilizerAdvice returns the fertilizers for a soil type, or the loamy entry
// when the soil is unknown.
func (t *Tables) FertilizerAdvice(soil string) []Fertilizer {
	if f, ok := t.Fertilizers[soil]; ok && len(f) > 0 {
		return cloneFertilizers(f)
	}
	return cloneFertilizers(t.Fertilizers[DefaultSoil])
}

// SoilTypes lists the soil keys that have their own crop entry, sorted.
func (t *Tables) SoilTypes() []string {
	out := make([]string, 0, len(t.Soils))
	for k := range t.Soils {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func cloneCrop(c Crop) Crop {
	c.Benefits = append([]string(nil), c.Benefits...)
	return c
}

func cloneFertilizers(in []Fertilizer) []Fertilizer {
	return append([]Fertilizer(nil), in...)
}
