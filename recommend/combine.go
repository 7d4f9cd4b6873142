package recommend

import "sort"

// Combine merges soil and seasonal candidates. The first occurrence of a crop name
// wins, the survivors are stably sorted by confidence (highest first) and the list
// is cut to MaxCrops.
func Combine(soil, seasonal []Crop) []Crop {
	out := make([]Crop, 0, len(soil)+len(seasonal))
	seen := make(map[string]struct{}, len(soil)+len(seasonal))
	for _, list := range [][]Crop{soil, seasonal} {
		for _, c := range list {
			if _, dup := seen[c.Name]; dup {
				continue
			}
			seen[c.Name] = struct{}{}
			out = append(out, cloneCrop(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > MaxCrops {
		out = out[:MaxCrops]
	}
	return out
}
