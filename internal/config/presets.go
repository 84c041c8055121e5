package config

import "sort"

// Presets maps a quality name to the number of vectors requested.
var Presets = map[string]int{
	"draft":    25,
	"standard": 100,
	"detailed": 300,
	"max":      500,
}

// GetPreset returns the vector count for a preset and whether it exists.
func GetPreset(name string) (int, bool) {
	n, ok := Presets[name]
	return n, ok
}

// ListPresets returns preset names ordered by vector count.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return Presets[names[i]] < Presets[names[j]]
	})
	return names
}
