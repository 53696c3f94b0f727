package models

import "math/rand"

// Colors is the fixed palette of color tokens an event may use. The tokens carry
// no meaning beyond visual grouping in the calendar grid
var Colors = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#f59e0b", // amber
	"#eab308", // yellow
	"#84cc16", // lime
	"#22c55e", // green
	"#10b981", // emerald
	"#14b8a6", // teal
	"#06b6d4", // cyan
	"#0ea5e9", // sky
	"#3b82f6", // blue
	"#6366f1", // indigo
	"#8b5cf6", // violet
	"#a855f7", // purple
	"#d946ef", // fuchsia
	"#ec4899", // pink
	"#f43f5e", // rose
}

// IsValidColor checks if the given token is part of the palette
func IsValidColor(color string) bool {
	for _, c := range Colors {
		if c == color {
			return true
		}
	}
	return false
}

// RandomColor picks a random token from the palette - used when an event is
// created without an explicit color
func RandomColor() string {
	return Colors[rand.Intn(len(Colors))]
}
