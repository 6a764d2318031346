package models

import "strings"

// crops is the fixed list offered by the recommendation form, in display order.
var crops = []string{
	"Rice", "Wheat", "Maize", "Bajra", "Jowar", "Ragi",
	"Chickpea", "Pigeon Pea", "Lentil", "Black Gram", "Green Gram",
	"Soybean", "Groundnut", "Mustard", "Sesame", "Sunflower",
	"Cotton", "Jute", "Sugarcane", "Potato", "Onion", "Tomato",
	"Cauliflower", "Cabbage", "Brinjal", "Okra", "Peas", "Carrot",
	"Mango", "Banana", "Papaya", "Guava", "Lemon", "Orange",
}

// Crops returns a copy of the crop list.
func Crops() []string {
	out := make([]string, len(crops))
	copy(out, crops)
	return out
}

// LookupCrop returns the canonical spelling of name if it is in the list.
// Matching trims whitespace and ignores case.
func LookupCrop(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, c := range crops {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
