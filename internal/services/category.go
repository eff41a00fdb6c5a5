package services

import "github.com/anonto42/syrena/backend/internal/models"

const CategoryOther = "other"

var categories = []models.Category{
	{ID: "restaurant", Name: "Restaurant", Icon: "restaurant"},
	{ID: "cafe", Name: "Café", Icon: "local-cafe"},
	{ID: "viewpoint", Name: "Viewpoint", Icon: "photo-camera"},
	{ID: "nature", Name: "Nature", Icon: "park"},
	{ID: "shopping", Name: "Shopping", Icon: "shopping-bag"},
	{ID: "hotel", Name: "Hotel", Icon: "hotel"},
	{ID: "museum", Name: "Museum", Icon: "account-balance"},
	{ID: "hidden-gem", Name: "Hidden Gem", Icon: "stars"},
	{ID: "people-watching", Name: "People Watching", Icon: "people"},
	{ID: CategoryOther, Name: "Other", Icon: "more-horiz"},
}

// Categories returns a copy of the place category catalogue.
func Categories() []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)
	return out
}

func IsCategory(id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// detection rules in priority order; the first rule with a matching type wins
var detectRules = []struct {
	category string
	types    []string
}{
	{"restaurant", []string{"restaurant", "food"}},
	{"cafe", []string{"cafe", "coffee"}},
	{"hotel", []string{"hotel", "lodging"}},
	{"shopping", []string{"shopping_mall", "store"}},
	{"museum", []string{"museum", "art_gallery"}},
	{"nature", []string{"park", "natural_feature"}},
	{"viewpoint", []string{"tourist_attraction"}},
}

// DetectCategory guesses a category from a places-API type list.
// It returns "" when nothing matches.
func DetectCategory(placeTypes []string) string {
	if len(placeTypes) == 0 {
		return ""
	}
	set := make(map[string]struct{}, len(placeTypes))
	for _, t := range placeTypes {
		set[t] = struct{}{}
	}
	for _, rule := range detectRules {
		for _, t := range rule.types {
			if _, ok := set[t]; ok {
				return rule.category
			}
		}
	}
	return ""
}
