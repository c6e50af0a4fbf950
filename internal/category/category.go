// Package category maps merchant names to spending categories using
// keyword matching against an ordered rule list.
package category

import "strings"

// Category is a spending category assigned to an expense or receipt.
type Category string

const (
	Dining         Category = "Dining Out"
	Groceries      Category = "Groceries"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Utilities      Category = "Utilities"
	Shopping       Category = "Shopping"
	Healthcare     Category = "Healthcare"
	Subscriptions  Category = "Subscriptions"
	Other          Category = "Other"
)

// rule pairs a category with the merchant keywords that select it.
type rule struct {
	category Category
	keywords []string
}

// rules is evaluated top to bottom; the first category with a matching
// keyword wins. A merchant like "market cafe" matches both Dining and
// Groceries, so the order here is load-bearing.
var rules = []rule{
	{Dining, []string{
		"restaurant", "cafe", "coffee", "pizza", "burger", "sushi",
		"diner", "bistro", "grill", "bakery", "bar", "pub", "taco",
		"noodle", "kitchen", "eat", "food court", "deli",
	}},
	{Groceries, []string{
		"grocery", "supermarket", "market", "whole foods", "trader joe",
		"aldi", "lidl", "costco", "safeway", "kroger", "food", "mart",
	}},
	{Transportation, []string{
		"uber", "lyft", "taxi", "gas", "fuel", "shell", "chevron",
		"parking", "transit", "metro", "train", "bus", "toll", "airline",
	}},
	{Entertainment, []string{
		"cinema", "movie", "theater", "theatre", "concert", "ticket",
		"game", "arcade", "bowling", "museum", "park",
	}},
	{Utilities, []string{
		"electric", "water", "power", "utility", "internet", "cable",
		"phone", "mobile", "energy", "sewer", "trash",
	}},
	{Shopping, []string{
		"amazon", "target", "walmart", "store", "shop", "mall", "ikea",
		"clothing", "shoes", "electronics", "depot", "furniture",
	}},
	{Healthcare, []string{
		"pharmacy", "doctor", "dental", "clinic", "hospital", "medical",
		"cvs", "walgreens", "optical", "therapy",
	}},
	{Subscriptions, []string{
		"netflix", "spotify", "hulu", "disney", "subscription", "prime",
		"youtube", "apple.com", "patreon", "membership",
	}},
}

// Classify returns the category for a merchant name. It is total: empty or
// unrecognized merchants classify as Other.
func Classify(merchant string) Category {
	m := strings.ToLower(strings.TrimSpace(merchant))
	if m == "" {
		return Other
	}

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(m, kw) {
				return r.category
			}
		}
	}

	return Other
}

// All returns every known category, in classifier priority order, with
// Other last.
func All() []Category {
	cats := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		cats = append(cats, r.category)
	}

	return append(cats, Other)
}

// Valid reports whether c is one of the known categories.
func Valid(c Category) bool {
	for _, known := range All() {
		if c == known {
			return true
		}
	}

	return false
}
