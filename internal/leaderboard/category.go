package leaderboard

import (
	"fmt"
	"strings"
)

// Category is a canonical activity classification.
type Category string

const (
	Running Category = "Running"
	Biking  Category = "Biking"
	Walking Category = "Walking"
)

// Categories lists every canonical category in display order.
var Categories = []Category{Running, Biking, Walking}

func (c Category) String() string { return string(c) }

// ParseCategory resolves a category label case-insensitively.
func ParseCategory(label string) (Category, error) {
	label = strings.TrimSpace(label)
	for _, c := range Categories {
		if strings.EqualFold(label, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", label)
}

// Rule maps any raw type containing one of Keywords to Category.
type Rule struct {
	Category Category
	Keywords []string
}

// Classifier maps free-text activity types onto canonical categories.
// Rules are checked in order; the first rule with a matching keyword wins.
type Classifier struct {
	Rules    []Rule
	Fallback Category

	// OnFallback is called with the raw type whenever no rule matched.
	OnFallback func(rawType string)
}

// DefaultRules returns the standard keyword priority: run, bike, walk/hike.
func DefaultRules() []Rule {
	return []Rule{
		{Category: Running, Keywords: []string{"run"}},
		{Category: Biking, Keywords: []string{"bike"}},
		{Category: Walking, Keywords: []string{"walk", "hike"}},
	}
}

// DefaultClassifier returns a classifier with DefaultRules and a Walking fallback.
func DefaultClassifier() *Classifier {
	return &Classifier{Rules: DefaultRules(), Fallback: Walking}
}

// Classify returns the category for rawType. It never fails: unmatched input
// is folded into the fallback category and reported through OnFallback.
//
// A canonical label ("Biking") classifies to itself only on an exact,
// case-insensitive match. Longer phrases go through the keyword rules, so
// "mountain biking" falls back under DefaultRules because "bike" is not a
// substring of it.
func (c *Classifier) Classify(rawType string) Category {
	key := strings.ToLower(strings.TrimSpace(rawType))

	// canonical labels classify to themselves so pre-summed records round-trip
	for _, category := range Categories {
		if key == strings.ToLower(string(category)) {
			return category
		}
	}

	for _, rule := range c.Rules {
		for _, keyword := range rule.Keywords {
			if keyword != "" && strings.Contains(key, strings.ToLower(keyword)) {
				return rule.Category
			}
		}
	}

	if c.OnFallback != nil {
		c.OnFallback(rawType)
	}
	if c.Fallback == "" {
		return Walking
	}
	return c.Fallback
}
