package chat

import (
	"fmt"
	"strings"
)

// Category selects the topic area of a conversation.
type Category string

const (
	CategoryUnion        Category = "union"
	CategoryContract     Category = "contract"
	CategoryHealthSafety Category = "health_safety"
	CategoryGeneral      Category = "general"
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryUnion, CategoryContract, CategoryHealthSafety, CategoryGeneral}

// Label returns the human-readable name. Unknown values read as
// "General Employment".
func (c Category) Label() string {
	switch c {
	case CategoryUnion:
		return "Union Rights"
	case CategoryContract:
		return "Contract Review"
	case CategoryHealthSafety:
		return "Health & Safety"
	default:
		return "General Employment"
	}
}

// Known reports whether c is one of the defined categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory accepts a category value, case-insensitively.
// The empty string is CategoryGeneral.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryGeneral, nil
	}
	c := Category(s)
	if !c.Known() {
		return CategoryGeneral, fmt.Errorf("unknown category %q (want one of union, contract, health_safety, general)", s)
	}
	return c, nil
}

// WelcomeText is the greeting shown while no conversation is bound.
func WelcomeText(c Category) string {
	return fmt.Sprintf("Hi! I'm here to help with %s. How can I assist you today?", c.Label())
}
