package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy strips all markup from user input
	StrictPolicy *bluemonday.Policy
	// DescriptionPolicy allows minimal formatting in memory descriptions
	DescriptionPolicy *bluemonday.Policy
)

func init() {
	StrictPolicy = bluemonday.StrictPolicy()

	// Memory descriptions come from a rich-text field; keep basic formatting
	DescriptionPolicy = bluemonday.StrictPolicy()
	DescriptionPolicy.AllowElements("p", "br", "strong", "em", "u")
	DescriptionPolicy.AllowElements("ul", "ol", "li")
}

// SanitizeDescription sanitizes a memory description, keeping basic formatting
func SanitizeDescription(s string) string {
	return strings.TrimSpace(DescriptionPolicy.Sanitize(s))
}

// SanitizeTag strips markup and surrounding whitespace from a tag
func SanitizeTag(s string) string {
	return strings.TrimSpace(StrictPolicy.Sanitize(s))
}

// SanitizeTitle strips all markup from a memory title
func SanitizeTitle(s string) string {
	return strings.TrimSpace(StrictPolicy.Sanitize(s))
}
