package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var communitySlugRegex = regexp.MustCompile(`^[a-z0-9-]{3,24}$`)

var reservedCommunitySlugs = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"auth":        {},
	"communities": {},
	"c":           {},
	"engines":     {},
	"feed":        {},
	"members":     {},
	"users":       {},
	"posts":       {},
	"comments":    {},
	"rooms":       {},
	"ws":          {},
	"swagger":     {},
	"metrics":     {},
	"login":       {},
	"signup":      {},
	"settings":    {},
}

// ValidateCommunitySlug validates community slug format and reserved names.
func ValidateCommunitySlug(slug string) error {
	if !communitySlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-24 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedCommunitySlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}

var engineKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

// ValidateEngineKey validates the stable identifier used to address an engine.
func ValidateEngineKey(key string) error {
	if !engineKeyRegex.MatchString(key) {
		return fmt.Errorf("engine key must be 2-32 characters, start with a letter, and contain only lowercase letters, numbers, and underscores")
	}
	return nil
}

// ValidateCommunityName validates the display name of a community.
func ValidateCommunityName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 {
		return fmt.Errorf("name must be at least 3 characters long")
	}
	if len(trimmed) > 100 {
		return fmt.Errorf("name must not exceed 100 characters")
	}
	return nil
}
