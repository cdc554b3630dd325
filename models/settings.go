// ABOUTME: Tenant CRM settings and contact stage rules
// ABOUTME: Normalizes stage options and validates contact status against them
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var DefaultContactStages = []string{"lead", "active", "inactive", "archived"}

var DefaultCategorySuggestions = []string{
	"Policy Maker",
	"Journalist",
	"Academic",
	"Allied Org",
	"Lab Member",
}

type Settings struct {
	Enabled                    bool       `json:"enabled"`
	Tier2Enabled               bool       `json:"tier2_enabled"`
	Tier3Deals                 bool       `json:"tier3_deals"`
	Tier3CustomFields          bool       `json:"tier3_custom_fields"`
	ContactStageOptions        []string   `json:"contact_stage_options"`
	ContactCategorySuggestions []string   `json:"contact_category_suggestions"`
	UpdatedBy                  *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt                  *time.Time `json:"updated_at,omitempty"`
}

// Clone copies the slices so optimistic edits never alias a snapshot.
func (s Settings) Clone() Settings {
	out := s
	if s.ContactStageOptions != nil {
		out.ContactStageOptions = append([]string{}, s.ContactStageOptions...)
	}
	if s.ContactCategorySuggestions != nil {
		out.ContactCategorySuggestions = append([]string{}, s.ContactCategorySuggestions...)
	}
	return out
}

// NormalizeStages trims, lowercases and de-duplicates stage values in order.
func NormalizeStages(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// NormalizeCategories trims and de-duplicates case-insensitively, keeping the first spelling.
func NormalizeCategories(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// AllowedStages returns the tenant's stage options, or the defaults when none are configured.
func AllowedStages(s *Settings) []string {
	if s != nil {
		if stages := NormalizeStages(s.ContactStageOptions); len(stages) > 0 {
			return stages
		}
	}
	return append([]string{}, DefaultContactStages...)
}

func DefaultStage(s *Settings) string {
	return AllowedStages(s)[0]
}

func CategorySuggestions(s *Settings) []string {
	if s != nil {
		if cats := NormalizeCategories(s.ContactCategorySuggestions); len(cats) > 0 {
			return cats
		}
	}
	return append([]string{}, DefaultCategorySuggestions...)
}

// ValidateStage normalizes value and checks it against allowed.
func ValidateStage(value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if a == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q: must be one of %s", value, strings.Join(allowed, ", "))
}
