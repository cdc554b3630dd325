package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedStagesFallsBackToDefaults(t *testing.T) {
	assert.Equal(t, DefaultContactStages, AllowedStages(nil))
	assert.Equal(t, DefaultContactStages, AllowedStages(&Settings{ContactStageOptions: []string{" ", ""}}))
	assert.Equal(t, "lead", DefaultStage(nil))
}

func TestAllowedStagesNormalizes(t *testing.T) {
	s := &Settings{ContactStageOptions: []string{" Prospect", "prospect", "Client "}}
	assert.Equal(t, []string{"prospect", "client"}, AllowedStages(s))
	assert.Equal(t, "prospect", DefaultStage(s))
}

func TestValidateStage(t *testing.T) {
	got, err := ValidateStage(" Active ", DefaultContactStages)
	require.NoError(t, err)
	assert.Equal(t, "active", got)

	_, err = ValidateStage("won", DefaultContactStages)
	assert.ErrorContains(t, err, "must be one of lead, active, inactive, archived")
}

func TestCategorySuggestions(t *testing.T) {
	assert.Equal(t, DefaultCategorySuggestions, CategorySuggestions(nil))
	s := &Settings{ContactCategorySuggestions: []string{"Donor", "donor ", "Press"}}
	assert.Equal(t, []string{"Donor", "Press"}, CategorySuggestions(s))
}

func TestSettingsPatchApplyDoesNotAlias(t *testing.T) {
	base := Settings{Enabled: true, ContactStageOptions: []string{"lead", "active"}}
	on := false
	stages := []string{"New", "won"}

	got := SettingsPatch{Enabled: &on, ContactStageOptions: &stages}.Apply(base)
	assert.False(t, got.Enabled)
	assert.Equal(t, []string{"new", "won"}, got.ContactStageOptions)

	assert.True(t, base.Enabled)
	assert.Equal(t, []string{"lead", "active"}, base.ContactStageOptions)
}

func TestPaging(t *testing.T) {
	assert.Equal(t, 2, TotalPages(30, 25))
	assert.Equal(t, 0, TotalPages(0, 25))
	assert.Equal(t, 1, TotalPages(25, 25))

	assert.Equal(t, 25, PageLen(30, 0, 25))
	assert.Equal(t, 5, PageLen(30, 1, 25))
	assert.Equal(t, 0, PageLen(30, 2, 25))
	assert.Equal(t, 0, PageLen(30, -1, 25))
}
