// ABOUTME: Admin settings form with optimistic toggles
// ABOUTME: Reports outcomes through a Notifier and rolls back the shared cache on failure
package forms

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
)

// Notifier shows transient success and failure messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Success(msg string) { n.Logger.Info().Msg(msg) }
func (n LogNotifier) Error(msg string)   { n.Logger.Error().Msg(msg) }

type SettingsService interface {
	PatchSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error)
}

type SettingsFlag int

const (
	FlagEnabled SettingsFlag = iota
	FlagTier2
	FlagTier3Deals
	FlagTier3CustomFields
)

func (f SettingsFlag) String() string {
	switch f {
	case FlagTier2:
		return "tier2_enabled"
	case FlagTier3Deals:
		return "tier3_deals"
	case FlagTier3CustomFields:
		return "tier3_custom_fields"
	}
	return "enabled"
}

// ParseSettingsFlag maps a settings key to its flag.
func ParseSettingsFlag(name string) (SettingsFlag, bool) {
	for _, f := range []SettingsFlag{FlagEnabled, FlagTier2, FlagTier3Deals, FlagTier3CustomFields} {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}

type SettingsForm struct {
	Errors FieldErrors

	svc      SettingsService
	notifier Notifier
	state    *Optimistic[models.Settings]
}

// NewSettingsForm edits current. When m is set, every visible value
// (tentative, confirmed or restored) is written to the shared settings entry.
func NewSettingsForm(svc SettingsService, current models.Settings, n Notifier, m *cache.Manager, onChange func(models.Settings)) *SettingsForm {
	f := &SettingsForm{Errors: FieldErrors{}, svc: svc, notifier: n}
	f.state = NewOptimistic(current.Clone(), func(s models.Settings) {
		if m != nil {
			v := s.Clone()
			m.Mutate(api.SettingsKey, &v)
		}
		if onChange != nil {
			onChange(s)
		}
	})
	return f
}

func (f *SettingsForm) Settings() models.Settings {
	return f.state.Value().Clone()
}

func (f *SettingsForm) Pending() bool {
	return f.state.Phase() == PhasePending
}

// Reset adopts freshly fetched settings unless a save is in flight.
func (f *SettingsForm) Reset(s models.Settings) {
	f.state.Reset(s.Clone())
}

func (f *SettingsForm) Toggle(ctx context.Context, flag SettingsFlag) error {
	cur := f.state.Value()
	var patch models.SettingsPatch
	switch flag {
	case FlagEnabled:
		v := !cur.Enabled
		patch.Enabled = &v
	case FlagTier2:
		v := !cur.Tier2Enabled
		patch.Tier2Enabled = &v
	case FlagTier3Deals:
		v := !cur.Tier3Deals
		patch.Tier3Deals = &v
	case FlagTier3CustomFields:
		v := !cur.Tier3CustomFields
		patch.Tier3CustomFields = &v
	}
	return f.Update(ctx, patch)
}

func (f *SettingsForm) SetStages(ctx context.Context, stages []string) error {
	return f.Update(ctx, models.SettingsPatch{ContactStageOptions: &stages})
}

func (f *SettingsForm) SetCategories(ctx context.Context, categories []string) error {
	return f.Update(ctx, models.SettingsPatch{ContactCategorySuggestions: &categories})
}

func (f *SettingsForm) Validate(patch models.SettingsPatch) FieldErrors {
	fe := FieldErrors{}
	if patch.IsEmpty() {
		fe.add("settings", "nothing to update")
	}
	if patch.ContactStageOptions != nil && len(models.NormalizeStages(*patch.ContactStageOptions)) == 0 {
		fe.add("contact_stage_options", "must contain at least one stage")
	}
	f.Errors = fe
	return fe
}

// Update applies patch optimistically and sends it.
func (f *SettingsForm) Update(ctx context.Context, patch models.SettingsPatch) error {
	if err := f.Validate(patch).Err(); err != nil {
		return err
	}
	_, err := f.state.Apply(ctx, patch.Apply, func(ctx context.Context, _ models.Settings) (models.Settings, error) {
		saved, err := f.svc.PatchSettings(ctx, patch)
		if err != nil {
			return models.Settings{}, err
		}
		return *saved, nil
	})
	switch {
	case errors.Is(err, ErrPending):
		return err
	case err != nil:
		f.notify(false, err.Error())
		return err
	}
	f.notify(true, "Settings saved")
	return nil
}

func (f *SettingsForm) notify(ok bool, msg string) {
	if f.notifier == nil {
		return
	}
	if ok {
		f.notifier.Success(msg)
	} else {
		f.notifier.Error(msg)
	}
}
