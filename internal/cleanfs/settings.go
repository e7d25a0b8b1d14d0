package cleanfs

import (
	"fmt"

	"cleanfs/internal/model"
)

// SettingsService reads and writes per-owner preferences. Missing rows fall
// back to defaults rather than erroring so fresh accounts work without a
// setup step.
type SettingsService struct {
	records RecordStore
	logger  Logger
	clock   Clock
}

// NewSettingsService creates a SettingsService with the provided
// dependencies.
func NewSettingsService(records RecordStore, logger Logger, clock Clock) *SettingsService {
	return &SettingsService{records: records, logger: logger, clock: clock}
}

// Get returns the owner's settings, or defaults when none are stored.
func (s *SettingsService) Get(ownerID string) (*model.Settings, error) {
	stored, err := s.records.GetSettings(ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if stored == nil {
		return model.DefaultSettings(ownerID), nil
	}
	return stored, nil
}

// Update persists the owner's settings, creating the row on first write.
func (s *SettingsService) Update(ownerID string, settings *model.Settings) error {
	settings.OwnerID = ownerID
	settings.UpdatedAt = s.clock.Now()
	if err := s.records.UpsertSettings(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	s.logger.Info("settings updated", "owner", ownerID, "theme", settings.Theme)
	return nil
}
