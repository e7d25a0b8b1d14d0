package cleanfs

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cleanfs/internal/model"
)

// ShareService manages public share links for files. Creation, listing and
// deletion are owner-scoped; Resolve is the anonymous path taken by share
// URL visitors, gated by expiry and an optional password.
type ShareService struct {
	records RecordStore
	logger  Logger
	clock   Clock
	idgen   IDGenerator
}

// NewShareService creates a ShareService with the provided dependencies.
func NewShareService(records RecordStore, logger Logger, clock Clock, idgen IDGenerator) *ShareService {
	return &ShareService{
		records: records,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
	}
}

// Create issues a share link for one of the owner's files. expiresAt of nil
// means the link never expires; an empty password means no gate.
func (s *ShareService) Create(ownerID, fileID string, expiresAt *time.Time, password string) (*model.Share, error) {
	file, err := s.records.GetEntry(ownerID, fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file: %w", err)
	}
	if file == nil || file.Kind != model.KindFile {
		return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}

	var hash string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing share password: %w", err)
		}
		hash = string(h)
	}

	share := &model.Share{
		ID:           s.idgen.New(),
		OwnerID:      ownerID,
		FileID:       fileID,
		ExpiresAt:    expiresAt,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.records.InsertShare(share); err != nil {
		return nil, fmt.Errorf("creating share: %w", err)
	}

	s.logger.Info("share created", "owner", ownerID, "file", file.Path(), "share", share.ID)
	return share, nil
}

// Resolve looks up a share by token on behalf of an anonymous visitor.
// Expiry is checked at resolve time (expired links are rejected, never
// swept), then the password gate, and only after both pass is the access
// counter incremented and the file returned.
func (s *ShareService) Resolve(shareID, password string) (*model.Entry, *model.Share, error) {
	share, err := s.records.GetShare(shareID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving share: %w", err)
	}
	if share == nil {
		return nil, nil, fmt.Errorf("share %s: %w", shareID, ErrNotFound)
	}

	if share.ExpiresAt != nil && share.ExpiresAt.Before(s.clock.Now()) {
		return nil, nil, fmt.Errorf("share %s: %w", shareID, ErrShareExpired)
	}

	if share.PasswordHash != "" {
		if password == "" {
			return nil, nil, ErrPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(share.PasswordHash), []byte(password)) != nil {
			return nil, nil, ErrInvalidPassword
		}
	}

	file, err := s.records.GetEntry(share.OwnerID, share.FileID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving shared file: %w", err)
	}
	if file == nil {
		// The file was deleted out from under the link.
		return nil, nil, fmt.Errorf("shared file %s: %w", share.FileID, ErrNotFound)
	}

	if err := s.records.IncrementShareAccess(share.ID); err != nil {
		return nil, nil, fmt.Errorf("recording share access: %w", err)
	}
	share.AccessCount++

	return file, share, nil
}

// List returns the owner's share links, newest first.
func (s *ShareService) List(ownerID string) ([]*model.Share, error) {
	return s.records.ListShares(ownerID)
}

// Delete removes a share link.
func (s *ShareService) Delete(ownerID, shareID string) error {
	share, err := s.records.GetShare(shareID)
	if err != nil {
		return fmt.Errorf("resolving share: %w", err)
	}
	if share == nil || share.OwnerID != ownerID {
		return fmt.Errorf("share %s: %w", shareID, ErrNotFound)
	}
	if err := s.records.DeleteShare(ownerID, shareID); err != nil {
		return fmt.Errorf("deleting share: %w", err)
	}
	s.logger.Info("share deleted", "owner", ownerID, "share", shareID)
	return nil
}

// ShareableFiles lists the owner's files (directories cannot be shared),
// sorted by name for display.
func (s *ShareService) ShareableFiles(ownerID string) ([]*model.Entry, error) {
	entries, err := s.records.ListEntries(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	var files []*model.Entry
	for _, e := range entries {
		if e.Kind == model.KindFile {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
