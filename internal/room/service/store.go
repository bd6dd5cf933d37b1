package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"room-studio/internal/common/apperr"
	"room-studio/internal/room/models"
	"room-studio/internal/room/repository"
)

// ============================================================
// Layout Store
// ============================================================

const (
	slotOriginal = "original"
	slotCurrent  = "current"
)

// LayoutStore хранит две записи на сессию: original (результат анализа)
// и current (результат последнего слияния).
type LayoutStore struct {
	backend repository.Backend
}

func NewLayoutStore(backend repository.Backend) *LayoutStore {
	return &LayoutStore{backend: backend}
}

func layoutKey(sessionID, slot string) string {
	return path.Join("sessions", sessionID, slot)
}

func (s *LayoutStore) LoadOriginal(ctx context.Context, sessionID string) (models.LayoutDocument, error) {
	return s.load(ctx, sessionID, slotOriginal)
}

func (s *LayoutStore) SaveOriginal(ctx context.Context, sessionID string, doc models.LayoutDocument) error {
	return s.save(ctx, sessionID, slotOriginal, doc)
}

// LoadCurrent при preferUpdated=false отдаёт original. Иначе current,
// а если его нет - original.
func (s *LayoutStore) LoadCurrent(ctx context.Context, sessionID string, preferUpdated bool) (models.LayoutDocument, error) {
	if !preferUpdated {
		return s.LoadOriginal(ctx, sessionID)
	}
	doc, err := s.load(ctx, sessionID, slotCurrent)
	if apperr.Is(err, apperr.KindNotFound) {
		return s.LoadOriginal(ctx, sessionID)
	}
	return doc, err
}

func (s *LayoutStore) SaveCurrent(ctx context.Context, sessionID string, doc models.LayoutDocument) error {
	return s.save(ctx, sessionID, slotCurrent, doc)
}

func (s *LayoutStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *LayoutStore) load(ctx context.Context, sessionID, slot string) (models.LayoutDocument, error) {
	data, err := s.backend.Get(ctx, layoutKey(sessionID, slot))
	if errors.Is(err, repository.ErrNotFound) {
		return models.LayoutDocument{}, apperr.New(apperr.KindNotFound, "no %s layout for session %s", slot, sessionID)
	}
	if err != nil {
		return models.LayoutDocument{}, apperr.Wrap(apperr.KindInternal, err, "load %s layout", slot)
	}

	var doc models.LayoutDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.LayoutDocument{}, apperr.Wrap(apperr.KindInternal, err, "decode %s layout", slot)
	}
	return doc, nil
}

func (s *LayoutStore) save(ctx context.Context, sessionID, slot string, doc models.LayoutDocument) error {
	if doc.Objects == nil {
		doc.Objects = []models.LayoutObject{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s layout: %w", slot, err)
	}
	if err := s.backend.Put(ctx, layoutKey(sessionID, slot), data); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "save %s layout", slot)
	}
	return nil
}
