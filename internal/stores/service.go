// Package stores holds the store catalogue business logic.
package stores

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
)

// Service handles store business logic.
type Service struct {
	repo   repository.StoreRepository
	logger *slog.Logger
}

// NewService creates a new store service.
func NewService(repo repository.StoreRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// CreateStoreRequest represents store creation parameters.
type CreateStoreRequest struct {
	StoreName string
	Channel   string
	Branch    string
	Manager   string
}

// CreateStore returns the existing store when the name is already taken.
func (s *Service) CreateStore(ctx context.Context, req CreateStoreRequest) (*entity.Store, bool, error) {
	name := strings.TrimSpace(req.StoreName)
	channel := strings.TrimSpace(req.Channel)
	branch := strings.TrimSpace(req.Branch)
	manager := strings.TrimSpace(req.Manager)

	v := common.NewValidator().
		Field("store_name", name, common.Required, common.MaxLength(constants.MaxStoreNameLen)).
		Field("channel", channel, common.MaxLength(constants.MaxStoreFieldLen)).
		Field("branch", branch, common.MaxLength(constants.MaxStoreFieldLen)).
		Field("manager", manager, common.MaxLength(constants.MaxStoreFieldLen))
	if err := v.Err(); err != nil {
		return nil, false, err
	}

	st, created, err := s.repo.Create(ctx, entity.Store{
		StoreName: name,
		Channel:   optional(channel),
		Branch:    optional(branch),
		Manager:   optional(manager),
	})
	if err != nil {
		return nil, false, common.WrapError(err, "create store")
	}

	if created {
		s.logger.Info("store created", "store_id", st.ID, "store_name", st.StoreName)
	} else {
		s.logger.Info("store already exists", "store_id", st.ID, "store_name", st.StoreName)
	}
	return st, created, nil
}

// GetStore returns ErrNotFound for unknown ids.
func (s *Service) GetStore(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	return s.repo.GetByID(ctx, id)
}

// ListStores returns stores ordered by name.
func (s *Service) ListStores(ctx context.Context, filter entity.StoreFilter) ([]entity.Store, error) {
	list, err := s.repo.List(ctx, entity.StoreFilter{
		StoreName: strings.TrimSpace(filter.StoreName),
		Channel:   strings.TrimSpace(filter.Channel),
		Branch:    strings.TrimSpace(filter.Branch),
	})
	if err != nil {
		return nil, common.WrapError(err, "list stores")
	}
	s.logger.Debug("stores listed", "count", len(list))
	return list, nil
}

// UpdateStore overwrites the supplied fields. An empty optional field clears it.
func (s *Service) UpdateStore(ctx context.Context, id uuid.UUID, upd entity.StoreUpdate) (*entity.Store, error) {
	v := common.NewValidator()
	if upd.StoreName != nil {
		name := strings.TrimSpace(*upd.StoreName)
		upd.StoreName = &name
		v.Field("store_name", name, common.Required, common.MaxLength(constants.MaxStoreNameLen))
	}
	for field, p := range map[string]**string{"channel": &upd.Channel, "branch": &upd.Branch, "manager": &upd.Manager} {
		if *p == nil {
			continue
		}
		val := strings.TrimSpace(**p)
		*p = &val
		v.Field(field, val, common.MaxLength(constants.MaxStoreFieldLen))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	st, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("store updated", "store_id", st.ID)
	return st, nil
}

// DeleteStore removes a store; its records keep existing without a store.
func (s *Service) DeleteStore(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("store deleted", "store_id", id)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
