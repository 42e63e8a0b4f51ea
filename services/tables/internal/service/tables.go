package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/repo"
)

// TableService owns the table registry. Mutations on one table are
// serialized through Locks; different tables never contend.
type TableService struct {
	Repo  *repo.GormRepo
	Locks *keymutex.KeyMutex
}

func tableKey(id uint) string {
	return fmt.Sprintf("table:%d", id)
}

func (s *TableService) Create(ctx context.Context, name string, capacity, floor int) (*models.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if capacity <= 0 {
		capacity = 4
	}

	table := &models.Table{
		Name:     name,
		Capacity: capacity,
		Floor:    floor,
		Status:   models.StatusAvailable,
	}
	if err := s.Repo.CreateTable(ctx, table); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: table %q already exists", ErrConflict, name)
		}
		return nil, err
	}
	return table, nil
}

func (s *TableService) Get(ctx context.Context, id uint) (*models.Table, error) {
	table, err := s.Repo.GetTable(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: table %d", ErrNotFound, id)
	}
	return table, err
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	return s.Repo.ListTables(ctx)
}

// ListByFloor groups tables by floor for the floor-plan view.
func (s *TableService) ListByFloor(ctx context.Context) (map[int][]models.Table, error) {
	tables, err := s.Repo.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[int][]models.Table)
	for _, t := range tables {
		grouped[t.Floor] = append(grouped[t.Floor], t)
	}
	return grouped, nil
}

// SetStatus is the staff override. It is refused while the table has an
// active order: only order completion may free an occupied table.
func (s *TableService) SetStatus(ctx context.Context, id uint, status string) (*models.Table, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	s.Locks.Lock(tableKey(id))
	defer s.Locks.Unlock(tableKey(id))

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	active, err := s.Repo.HasActiveOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: table %d has an active order", ErrConflict, id)
	}

	if err := s.Repo.UpdateTableStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.Repo.GetTable(ctx, id)
}

func (s *TableService) Delete(ctx context.Context, id uint) error {
	s.Locks.Lock(tableKey(id))
	defer s.Locks.Unlock(tableKey(id))

	table, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if table.Status == models.StatusOccupied {
		return fmt.Errorf("%w: table %d is occupied", ErrConflict, id)
	}

	active, err := s.Repo.HasActiveOrder(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return fmt.Errorf("%w: table %d has an active order", ErrConflict, id)
	}

	return s.Repo.DeleteTable(ctx, id)
}
