package service

import (
	"context"
	"fmt"
	"strings"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UOMRequest struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// CatalogService manages categories and units of measurement
type CatalogService interface {
	CreateCategory(ctx context.Context, req CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context, p pagination.Params) ([]model.Category, int64, error)

	CreateUOM(ctx context.Context, req UOMRequest) (*model.UOM, error)
	UpdateUOM(ctx context.Context, id string, req UOMRequest) (*model.UOM, error)
	DeleteUOM(ctx context.Context, id string) error
	GetUOM(ctx context.Context, id string) (*model.UOM, error)
	ListUOMs(ctx context.Context, p pagination.Params) ([]model.UOM, int64, error)
}

type catalogService struct {
	repo     repository.CatalogRepository
	notifier Notifier
}

func NewCatalogService(repo repository.CatalogRepository, notifier Notifier) CatalogService {
	return &catalogService{repo: repo, notifier: notifierOrNop(notifier)}
}

// --- Categories ---

func (s *catalogService) CreateCategory(ctx context.Context, req CategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	c := &model.Category{Name: name, Description: req.Description}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, duplicate(fmt.Errorf("failed to create category: %w", err), "category name already exists")
	}
	s.notifier.Invalidate("categories", c.ID)
	return c, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*model.Category, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	c, err := s.repo.FindCategory(ctx, uid)
	if err != nil {
		return nil, notFound(err, "category")
	}
	c.Name = name
	c.Description = req.Description
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, duplicate(fmt.Errorf("failed to update category: %w", err), "category name already exists")
	}
	s.notifier.Invalidate("categories", uid)
	return c, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	uid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if _, err := s.repo.FindCategory(ctx, uid); err != nil {
		return notFound(err, "category")
	}
	n, err := s.repo.CountProductsUsing(ctx, "category_id", uid)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: category is used by %d product(s)", ErrConflict, n)
	}
	if err := s.repo.DeleteCategory(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.notifier.Invalidate("categories", uid)
	return nil
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindCategory(ctx, uid)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *catalogService) ListCategories(ctx context.Context, p pagination.Params) ([]model.Category, int64, error) {
	items, total, err := s.repo.ListCategories(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return items, total, nil
}

// --- Units of measurement ---

func validateUOM(req UOMRequest) (string, string, error) {
	errs := ValidationErrors{}
	name := strings.TrimSpace(req.Name)
	abbr := strings.TrimSpace(req.Abbreviation)
	if name == "" {
		errs["name"] = "is required"
	}
	if abbr == "" {
		errs["abbreviation"] = "is required"
	} else if len(abbr) > 10 {
		errs["abbreviation"] = "must be at most 10 characters"
	}
	return name, abbr, errs.orNil()
}

func (s *catalogService) CreateUOM(ctx context.Context, req UOMRequest) (*model.UOM, error) {
	name, abbr, err := validateUOM(req)
	if err != nil {
		return nil, err
	}
	u := &model.UOM{Name: name, Abbreviation: abbr}
	if err := s.repo.CreateUOM(ctx, u); err != nil {
		return nil, duplicate(fmt.Errorf("failed to create unit: %w", err), "unit name already exists")
	}
	s.notifier.Invalidate("uoms", u.ID)
	return u, nil
}

func (s *catalogService) UpdateUOM(ctx context.Context, id string, req UOMRequest) (*model.UOM, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	name, abbr, err := validateUOM(req)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.FindUOM(ctx, uid)
	if err != nil {
		return nil, notFound(err, "unit")
	}
	u.Name = name
	u.Abbreviation = abbr
	if err := s.repo.UpdateUOM(ctx, u); err != nil {
		return nil, duplicate(fmt.Errorf("failed to update unit: %w", err), "unit name already exists")
	}
	s.notifier.Invalidate("uoms", uid)
	return u, nil
}

func (s *catalogService) DeleteUOM(ctx context.Context, id string) error {
	uid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if _, err := s.repo.FindUOM(ctx, uid); err != nil {
		return notFound(err, "unit")
	}
	n, err := s.repo.CountProductsUsing(ctx, "uom_id", uid)
	if err != nil {
		return fmt.Errorf("failed to check unit usage: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: unit is used by %d product(s)", ErrConflict, n)
	}
	if err := s.repo.DeleteUOM(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	s.notifier.Invalidate("uoms", uid)
	return nil
}

func (s *catalogService) GetUOM(ctx context.Context, id string) (*model.UOM, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	u, err := s.repo.FindUOM(ctx, uid)
	if err != nil {
		return nil, notFound(err, "unit")
	}
	return u, nil
}

func (s *catalogService) ListUOMs(ctx context.Context, p pagination.Params) ([]model.UOM, int64, error) {
	items, total, err := s.repo.ListUOMs(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch units: %w", err)
	}
	return items, total, nil
}
