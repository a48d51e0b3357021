package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	UOMID       string `json:"uom_id"`
}

type UpdateProductRequest struct {
	SKU         *string `json:"sku"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	UOMID       *string `json:"uom_id"`
	IsActive    *bool   `json:"is_active"`
}

type ProductSupplierResponse struct {
	ID        string `json:"id"`
	LegalName string `json:"legal_name"`
	Status    string `json:"status"`
}

type ProductResponse struct {
	ID           string                    `json:"id"`
	SKU          string                    `json:"sku"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	CategoryID   string                    `json:"category_id"`
	CategoryName string                    `json:"category_name"`
	UOMID        string                    `json:"uom_id"`
	UOM          string                    `json:"uom"`
	IsActive     bool                      `json:"is_active"`
	Suppliers    []ProductSupplierResponse `json:"suppliers"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ProductQuery carries the optional list filters as raw query values
type ProductQuery struct {
	CategoryID string
	IsActive   string
}

// --- Interface ---

type ProductService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, p pagination.Params, q ProductQuery) ([]ProductResponse, int64, error)
}

type productService struct {
	repo        repository.ProductRepository
	catalogRepo repository.CatalogRepository
	activity    ActivityService
	txManager   repository.TransactionManager
	notifier    Notifier
}

func NewProductService(
	repo repository.ProductRepository,
	catalogRepo repository.CatalogRepository,
	activity ActivityService,
	txManager repository.TransactionManager,
	notifier Notifier,
) ProductService {
	return &productService{
		repo:        repo,
		catalogRepo: catalogRepo,
		activity:    activity,
		txManager:   txManager,
		notifier:    notifierOrNop(notifier),
	}
}

func productSnapshot(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"sku":         p.SKU,
		"name":        p.Name,
		"description": p.Description,
		"category_id": p.CategoryID.String(),
		"uom_id":      p.UOMID.String(),
		"is_active":   p.IsActive,
	}
}

// resolveRefs checks that the category and unit exist
func (s *productService) resolveRefs(ctx context.Context, categoryID, uomID uuid.UUID) error {
	errs := ValidationErrors{}
	if _, err := s.catalogRepo.FindCategory(ctx, categoryID); err != nil {
		errs["category_id"] = "category does not exist"
	}
	if _, err := s.catalogRepo.FindUOM(ctx, uomID); err != nil {
		errs["uom_id"] = "unit of measurement does not exist"
	}
	return errs.orNil()
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error) {
	errs := ValidationErrors{}
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		errs["sku"] = "is required"
	}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "is required"
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		errs["category_id"] = "must be a UUID"
	}
	uomID, err := uuid.Parse(req.UOMID)
	if err != nil {
		errs["uom_id"] = "must be a UUID"
	}
	if err := errs.orNil(); err != nil {
		return ProductResponse{}, err
	}

	product := &model.Product{
		SKU:         sku,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CategoryID:  categoryID,
		UOMID:       uomID,
		IsActive:    true,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.resolveRefs(txCtx, categoryID, uomID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, product); err != nil {
			return duplicate(fmt.Errorf("failed to create product: %w", err), "sku already exists")
		}
		return s.activity.Record(txCtx, model.EntityProduct, product.ID, model.ActionCreated, Diff(nil, productSnapshot(product)))
	})
	if err != nil {
		return ProductResponse{}, err
	}

	s.notifier.Invalidate("products", product.ID)
	return s.GetProduct(ctx, product.ID.String())
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return ProductResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "product")
		}
		before := productSnapshot(product)

		errs := ValidationErrors{}
		if req.SKU != nil {
			product.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
			if product.SKU == "" {
				errs["sku"] = "cannot be empty"
			}
		}
		if req.Name != nil {
			product.Name = strings.TrimSpace(*req.Name)
			if product.Name == "" {
				errs["name"] = "cannot be empty"
			}
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.CategoryID != nil {
			if product.CategoryID, err = uuid.Parse(*req.CategoryID); err != nil {
				errs["category_id"] = "must be a UUID"
			}
		}
		if req.UOMID != nil {
			if product.UOMID, err = uuid.Parse(*req.UOMID); err != nil {
				errs["uom_id"] = "must be a UUID"
			}
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}
		if err := errs.orNil(); err != nil {
			return err
		}
		if req.CategoryID != nil || req.UOMID != nil {
			if err := s.resolveRefs(txCtx, product.CategoryID, product.UOMID); err != nil {
				return err
			}
		}

		// the preloaded associations would otherwise win over the new ids
		product.Category = nil
		product.UOM = nil
		product.Suppliers = nil
		if err := s.repo.Update(txCtx, product); err != nil {
			return duplicate(fmt.Errorf("failed to update product: %w", err), "sku already exists")
		}

		changes := Diff(before, productSnapshot(product))
		if len(changes) == 0 {
			return nil
		}
		return s.activity.Record(txCtx, model.EntityProduct, uid, model.ActionUpdated, changes)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	s.notifier.Invalidate("products", uid)
	return s.GetProduct(ctx, id)
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	uid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "product")
		}
		if err := s.repo.Delete(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityProduct, uid, model.ActionDeleted, Diff(productSnapshot(product), nil))
	})
	if err != nil {
		return err
	}
	s.notifier.Invalidate("products", uid)
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return ProductResponse{}, err
	}
	product, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return ProductResponse{}, notFound(err, "product")
	}
	return toProductResponse(product), nil
}

func (s *productService) ListProducts(ctx context.Context, p pagination.Params, q ProductQuery) ([]ProductResponse, int64, error) {
	var f repository.ProductFilter
	if q.CategoryID != "" {
		cid, err := parseID(q.CategoryID, "category_id")
		if err != nil {
			return nil, 0, err
		}
		f.CategoryID = &cid
	}
	switch strings.ToLower(q.IsActive) {
	case "":
	case "true", "1":
		active := true
		f.IsActive = &active
	case "false", "0":
		active := false
		f.IsActive = &active
	default:
		return nil, 0, invalid("is_active", "must be true or false")
	}

	products, total, err := s.repo.List(ctx, p, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func toProductResponse(p *model.Product) ProductResponse {
	res := ProductResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID.String(),
		UOMID:       p.UOMID.String(),
		IsActive:    p.IsActive,
		Suppliers:   make([]ProductSupplierResponse, 0, len(p.Suppliers)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		res.CategoryName = p.Category.Name
	}
	if p.UOM != nil {
		res.UOM = p.UOM.Abbreviation
	}
	for _, s := range p.Suppliers {
		res.Suppliers = append(res.Suppliers, ProductSupplierResponse{ID: s.ID.String(), LegalName: s.LegalName, Status: s.Status})
	}
	return res
}
