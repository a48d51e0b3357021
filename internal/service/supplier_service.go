package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
)

// --- Contact / Address DTOs ---

type ContactPayload struct {
	Name      string `json:"name"`
	Position  string `json:"position"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsPrimary bool   `json:"is_primary"`
}

type AddressPayload struct {
	AddressType string `json:"address_type"`
	FullAddress string `json:"full_address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}

// --- Supplier DTOs ---

type CreateSupplierRequest struct {
	LegalName string           `json:"legal_name"`
	TradeName string           `json:"trade_name"`
	TaxID     string           `json:"tax_id"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Website   string           `json:"website"`
	Contacts  []ContactPayload `json:"contacts"`
	Addresses []AddressPayload `json:"addresses"`
}

type UpdateSupplierRequest struct {
	LegalName *string           `json:"legal_name"`
	TradeName *string           `json:"trade_name"`
	TaxID     *string           `json:"tax_id"`
	Email     *string           `json:"email"`
	Phone     *string           `json:"phone"`
	Website   *string           `json:"website"`
	Contacts  *[]ContactPayload `json:"contacts"`  // nil = not sent, [] = clear all
	Addresses *[]AddressPayload `json:"addresses"` // nil = not sent, [] = clear all
}

type ChangeSupplierStatusRequest struct {
	Status string `json:"status"`
}

type LinkProductsRequest struct {
	ProductIDs []string `json:"product_ids"`
}

type SupplierProductResponse struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

type SupplierResponse struct {
	ID        string                    `json:"id"`
	LegalName string                    `json:"legal_name"`
	TradeName string                    `json:"trade_name"`
	TaxID     string                    `json:"tax_id"`
	Email     string                    `json:"email"`
	Phone     string                    `json:"phone"`
	Website   string                    `json:"website"`
	Status    string                    `json:"status"`
	Contacts  []model.SupplierContact   `json:"contacts"`
	Addresses []model.SupplierAddress   `json:"addresses"`
	Products  []SupplierProductResponse `json:"products"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// --- Interface ---

type SupplierService interface {
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (SupplierResponse, error)
	UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (SupplierResponse, error)
	ChangeStatus(ctx context.Context, id string, req ChangeSupplierStatusRequest) (SupplierResponse, error)
	LinkProducts(ctx context.Context, id string, req LinkProductsRequest) (SupplierResponse, error)
	DeleteSupplier(ctx context.Context, id string) error
	GetSupplier(ctx context.Context, id string) (SupplierResponse, error)
	ListSuppliers(ctx context.Context, p pagination.Params, status string) ([]SupplierResponse, int64, error)
}

type supplierService struct {
	repo        repository.SupplierRepository
	productRepo repository.ProductRepository
	activity    ActivityService
	txManager   repository.TransactionManager
	notifier    Notifier
}

func NewSupplierService(
	repo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	activity ActivityService,
	txManager repository.TransactionManager,
	notifier Notifier,
) SupplierService {
	return &supplierService{
		repo:        repo,
		productRepo: productRepo,
		activity:    activity,
		txManager:   txManager,
		notifier:    notifierOrNop(notifier),
	}
}

// --- Validation helpers ---

var validSupplierStatuses = map[string]bool{
	model.SupplierStatusActive:      true,
	model.SupplierStatusInactive:    true,
	model.SupplierStatusSuspended:   true,
	model.SupplierStatusBlacklisted: true,
}

var validAddressTypes = map[string]bool{
	model.AddressTypeBilling:  true,
	model.AddressTypeShipping: true,
	model.AddressTypeOffice:   true,
}

func validateContacts(contacts []ContactPayload, errs ValidationErrors) {
	for i, c := range contacts {
		if strings.TrimSpace(c.Name) == "" {
			errs[fmt.Sprintf("contacts[%d].name", i)] = "is required"
		}
		if c.Email != "" {
			if _, err := mail.ParseAddress(c.Email); err != nil {
				errs[fmt.Sprintf("contacts[%d].email", i)] = "invalid email format"
			}
		}
	}
}

func validateAddresses(addresses []AddressPayload, errs ValidationErrors) {
	for i, a := range addresses {
		if !validAddressTypes[a.AddressType] {
			errs[fmt.Sprintf("addresses[%d].address_type", i)] = "must be one of: billing, shipping, office"
		}
		if strings.TrimSpace(a.FullAddress) == "" {
			errs[fmt.Sprintf("addresses[%d].full_address", i)] = "is required"
		}
	}
}

func toContactModels(payloads []ContactPayload) []model.SupplierContact {
	out := make([]model.SupplierContact, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, model.SupplierContact{
			Name: strings.TrimSpace(p.Name), Position: p.Position, Email: p.Email, Phone: p.Phone, IsPrimary: p.IsPrimary,
		})
	}
	return out
}

func toAddressModels(payloads []AddressPayload) []model.SupplierAddress {
	out := make([]model.SupplierAddress, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, model.SupplierAddress{
			AddressType: p.AddressType, FullAddress: strings.TrimSpace(p.FullAddress), City: p.City, Country: p.Country, IsDefault: p.IsDefault,
		})
	}
	return out
}

func supplierSnapshot(s *model.Supplier) map[string]interface{} {
	return map[string]interface{}{
		"legal_name": s.LegalName,
		"trade_name": s.TradeName,
		"tax_id":     s.TaxID,
		"email":      s.Email,
		"phone":      s.Phone,
		"website":    s.Website,
		"status":     s.Status,
		"contacts":   len(s.Contacts),
		"addresses":  len(s.Addresses),
	}
}

// --- CRUD ---

func (s *supplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (SupplierResponse, error) {
	errs := ValidationErrors{}
	if strings.TrimSpace(req.LegalName) == "" {
		errs["legal_name"] = "is required"
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			errs["email"] = "invalid email format"
		}
	}
	validateContacts(req.Contacts, errs)
	validateAddresses(req.Addresses, errs)
	if err := errs.orNil(); err != nil {
		return SupplierResponse{}, err
	}

	supplier := &model.Supplier{
		LegalName: strings.TrimSpace(req.LegalName),
		TradeName: strings.TrimSpace(req.TradeName),
		TaxID:     req.TaxID,
		Email:     req.Email,
		Phone:     req.Phone,
		Website:   req.Website,
		Status:    model.SupplierStatusActive,
		Contacts:  toContactModels(req.Contacts),
		Addresses: toAddressModels(req.Addresses),
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// contacts and addresses are created with the supplier through the association
		if err := s.repo.Create(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return s.activity.Record(txCtx, model.EntitySupplier, supplier.ID, model.ActionCreated, Diff(nil, supplierSnapshot(supplier)))
	})
	if err != nil {
		return SupplierResponse{}, err
	}

	s.notifier.Invalidate("suppliers", supplier.ID)
	return toSupplierResponse(supplier), nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (SupplierResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return SupplierResponse{}, err
	}

	errs := ValidationErrors{}
	if req.LegalName != nil && strings.TrimSpace(*req.LegalName) == "" {
		errs["legal_name"] = "cannot be empty"
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			errs["email"] = "invalid email format"
		}
	}
	if req.Contacts != nil {
		validateContacts(*req.Contacts, errs)
	}
	if req.Addresses != nil {
		validateAddresses(*req.Addresses, errs)
	}
	if err := errs.orNil(); err != nil {
		return SupplierResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "supplier")
		}
		before := supplierSnapshot(supplier)

		if req.LegalName != nil {
			supplier.LegalName = strings.TrimSpace(*req.LegalName)
		}
		if req.TradeName != nil {
			supplier.TradeName = strings.TrimSpace(*req.TradeName)
		}
		if req.TaxID != nil {
			supplier.TaxID = *req.TaxID
		}
		if req.Email != nil {
			supplier.Email = *req.Email
		}
		if req.Phone != nil {
			supplier.Phone = *req.Phone
		}
		if req.Website != nil {
			supplier.Website = *req.Website
		}

		if err := s.repo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		// delete-all + re-create strategy for nested lists
		if req.Contacts != nil {
			supplier.Contacts = toContactModels(*req.Contacts)
			if err := s.repo.ReplaceContacts(txCtx, uid, supplier.Contacts); err != nil {
				return fmt.Errorf("failed to replace contacts: %w", err)
			}
		}
		if req.Addresses != nil {
			supplier.Addresses = toAddressModels(*req.Addresses)
			if err := s.repo.ReplaceAddresses(txCtx, uid, supplier.Addresses); err != nil {
				return fmt.Errorf("failed to replace addresses: %w", err)
			}
		}

		changes := Diff(before, supplierSnapshot(supplier))
		if len(changes) == 0 {
			return nil
		}
		return s.activity.Record(txCtx, model.EntitySupplier, uid, model.ActionUpdated, changes)
	})
	if err != nil {
		return SupplierResponse{}, err
	}

	s.notifier.Invalidate("suppliers", uid)
	return s.GetSupplier(ctx, id)
}

func (s *supplierService) ChangeStatus(ctx context.Context, id string, req ChangeSupplierStatusRequest) (SupplierResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return SupplierResponse{}, err
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !validSupplierStatuses[status] {
		return SupplierResponse{}, invalid("status", "must be one of: active, inactive, suspended, blacklisted")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "supplier")
		}
		if supplier.Status == status {
			return nil
		}
		old := supplier.Status
		supplier.Status = status
		if err := s.repo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to change supplier status: %w", err)
		}
		return s.activity.Record(txCtx, model.EntitySupplier, uid, model.ActionStatusChanged, map[string]Change{
			"status": {Old: old, New: status},
		})
	})
	if err != nil {
		return SupplierResponse{}, err
	}

	s.notifier.Invalidate("suppliers", uid)
	return s.GetSupplier(ctx, id)
}

func (s *supplierService) LinkProducts(ctx context.Context, id string, req LinkProductsRequest) (SupplierResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return SupplierResponse{}, err
	}
	productIDs, err := parseIDs(req.ProductIDs, "product_ids")
	if err != nil {
		return SupplierResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "supplier")
		}
		found, err := s.productRepo.CountByIDs(txCtx, productIDs)
		if err != nil {
			return fmt.Errorf("failed to check products: %w", err)
		}
		if found != int64(len(uniqueIDs(productIDs))) {
			return invalid("product_ids", "one or more products do not exist")
		}

		before := len(supplier.Products)
		if err := s.repo.ReplaceProducts(txCtx, supplier, productIDs); err != nil {
			return fmt.Errorf("failed to link products: %w", err)
		}
		return s.activity.Record(txCtx, model.EntitySupplier, uid, model.ActionUpdated, map[string]Change{
			"products": {Old: before, New: len(supplier.Products)},
		})
	})
	if err != nil {
		return SupplierResponse{}, err
	}

	s.notifier.Invalidate("suppliers", uid)
	return s.GetSupplier(ctx, id)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id string) error {
	uid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "supplier")
		}
		if err := s.repo.Delete(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return s.activity.Record(txCtx, model.EntitySupplier, uid, model.ActionDeleted, Diff(supplierSnapshot(supplier), nil))
	})
	if err != nil {
		return err
	}
	s.notifier.Invalidate("suppliers", uid)
	return nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (SupplierResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return SupplierResponse{}, err
	}
	supplier, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return SupplierResponse{}, notFound(err, "supplier")
	}
	return toSupplierResponse(supplier), nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, p pagination.Params, status string) ([]SupplierResponse, int64, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !validSupplierStatuses[status] {
		return nil, 0, invalid("status", "must be one of: active, inactive, suspended, blacklisted")
	}
	suppliers, total, err := s.repo.List(ctx, p, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	res := make([]SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		res = append(res, toSupplierResponse(&suppliers[i]))
	}
	return res, total, nil
}

// --- Response mappers ---

func toSupplierResponse(s *model.Supplier) SupplierResponse {
	products := make([]SupplierProductResponse, 0, len(s.Products))
	for _, p := range s.Products {
		products = append(products, SupplierProductResponse{ID: p.ID.String(), SKU: p.SKU, Name: p.Name})
	}
	contacts := s.Contacts
	if contacts == nil {
		contacts = []model.SupplierContact{}
	}
	addresses := s.Addresses
	if addresses == nil {
		addresses = []model.SupplierAddress{}
	}
	return SupplierResponse{
		ID:        s.ID.String(),
		LegalName: s.LegalName,
		TradeName: s.TradeName,
		TaxID:     s.TaxID,
		Email:     s.Email,
		Phone:     s.Phone,
		Website:   s.Website,
		Status:    s.Status,
		Contacts:  contacts,
		Addresses: addresses,
		Products:  products,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
