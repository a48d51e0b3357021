package service

import (
	"context"
	"fmt"
	"strings"

	"procurement/internal/access"
	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
)

// --- DTOs ---

type RoleRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Description string `json:"description"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context, p pagination.Params) ([]RoleResponse, int64, error)
	GetRole(ctx context.Context, id string) (RoleResponse, error)
	CreateRole(ctx context.Context, req RoleRequest) (RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req RoleRequest) (RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, []access.Group, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (RoleResponse, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	txManager repository.TransactionManager
	onChange  func()
}

// NewRoleService wires the role repository; onChange runs after any permission
// assignment changes so cached permission sets can be dropped.
func NewRoleService(repo repository.RoleRepository, txManager repository.TransactionManager, onChange func()) RoleService {
	if onChange == nil {
		onChange = func() {}
	}
	return &roleService{repo: repo, txManager: txManager, onChange: onChange}
}

func (s *roleService) ListRoles(ctx context.Context, p pagination.Params) ([]RoleResponse, int64, error) {
	roles, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch roles: %w", err)
	}
	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, total, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (RoleResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return RoleResponse{}, err
	}
	role, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return RoleResponse{}, notFound(err, "role")
	}
	return toRoleResponse(*role), nil
}

func parseIDs(raw []string, field string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for i, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, invalid(fmt.Sprintf("%s[%d]", field, i), "must be a UUID")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *roleService) CreateRole(ctx context.Context, req RoleRequest) (RoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return RoleResponse{}, invalid("name", "is required")
	}
	permIDs, err := parseIDs(req.PermissionIDs, "permission_ids")
	if err != nil {
		return RoleResponse{}, err
	}

	role := &model.Role{Name: name, Description: req.Description}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, role); err != nil {
			return duplicate(fmt.Errorf("failed to create role: %w", err), "role name already exists")
		}
		perms, err := s.repo.FindPermissions(txCtx, permIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch permissions: %w", err)
		}
		return s.repo.ReplacePermissions(txCtx, role, perms)
	})
	if err != nil {
		return RoleResponse{}, err
	}
	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req RoleRequest) (RoleResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return RoleResponse{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return RoleResponse{}, invalid("name", "is required")
	}

	role, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return RoleResponse{}, notFound(err, "role")
	}
	if role.IsSystem && role.Name != name {
		return RoleResponse{}, fmt.Errorf("%w: system roles cannot be renamed", ErrForbidden)
	}
	role.Name = name
	role.Description = req.Description
	if err := s.repo.Update(ctx, role); err != nil {
		return RoleResponse{}, duplicate(fmt.Errorf("failed to update role: %w", err), "role name already exists")
	}
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	uid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	role, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return notFound(err, "role")
	}
	if role.IsSystem {
		return fmt.Errorf("%w: system roles cannot be deleted", ErrForbidden)
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.onChange()
	return nil
}

// ListPermissions returns the flat list plus the same list grouped by resource
func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, []access.Group, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	res := make([]PermissionResponse, 0, len(perms))
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
		names = append(names, p.Name)
	}
	return res, access.GroupByResource(names), nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (RoleResponse, error) {
	uid, err := parseID(roleID, "id")
	if err != nil {
		return RoleResponse{}, err
	}
	permIDs, err := parseIDs(req.PermissionIDs, "permission_ids")
	if err != nil {
		return RoleResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "role")
		}
		perms, err := s.repo.FindPermissions(txCtx, permIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch permissions: %w", err)
		}
		if len(perms) != len(permIDs) {
			return invalid("permission_ids", "one or more permissions do not exist")
		}
		return s.repo.ReplacePermissions(txCtx, role, perms)
	})
	if err != nil {
		return RoleResponse{}, err
	}

	s.onChange()
	return s.GetRole(ctx, roleID)
}

// defaultResources and defaultActions generate the action_resource catalog
var (
	defaultResources = []string{
		"user", "role", "category", "uom", "product", "supplier",
		"rfq", "quotation", "evaluation", "activity_log",
	}
	defaultActions = []string{"read", "create", "update", "delete"}
	extraPerms     = []string{
		"publish_rfq", "evaluate_quotation", "award_quotation", "shortlist_evaluation",
		"submit_quotation", "export_report",
	}
)

// DefaultPermissionNames is the full seeded catalog
func DefaultPermissionNames() []string {
	names := make([]string, 0, len(defaultResources)*len(defaultActions)+len(extraPerms))
	for _, r := range defaultResources {
		for _, a := range defaultActions {
			names = append(names, a+"_"+r)
		}
	}
	return append(names, extraPerms...)
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	all := DefaultPermissionNames()
	byName := make(map[string]model.Permission, len(all))
	for _, name := range all {
		action, resource := access.Split(name)
		p := model.Permission{Name: name, Description: strings.ToUpper(action[:1]) + action[1:] + " " + strings.ReplaceAll(resource, "_", " ")}
		if err := s.repo.FindOrCreatePermission(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", name, err)
		}
		byName[name] = p
	}

	roleDefinitions := map[string]struct {
		Description string
		Perms       []string
	}{
		"admin": {
			Description: "Full access to every screen",
			Perms:       all,
		},
		"procurement_officer": {
			Description: "Runs RFQs end to end",
			Perms: []string{
				"read_product", "read_category", "read_uom", "read_supplier",
				"read_rfq", "create_rfq", "update_rfq", "publish_rfq",
				"read_quotation", "update_quotation", "evaluate_quotation", "award_quotation",
				"read_evaluation", "shortlist_evaluation", "read_activity_log", "export_report",
			},
		},
		"supplier": {
			Description: "Sees open RFQs and submits quotations",
			Perms:       []string{"read_rfq", "submit_quotation"},
		},
	}

	for roleName, def := range roleDefinitions {
		role, err := s.repo.FindByName(ctx, roleName)
		if err != nil {
			role = &model.Role{Name: roleName, Description: def.Description, IsSystem: true}
			if err := s.repo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}
		}

		perms := make([]model.Permission, 0, len(def.Perms))
		for _, name := range def.Perms {
			if p, ok := byName[name]; ok {
				perms = append(perms, p)
			}
		}
		if err := s.repo.ReplacePermissions(ctx, role, perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	s.onChange()
	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}
	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	action, resource := access.Split(p.Name)
	return PermissionResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Action:      action,
		Resource:    resource,
		Description: p.Description,
	}
}
