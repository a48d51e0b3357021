package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"procurement/internal/access"
	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccessTokenTTL is how long an issued access token stays valid
const AccessTokenTTL = 24 * time.Hour

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	RoleIDs  []string `json:"role_ids"`
}

type UpdateUserRequest struct {
	Name     *string   `json:"name"`
	Email    *string   `json:"email"`
	Phone    *string   `json:"phone"`
	Password *string   `json:"password"`
	IsActive *bool     `json:"is_active"`
	RoleIDs  *[]string `json:"role_ids"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MeResponse struct {
	User        UserResponse   `json:"user"`
	Permissions []string       `json:"permissions"`
	Groups      []access.Group `json:"groups"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Me(ctx context.Context, userID string) (MeResponse, error)
	GetUserByID(ctx context.Context, id string) (UserResponse, error)
	ListUsers(ctx context.Context, p pagination.Params) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
	Permissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	SeedAdmin(ctx context.Context, username, password string) error
}

type userService struct {
	repo      repository.UserRepository
	roleRepo  repository.RoleRepository
	activity  ActivityService
	txManager repository.TransactionManager
	secret    []byte
	now       func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	roleRepo repository.RoleRepository,
	activity ActivityService,
	txManager repository.TransactionManager,
	secret []byte,
) UserService {
	return &userService{
		repo:      repo,
		roleRepo:  roleRepo,
		activity:  activity,
		txManager: txManager,
		secret:    secret,
		now:       time.Now,
	}
}

func userSnapshot(u *model.User) map[string]interface{} {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}
	return map[string]interface{}{
		"name":      u.Name,
		"email":     u.Email,
		"phone":     u.Phone,
		"is_active": u.IsActive,
		"roles":     strings.Join(roles, ", "),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	errs := ValidationErrors{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "is required"
	}
	if strings.TrimSpace(req.Username) == "" {
		errs["username"] = "is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs["email"] = "invalid email format"
	}
	if len(req.Password) < 6 {
		errs["password"] = "must be at least 6 characters"
	}
	if err := errs.orNil(); err != nil {
		return UserResponse{}, err
	}
	roleIDs, err := parseIDs(req.RoleIDs, "role_ids")
	if err != nil {
		return UserResponse{}, err
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return UserResponse{}, fmt.Errorf("%w: username already exists", ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Phone:    req.Phone,
		Password: string(hashedPassword),
		IsActive: true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return duplicate(fmt.Errorf("failed to create user: %w", err), "username or email already exists")
		}
		if err := s.repo.ReplaceRoles(txCtx, user, roleIDs); err != nil {
			return fmt.Errorf("failed to assign roles: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityUser, user.ID, model.ActionCreated, Diff(nil, userSnapshot(user)))
	})
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if !user.IsActive {
		return TokenResponse{}, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	expires := s.now().Add(AccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.Name,
		"exp":  expires.Unix(),
		"iat":  s.now().Unix(),
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, errors.New("failed to generate token")
	}

	return TokenResponse{AccessToken: tokenString, ExpiresAt: expires, User: toUserResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (MeResponse, error) {
	uid, err := parseID(userID, "id")
	if err != nil {
		return MeResponse{}, err
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return MeResponse{}, notFound(err, "user")
	}
	names := access.NewSet(user.PermissionNames()...).Names()
	return MeResponse{
		User:        toUserResponse(user),
		Permissions: names,
		Groups:      access.GroupByResource(names),
	}, nil
}

// Permissions resolves the permission names granted to an active user
func (s *userService) Permissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.PermissionNames(ctx, userID)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (UserResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return UserResponse{}, err
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return UserResponse{}, notFound(err, "user")
	}
	return toUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, p pagination.Params) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return UserResponse{}, err
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err = s.repo.GetByID(txCtx, uid)
		if err != nil {
			return notFound(err, "user")
		}
		before := userSnapshot(user)

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return invalid("name", "cannot be empty")
			}
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			if _, err := mail.ParseAddress(*req.Email); err != nil {
				return invalid("email", "invalid email format")
			}
			user.Email = *req.Email
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.Password != nil {
			if len(*req.Password) < 6 {
				return invalid("password", "must be at least 6 characters")
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return errors.New("failed to hash password")
			}
			user.Password = string(hashed)
		}

		if err := s.repo.Update(txCtx, user); err != nil {
			return duplicate(fmt.Errorf("failed to update user: %w", err), "email already exists")
		}
		if req.RoleIDs != nil {
			roleIDs, err := parseIDs(*req.RoleIDs, "role_ids")
			if err != nil {
				return err
			}
			if err := s.repo.ReplaceRoles(txCtx, user, roleIDs); err != nil {
				return fmt.Errorf("failed to assign roles: %w", err)
			}
		}

		changes := Diff(before, userSnapshot(user))
		if req.Password != nil {
			changes["password"] = Change{Old: "********", New: "********"}
		}
		if len(changes) == 0 {
			return nil
		}
		return s.activity.Record(txCtx, model.EntityUser, uid, model.ActionUpdated, changes)
	})
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	uid, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if actor := ActorFrom(ctx); actor.ID != nil && *actor.ID == uid {
		return fmt.Errorf("%w: you cannot delete your own account", ErrForbidden)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, uid)
		if err != nil {
			return notFound(err, "user")
		}
		if err := s.repo.Delete(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityUser, uid, model.ActionDeleted, Diff(userSnapshot(user), nil))
	})
}

// SeedAdmin creates the bootstrap admin account once
func (s *userService) SeedAdmin(ctx context.Context, username, password string) error {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	role, err := s.roleRepo.FindByName(ctx, "admin")
	if err != nil {
		return fmt.Errorf("admin role missing: %w", err)
	}
	_, err = s.CreateUser(ctx, CreateUserRequest{
		Name:     "Administrator",
		Username: username,
		Email:    username + "@procurement.local",
		Password: password,
		RoleIDs:  []string{role.ID.String()},
	})
	return err
}

func toUserResponse(u *model.User) UserResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
