package service

import (
	"context"
	"errors"
	"os"
	"time"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Zip     *string `json:"zip"`
}

type CreateUserRequest struct {
	Name         string   `json:"name" binding:"required"`
	Email        string   `json:"email" binding:"required,email"`
	Password     string   `json:"password" binding:"required,min=8"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	VerifyStatus string   `json:"verify_status" binding:"omitempty,oneof=pending completed"`
	Roles        []string `json:"roles"` // Role UUIDs
}

type UpdateUserRequest struct {
	Name         *string  `json:"name"`
	Email        *string  `json:"email" binding:"omitempty,email"`
	Password     *string  `json:"password" binding:"omitempty,min=8"`
	Phone        *string  `json:"phone"`
	Address      *string  `json:"address"`
	City         *string  `json:"city"`
	State        *string  `json:"state"`
	Zip          *string  `json:"zip"`
	VerifyStatus *string  `json:"verify_status" binding:"omitempty,oneof=pending completed"`
	Roles        []string `json:"roles"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error)

	ListUsers(ctx context.Context, page, limit int, filter repository.UserFilter) ([]UserResponse, int64, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	// UpdateUser applies a partial update; when Roles is non-nil the full
	// role set is replaced, subject to the self-admin-revoke guardrail.
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	// DeleteUser refuses self-deletion and deleting the last admin holder.
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
}

type userService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
) UserService {
	return &userService{userRepo: userRepo, roleRepo: roleRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Validation(map[string]string{"email": "The email has already been taken"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashed),
		Phone:        req.Phone,
		VerifyStatus: model.VerifyStatusPending,
		LegacyRole:   "user",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	return s.issueToken(user)
}

func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	return s.GetUser(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.State != nil {
		user.State = *req.State
	}
	if req.Zip != nil {
		user.Zip = *req.Zip
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, page, limit int, filter repository.UserFilter) ([]UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Validation(map[string]string{"email": "The email has already been taken"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	verifyStatus := req.VerifyStatus
	if verifyStatus == "" {
		verifyStatus = model.VerifyStatusCompleted
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashed),
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		VerifyStatus: verifyStatus,
		LegacyRole:   "user", // kept for backward compatibility
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if req.Roles != nil {
		roles, err := s.resolveRoleIDs(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
			return nil, err
		}
	}

	return s.GetUser(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.userRepo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, apperr.Validation(map[string]string{"email": "The email has already been taken"})
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Internal("failed to hash password", err)
		}
		user.Password = string(hashed)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.State != nil {
		user.State = *req.State
	}
	if req.Zip != nil {
		user.Zip = *req.Zip
	}
	if req.VerifyStatus != nil {
		user.VerifyStatus = *req.VerifyStatus
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.Roles != nil {
		roles, err := s.resolveRoleIDs(ctx, req.Roles)
		if err != nil {
			return nil, err
		}

		if user.HasRoleSlug(model.RoleSlugAdmin) {
			keepsAdmin := false
			for _, r := range roles {
				if r.Slug == model.RoleSlugAdmin {
					keepsAdmin = true
					break
				}
			}
			if !keepsAdmin {
				// A user editing themselves may not drop their own admin role
				if actorID == user.ID {
					return nil, apperr.Conflict("Cannot revoke your own admin role")
				}
				// Nor may a role sync leave the system without any admin
				count, err := s.userRepo.CountByRoleSlug(ctx, model.RoleSlugAdmin)
				if err != nil {
					return nil, err
				}
				if count <= 1 {
					return nil, apperr.Conflict("Cannot revoke the last admin role")
				}
			}
		}

		if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
			return nil, err
		}
	}

	return s.GetUser(ctx, user.ID)
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	user, err := s.userRepo.FindByIDWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if actorID == user.ID {
		return apperr.Conflict("Cannot delete your own account")
	}

	if user.HasRoleSlug(model.RoleSlugAdmin) {
		count, err := s.userRepo.CountByRoleSlug(ctx, model.RoleSlugAdmin)
		if err != nil {
			return err
		}
		if count <= 1 {
			return apperr.Conflict("Cannot delete the last admin user")
		}
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	entry := &model.AuditLog{
		UserID:     &actorID,
		Action:     model.ActionDeleteUser,
		EntityID:   user.ID.String(),
		EntityName: user.Name,
	}
	_ = s.auditRepo.Log(ctx, entry)

	return nil
}

func (s *userService) resolveRoleIDs(ctx context.Context, ids []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validation(map[string]string{"roles": "Invalid role id '" + raw + "'"})
		}
		role, err := s.roleRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation(map[string]string{"roles": "Unknown role id '" + raw + "'"})
			}
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func (s *userService) issueToken(user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	})

	// Same fallback strategy as the auth middleware
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}

	return &TokenResponse{Token: signed, User: toUserResponse(user)}, nil
}
