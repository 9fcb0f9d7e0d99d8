package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/AchAffand/SuratJalan-sub001/internal/auth"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
	"github.com/AchAffand/SuratJalan-sub001/internal/permissions"
	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
)

// UserService manages accounts, login and per-user menu policies
type UserService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserService(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Bootstrap creates the first administrator account. Refused once any user
// exists, after that accounts are created by an authenticated admin.
func (s *UserService) Bootstrap(ctx context.Context, req *RegisterUserRequest) (*model.User, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count users")
	}
	if count > 0 {
		return nil, ErrAlreadyBootstrapped
	}

	req.Role = string(model.RoleAdministrator)
	return s.Register(ctx, req)
}

// Register creates an account with the role's default menu set
func (s *UserService) Register(ctx context.Context, req *RegisterUserRequest) (*model.User, error) {
	role, err := model.RoleFromString(req.Role)
	if err != nil {
		return nil, errors.Wrapf(ErrValidation, "%v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &model.User{
		Base: model.Base{
			UUID: uuid.New().String(),
		},
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         role,
		MenuPolicy:   model.RoleDefaultMenus(),
	}

	user, err = s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}

	logrus.WithFields(logrus.Fields{
		"username": user.Username,
		"role":     user.Role,
	}).Info("User account created")
	return user, nil
}

// Login verifies credentials and issues a signed token
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (string, *model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.jwtSecret, s.tokenTTL, user)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to sign token")
	}
	return token, user, nil
}

// List returns all user accounts
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// Get returns one user account
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetMenuPolicy replaces a user's menu policy. A custom policy overrides
// the role defaults entirely, it is not merged with them.
func (s *UserService) SetMenuPolicy(ctx context.Context, id string, policy model.MenuPolicy) (*model.User, error) {
	if policy.IsOverride() {
		known := make(map[string]bool)
		for _, m := range permissions.AllMenus() {
			known[m.ID] = true
		}
		for _, menuID := range policy.MenuIDs {
			if !known[menuID] {
				return nil, errors.Wrapf(ErrValidation, "unknown menu %q", menuID)
			}
		}
	}

	if err := s.userRepo.UpdateMenuPolicy(ctx, id, policy); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

// Menus resolves the menu entries visible to a user
func (s *UserService) Menus(ctx context.Context, id string) ([]permissions.Menu, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return permissions.AccessibleMenus(user.Role, user.MenuPolicy), nil
}
