package service

import (
	"academic_backend/internal/config"
	"academic_backend/internal/model"
	"academic_backend/internal/repository"
	"academic_backend/internal/util"
	"academic_backend/pkg/logger"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService is the single registry of accounts across all roles.
type IdentityService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
	Now      func() time.Time
}

func NewIdentityService(userRepo *repository.UserRepository, cfg *config.Config) *IdentityService {
	return &IdentityService{
		UserRepo: userRepo,
		Cfg:      cfg,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     model.UserRole
	ClassID  *uint
}

// Register checks email and phone against every account in one query; the
// unique indexes catch whatever slips past a concurrent registration.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	role, ok := model.ParseRole(string(in.Role))
	if !ok {
		return nil, util.InvalidInput("unknown role")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var phone *string
	if p := strings.TrimSpace(in.Phone); p != "" {
		phone = &p
	}

	taken, err := s.UserRepo.ContactTaken(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateContact
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     in.Name,
		Email:    email,
		Phone:    phone,
		Password: string(hashed),
		Role:     role,
	}
	if role == model.Student {
		user.ClassID = in.ClassID
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("User registered", zap.Uint("userId", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login exchanges credentials for a signed token.
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if user.Disabled {
		return "", nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	if err := s.UserRepo.TouchLastLogin(ctx, user.ID, s.Now()); err != nil {
		logger.Log.Warn("Failed to record last login", zap.Uint("userId", user.ID), zap.Error(err))
	}
	return token, user, nil
}
