package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/codewithprince01/CoffeeBeat/internal/auth"
	"github.com/codewithprince01/CoffeeBeat/internal/config"
	"github.com/codewithprince01/CoffeeBeat/internal/datamodels/user"
	"github.com/codewithprince01/CoffeeBeat/internal/repository"
)

// UserService 用户目录与登录
type UserService struct {
	repo user.Repository
	jwt  *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(repo user.Repository, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

func newSalt() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Register 注册顾客账号
func (s *UserService) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	return s.CreateWithRole(ctx, name, email, password, user.RoleCustomer)
}

// CreateWithRole 创建指定角色的账号（后台建员工号用）
func (s *UserService) CreateWithRole(ctx context.Context, name, email, password string, role user.Role) (*user.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email required", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password too short", ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s", ErrDuplicate, email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		GetMonitor().RecordDBError()
		return nil, err
	}
	u := &user.User{
		Name:   name,
		Email:  email,
		Salt:   newSalt(),
		Role:   role,
		Active: true,
	}
	u.PasswordHash = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return u, nil
}

// Login 登录并返回 JWT
func (s *UserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: bad credentials", ErrForbidden)
		}
		GetMonitor().RecordDBError()
		return "", nil, err
	}
	if !u.Active || hashPassword(password, u.Salt) != u.PasswordHash {
		return "", nil, fmt.Errorf("%w: bad credentials", ErrForbidden)
	}
	token, err := auth.GenerateToken(s.jwt, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// GetByID 查用户
func (s *UserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, err
	}
	return u, nil
}

// ListAll 全部用户（后台用）
func (s *UserService) ListAll(ctx context.Context) ([]*user.User, error) {
	return s.repo.ListAll(ctx)
}

// ListByRole 按角色列出用户（排班/指派用）
func (s *UserService) ListByRole(ctx context.Context, role user.Role) ([]*user.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return s.repo.ListByRole(ctx, role)
}
