package usecase

import (
	"context"
	"errors"
	"strings"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrCannotModifySelf      = errors.New("you cannot change your own role or deactivate yourself")
)

type UserUsecase interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) (*dto.UserListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	// CreateSuperuser is used by the command line. It needs no caller identity.
	CreateSuperuser(ctx context.Context, req *dto.CreateSuperuserRequest) (*dto.UserResponse, error)
}

type userUsecase struct {
	txManager repository.TxManager
	log       *logrus.Logger
	userRepo  repository.UserRepository
	tokens    service.TokenStore
}

func NewUserUsecase(
	txManager repository.TxManager,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	tokens service.TokenStore,
) UserUsecase {
	return &userUsecase{
		txManager: txManager,
		log:       log,
		userRepo:  userRepo,
		tokens:    tokens,
	}
}

func (u *userUsecase) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		ClinicID:  &clinicID,
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
	}
	user.ApplyRole(req.Role)

	if err := u.userRepo.Create(u.txManager.DB(ctx), user); err != nil {
		if err := userConflict(err); err != nil {
			return nil, err
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	return converter.UserToResponse(user), nil
}

func (u *userUsecase) List(ctx context.Context, req *dto.UserListRequest) (*dto.UserListResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, limit := entity.Normalize(req.Page, req.Limit)
	filter := entity.UserFilter{
		Role:     req.Role,
		IsActive: req.IsActive,
		Page:     page,
		Limit:    limit,
	}

	users, total, err := u.userRepo.FindAll(u.txManager.DB(ctx), clinicID, filter)
	if err != nil {
		u.log.Warnf("Failed to list users: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users:      converter.UsersToResponses(users),
		Pagination: pagination(page, limit, total),
	}, nil
}

func (u *userUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	_, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByIDInClinic(u.txManager.DB(ctx), clinicID, id)
	if err != nil {
		u.log.Warnf("Failed to find user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

// Update revokes every session of the user when the password changes or the account is disabled.
func (u *userUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	identity, clinicID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if id == identity.UserID && (req.Role != "" || (req.IsActive != nil && !*req.IsActive)) {
		return nil, ErrCannotModifySelf
	}

	var hashedPassword string
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			u.log.Warnf("Failed to hash password: %+v", err)
			return nil, err
		}
		hashedPassword = string(hashed)
	}

	var (
		user   *entity.User
		revoke bool
	)
	err = u.txManager.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := u.userRepo.FindByIDInClinic(tx, clinicID, id)
		if err != nil {
			u.log.Warnf("Failed to find user: %+v", err)
			return err
		}
		if found == nil {
			return ErrUserNotFound
		}

		if req.Email != "" {
			found.Email = strings.ToLower(req.Email)
		}
		if req.FirstName != "" {
			found.FirstName = req.FirstName
		}
		if req.LastName != "" {
			found.LastName = req.LastName
		}
		if req.Role != "" && req.Role != found.Role {
			found.ApplyRole(req.Role)
			revoke = true
		}
		if hashedPassword != "" {
			found.Password = hashedPassword
			revoke = true
		}
		if req.IsActive != nil {
			if found.IsActive && !*req.IsActive {
				revoke = true
			}
			found.IsActive = *req.IsActive
		}

		if err := u.userRepo.Update(tx, found); err != nil {
			if err := userConflict(err); err != nil {
				return err
			}
			u.log.Warnf("Failed to update user: %+v", err)
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if revoke {
		u.revokeAll(ctx, user.ID)
	}

	return converter.UserToResponse(user), nil
}

func (u *userUsecase) Deactivate(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	inactive := false
	return u.Update(ctx, id, &dto.UpdateUserRequest{IsActive: &inactive})
}

func (u *userUsecase) CreateSuperuser(ctx context.Context, req *dto.CreateSuperuserRequest) (*dto.UserResponse, error) {
	db := u.txManager.DB(ctx)

	for _, login := range []string{req.Username, req.Email} {
		existing, err := u.userRepo.FindByLogin(db, nil, login)
		if err != nil {
			u.log.Warnf("Failed to find superuser: %+v", err)
			return nil, err
		}
		if existing != nil {
			if strings.EqualFold(existing.Email, req.Email) {
				return nil, ErrEmailAlreadyExists
			}
			return nil, ErrUsernameAlreadyExists
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  string(hashedPassword),
		FirstName: req.Username,
		IsActive:  true,
	}
	user.ApplyRole(entity.RoleSuperuser)

	if err := u.userRepo.Create(db, user); err != nil {
		u.log.Warnf("Failed to create superuser: %+v", err)
		return nil, err
	}

	u.log.Infof("Superuser %s created", user.Username)
	return converter.UserToResponse(user), nil
}

// revokeAll is best-effort; a Redis outage must not undo a committed change.
func (u *userUsecase) revokeAll(ctx context.Context, userID uuid.UUID) {
	if err := u.tokens.RevokeAll(ctx, userID); err != nil {
		u.log.Warnf("Failed to revoke tokens for user %s: %+v", userID, err)
	}
}

func userConflict(err error) error {
	name, ok := repository.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch name {
	case repository.ConstraintUserEmail:
		return ErrEmailAlreadyExists
	case repository.ConstraintUserUsername:
		return ErrUsernameAlreadyExists
	}
	return nil
}
