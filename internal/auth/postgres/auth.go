package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{
		db: db,
	}
}

func toAuthUser(m *userDatamodel.User) *auth.User {
	return &auth.User{
		ID:       m.ID,
		Email:    m.Email,
		Name:     m.Name,
		Role:     coreUser.Role(m.Role),
		IsActive: m.IsActive,
	}
}

func (r *Repository) GetCredentials(email string) (string, *auth.User, error) {
	var m userDatamodel.User
	err := r.db.Where("email = ? AND is_active = ?", email, true).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, internal.ErrUserNotFound
		}
		return "", nil, err
	}
	return m.PasswordHash, toAuthUser(&m), nil
}

func (r *Repository) GetUserByID(userID int64) (*auth.User, error) {
	var m userDatamodel.User
	if err := r.db.Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return toAuthUser(&m), nil
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var n int64
	err := r.db.Model(&userDatamodel.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateUser(user *auth.User, passwordHash string) error {
	m := &userDatamodel.User{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
		IsActive:     true,
	}
	if err := r.db.Create(m).Error; err != nil {
		return err
	}
	user.ID = m.ID
	user.IsActive = m.IsActive
	return nil
}
