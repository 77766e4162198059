package repository

import (
	"errors"
	"time"

	authdomain "fieldline-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(role *authdomain.Role) error {
	role.ID = uuid.New().String()
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()
	return r.db.Create(role).Error
}

func (r *roleRepository) FindByID(id string) (*authdomain.Role, error) {
	var role authdomain.Role
	err := r.db.Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List() ([]*authdomain.Role, error) {
	var roles []*authdomain.Role
	if err := r.db.Order("name asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) Update(role *authdomain.Role) error {
	role.UpdatedAt = time.Now()
	return r.db.Save(role).Error
}

func (r *roleRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&authdomain.Role{}).Error
}
