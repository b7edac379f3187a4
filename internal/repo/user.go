package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/inventory/internal/hash"
	"github.com/Skotchmaster/inventory/internal/models"
)

func (r *GormRepo) VerifyLogin(ctx context.Context, login, password string) (bool, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("select user %q: %w", login, err)
	}
	return hash.CheckPassword(user.PasswordHash, password), nil
}

func (r *GormRepo) LoginExists(ctx context.Context, login string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("login = ?", login).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users %q: %w", login, err)
	}
	return count > 0, nil
}

// CreateUser inserts u unless the login is taken. The unique index covers the
// window between the lookup and the insert.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where(models.User{Login: u.Login}).FirstOrCreate(u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrLoginTaken
		}
		return fmt.Errorf("insert user %q: %w", u.Login, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrLoginTaken
	}
	return nil
}

func (r *GormRepo) FetchUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// LockUser reads the user row with FOR UPDATE, serializing writers that act on
// behalf of the same login. sqlite has no row locks; its single writer already
// serializes the transaction.
func (r *GormRepo) LockUser(ctx context.Context, login string) (*models.User, error) {
	q := r.DB.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var user models.User
	if err := q.Where("login = ?", login).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FetchAllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

func (r *GormRepo) UpdateUserRole(ctx context.Context, login, role string) error {
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("login = ?", login).
		Update("role", role).Error; err != nil {
		return fmt.Errorf("update role of %q: %w", login, err)
	}
	return nil
}
