package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/inventory/internal/models"
)

func (r *GormRepo) FetchAllProducts(ctx context.Context) ([]models.Product, error) {
	items := []models.Product{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return items, nil
}

func (r *GormRepo) FetchProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, notFound(err)
	}
	return &prod, nil
}

// FetchProductByName returns the lowest id among products sharing the name.
func (r *GormRepo) FetchProductByName(ctx context.Context, name string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&prod).Error; err != nil {
		return nil, notFound(err)
	}
	return &prod, nil
}

func (r *GormRepo) SearchProductsByName(ctx context.Context, q string, limit int) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	items := []models.Product{}
	if err := r.DB.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("search products %q: %w", q, err)
	}
	return items, nil
}

func (r *GormRepo) CountProductsByOwner(ctx context.Context, login string) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("owner_login = ?", login).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count products of %q: %w", login, err)
	}
	return total, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProduct reports false when no product has the id. Owner is left as is.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, name string, qty int, price float64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "quantity": qty, "price": price})
	if res.Error != nil {
		return false, fmt.Errorf("update product %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
