package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/inventory/internal/events"
	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/models"
	"github.com/Skotchmaster/inventory/internal/policy"
	"github.com/Skotchmaster/inventory/internal/repo"
	"github.com/Skotchmaster/inventory/internal/search"
)

const (
	searchLimit = 50

	// maxPrice is the exclusive bound of a numeric(10,2) column.
	maxPrice = 1e8
)

type InventoryService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	// Search is optional. Without it product search uses the store.
	Search search.Index

	EnforceOwnership bool
}

type ProductInput struct {
	Name     string
	Owner    string
	Quantity int
	Price    float64
}

// ChartBar is one bar of the quantity chart. Percent is relative to the
// largest quantity.
type ChartBar struct {
	Label    string
	Quantity int
	Percent  float64
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if math.IsNaN(in.Price) || in.Price >= maxPrice {
		return fmt.Errorf("%w: price must be below %.0f", ErrValidation, maxPrice)
	}
	if cents := in.Price * 100; math.Abs(cents-math.Round(cents)) > 1e-4 {
		return fmt.Errorf("%w: price has more than two decimals", ErrValidation)
	}
	return nil
}

func loadActor(ctx context.Context, r *repo.GormRepo, login string) (*models.User, error) {
	if login == "" {
		return nil, ErrUnauthenticated
	}
	user, err := r.FetchUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// ActorRole returns the stored role of the authenticated login.
func (s *InventoryService) ActorRole(ctx context.Context, actor string) (string, error) {
	user, err := loadActor(ctx, s.Repo, actor)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *InventoryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.FetchAllProducts(ctx)
}

// SearchProducts matches products by name. An empty query lists everything.
func (s *InventoryService) SearchProducts(ctx context.Context, q string) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.ListProducts(ctx)
	}

	if s.Search != nil {
		prods, err := s.Search.Search(ctx, q, searchLimit)
		if err == nil {
			return prods, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "query", q, "fallback", "store", "error", err)
	}

	return s.Repo.SearchProductsByName(ctx, q, searchLimit)
}

func (s *InventoryService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.FetchProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return prod, nil
}

func (s *InventoryService) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	prod, err := s.Repo.FetchProductByName(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return prod, nil
}

// CanAddProduct reports ErrProductLimit when actor is at the cap. The page
// surface uses it before rendering the form; CreateProduct checks again.
func (s *InventoryService) CanAddProduct(ctx context.Context, actor string) error {
	user, err := loadActor(ctx, s.Repo, actor)
	if err != nil {
		return err
	}
	count, err := s.Repo.CountProductsByOwner(ctx, actor)
	if err != nil {
		return err
	}
	if !policy.CanCreateProduct(user.Role, count) {
		return ErrProductLimit
	}
	return nil
}

func (s *InventoryService) CreateProduct(ctx context.Context, actor string, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "inventory.create_product", "actor", actor)

	if err := validateProduct(in); err != nil {
		return nil, err
	}
	owner := strings.TrimSpace(in.Owner)
	if owner == "" {
		owner = actor
	}

	prod := models.Product{
		Name:       strings.TrimSpace(in.Name),
		OwnerLogin: owner,
		Quantity:   in.Quantity,
		Price:      in.Price,
	}

	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		actorUser, err := loadActor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if !policy.CanCreateProductFor(actorUser.Role, actor, owner) {
			return ErrForbidden
		}

		ownerUser, err := tx.LockUser(ctx, owner)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("%w: owner %q does not exist", ErrValidation, owner)
			}
			return err
		}

		count, err := tx.CountProductsByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if !policy.CanCreateProduct(ownerUser.Role, count) {
			return ErrProductLimit
		}
		return tx.CreateProduct(ctx, &prod)
	})
	if err != nil {
		if errors.Is(err, ErrProductLimit) || errors.Is(err, ErrForbidden) {
			l.Warn("create_product_rejected", "owner", owner, "reason", err.Error())
		}
		return nil, err
	}

	s.afterWrite(ctx, "product_created", &prod)
	l.Info("create_product_success", "product_id", prod.ID, "owner", owner)
	return &prod, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, actor string, id uint, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "inventory.update_product", "actor", actor, "product_id", id)

	if err := validateProduct(in); err != nil {
		return nil, err
	}
	prod, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	prod.Name = strings.TrimSpace(in.Name)
	prod.Quantity = in.Quantity
	prod.Price = in.Price

	ok, err := s.Repo.UpdateProduct(ctx, id, prod.Name, prod.Quantity, prod.Price)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	s.afterWrite(ctx, "product_updated", prod)
	l.Info("update_product_success")
	return prod, nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, actor string, id uint) error {
	l := logging.FromContext(ctx).With("svc", "inventory.delete_product", "actor", actor, "product_id", id)

	prod, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return err
	}

	ok, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	publish(ctx, s.Events, events.TopicProducts, prod.OwnerLogin, map[string]any{
		"type":       "product_deleted",
		"product_id": prod.ID,
		"owner":      prod.OwnerLogin,
	})
	if s.Search != nil {
		if err := s.Search.RemoveProduct(ctx, id); err != nil {
			l.Warn("search_index_failed", "op", "remove", "error", err)
		}
	}
	l.Info("delete_product_success")
	return nil
}

func (s *InventoryService) modifiable(ctx context.Context, actor string, id uint) (*models.Product, error) {
	user, err := loadActor(ctx, s.Repo, actor)
	if err != nil {
		return nil, err
	}
	prod, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyProduct(user.Role, actor, prod.OwnerLogin, s.EnforceOwnership) {
		return nil, ErrForbidden
	}
	return prod, nil
}

func (s *InventoryService) afterWrite(ctx context.Context, kind string, prod *models.Product) {
	publish(ctx, s.Events, events.TopicProducts, prod.OwnerLogin, map[string]any{
		"type":       kind,
		"product_id": prod.ID,
		"name":       prod.Name,
		"owner":      prod.OwnerLogin,
		"quantity":   prod.Quantity,
		"price":      prod.Price,
	})
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexProduct(ctx, *prod); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "op", "index", "product_id", prod.ID, "error", err)
	}
}

func (s *InventoryService) ListUsers(ctx context.Context, actor string) ([]models.User, error) {
	user, err := loadActor(ctx, s.Repo, actor)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageUsers(user.Role) {
		return nil, ErrForbidden
	}
	return s.Repo.FetchAllUsers(ctx)
}

func (s *InventoryService) GetUser(ctx context.Context, actor, login string) (*models.User, error) {
	user, err := loadActor(ctx, s.Repo, actor)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewUser(user.Role, actor, login) {
		return nil, ErrForbidden
	}
	if actor == login {
		return user, nil
	}

	target, err := s.Repo.FetchUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return target, nil
}

func (s *InventoryService) UpdateUserRole(ctx context.Context, actor, login, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "inventory.update_user_role", "actor", actor, "login", login)

	user, err := loadActor(ctx, s.Repo, actor)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageUsers(user.Role) {
		return nil, ErrForbidden
	}
	if !policy.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	target, err := s.Repo.FetchUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.Repo.UpdateUserRole(ctx, login, role); err != nil {
		return nil, err
	}
	target.Role = role

	publish(ctx, s.Events, events.TopicUsers, login, map[string]any{
		"type":  "user_role_updated",
		"login": login,
		"role":  role,
		"by":    actor,
	})
	l.Info("update_user_role_success", "role", role)
	return target, nil
}

func (s *InventoryService) QuantityChart(ctx context.Context) ([]ChartBar, error) {
	prods, err := s.Repo.FetchAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	top := 0
	for _, p := range prods {
		if p.Quantity > top {
			top = p.Quantity
		}
	}

	bars := make([]ChartBar, 0, len(prods))
	for _, p := range prods {
		bar := ChartBar{Label: p.Name, Quantity: p.Quantity}
		if top > 0 {
			bar.Percent = float64(p.Quantity) * 100 / float64(top)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
