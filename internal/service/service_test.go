package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/inventory/internal/db"
	"github.com/Skotchmaster/inventory/internal/models"
	"github.com/Skotchmaster/inventory/internal/repo"
)

type published struct {
	topic string
	key   string
	event map[string]any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	m, _ := event.(map[string]any)
	p.sent = append(p.sent, published{topic: topic, key: key, event: m})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.event["type"].(string))
	}
	return out
}

type fakeIndex struct {
	docs      map[uint]models.Product
	searchErr error
	searched  int
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.docs[p.ID] = p
	return nil
}

func (f *fakeIndex) RemoveProduct(_ context.Context, id uint) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, q string, _ int) ([]models.Product, error) {
	f.searched++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []models.Product{}
	for _, p := range f.docs {
		if p.Name == q {
			out = append(out, p)
		}
	}
	return out, nil
}

type fixture struct {
	auth *AuthService
	inv  *InventoryService
	pub  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	pub := &recordingPublisher{}
	return &fixture{
		auth: &AuthService{
			Repo:             r,
			Events:           pub,
			JWTSecret:        []byte("test-secret"),
			TokenTTL:         time.Minute,
			SessionTTL:       time.Hour,
			AllowSuperSignup: true,
		},
		inv: &InventoryService{Repo: r, Events: pub},
		pub: pub,
	}
}

func (f *fixture) register(t *testing.T, login, password string, super bool) {
	t.Helper()
	_, err := f.auth.Register(context.Background(), login, password, super)
	require.NoError(t, err)
}

func product(name string, qty int, price float64) ProductInput {
	return ProductInput{Name: name, Quantity: qty, Price: price}
}
