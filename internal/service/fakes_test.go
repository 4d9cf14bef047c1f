package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/bookhub/internal/data"
)

// memUsers is an in-memory UserStore keyed by email.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*data.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*data.User{}} }

func (m *memUsers) CreateUser(ctx context.Context, email, name, hash string) (*data.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, data.ErrDuplicateEmail
	}
	u := &data.User{ID: bson.NewObjectID(), Email: email, Name: name, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[email] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (*data.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, data.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// memListings mimics ListingsStore, including the summary projection and an
// atomic append.
type memListings struct {
	mu       sync.Mutex
	listings map[bson.ObjectID]*data.Listing
	clock    time.Time
}

func newMemListings() *memListings {
	return &memListings{listings: map[bson.ObjectID]*data.Listing{}, clock: time.Now()}
}

func (m *memListings) CreateListing(ctx context.Context, l *data.Listing) (*data.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = bson.NewObjectID()
	m.clock = m.clock.Add(time.Millisecond)
	l.CreatedAt = m.clock
	cp := *l
	m.listings[l.ID] = &cp
	return l, nil
}

func (m *memListings) ListListings(ctx context.Context) ([]*data.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*data.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		cp := *l
		cp.Messages = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memListings) GetListing(ctx context.Context, id bson.ObjectID) (*data.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	cp := *l
	cp.Messages = append([]data.Message(nil), l.Messages...)
	return &cp, nil
}

func (m *memListings) DeleteListing(ctx context.Context, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[id]; !ok {
		return data.ErrNotFound
	}
	delete(m.listings, id)
	return nil
}

func (m *memListings) AppendMessage(ctx context.Context, id bson.ObjectID, msg data.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return data.ErrNotFound
	}
	l.Messages = append(l.Messages, msg)
	return nil
}

// mockListings is used where a test needs to script store failures.
type mockListings struct{ mock.Mock }

func (m *mockListings) CreateListing(ctx context.Context, l *data.Listing) (*data.Listing, error) {
	args := m.Called(ctx, l)
	if v := args.Get(0); v != nil {
		return v.(*data.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockListings) ListListings(ctx context.Context) ([]*data.Listing, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*data.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockListings) GetListing(ctx context.Context, id bson.ObjectID) (*data.Listing, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*data.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockListings) DeleteListing(ctx context.Context, id bson.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockListings) AppendMessage(ctx context.Context, id bson.ObjectID, msg data.Message) error {
	return m.Called(ctx, id, msg).Error(0)
}
