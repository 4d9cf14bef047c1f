package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulBabatuyi/bookhub/internal/auth"
	"github.com/PaulBabatuyi/bookhub/internal/client"
	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/db"
	"github.com/PaulBabatuyi/bookhub/internal/health"
	"github.com/PaulBabatuyi/bookhub/internal/logging"
	"github.com/PaulBabatuyi/bookhub/internal/middleware"
	"github.com/PaulBabatuyi/bookhub/internal/service"
)

// startStack runs the full HTTP stack against MONGODB_URI.
func startStack(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	dbc, err := db.New(ctx, uri, "bookhub_api_test")
	require.NoError(t, err)
	_ = dbc.UsersCollection().Drop(ctx)
	_ = dbc.ListingsCollection().Drop(ctx)
	require.NoError(t, dbc.CreateIndexes(ctx))
	t.Cleanup(func() {
		_ = dbc.UsersCollection().Drop(context.Background())
		_ = dbc.ListingsCollection().Drop(context.Background())
		_ = dbc.Close(context.Background())
	})

	log := logging.Discard()
	accounts := service.NewAccounts(data.NewUsersStore(dbc.UsersCollection()),
		auth.NewJWTManager("integration-secret", time.Hour),
		auth.NewHasher(auth.AlgoBcrypt, 4), log, service.AccountsOptions{StorageTimeout: 5 * time.Second})
	listings := service.NewListings(data.NewListingsStore(dbc.ListingsCollection()), log, service.ListingsOptions{
		AuthRequired:   true,
		StorageTimeout: 5 * time.Second,
		MaxImageBytes:  1 << 20,
	})
	limiter := middleware.NewLimiterStore(1000, 1000, time.Hour)
	t.Cleanup(limiter.Stop)

	srv := newServer(accounts, listings, health.NewMonitor(dbc, log, time.Minute), limiter, log, serverConfig{
		authRequired: true,
		maxBodyBytes: 2 << 20,
		corsOrigin:   "*",
		staticDir:    t.TempDir(),
	})
	hs := httptest.NewServer(srv.routes())
	t.Cleanup(hs.Close)
	return hs.URL
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.Status
}

func TestIntegration_Accounts(t *testing.T) {
	url := startStack(t)
	ctx := context.Background()
	c := client.New(url)

	res, err := c.Signup(ctx, "  Ann@Example.com ", "secret1", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.Email)
	assert.NotEmpty(t, res.Token)

	_, err = client.New(url).Signup(ctx, "ann@example.com", "secret2", "Other")
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = client.New(url).Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)

	_, errPw := client.New(url).Login(ctx, "ann@example.com", "wrong")
	_, errUser := client.New(url).Login(ctx, "nobody@example.com", "secret1")
	var a, b *client.APIError
	require.ErrorAs(t, errPw, &a)
	require.ErrorAs(t, errUser, &b)
	assert.Equal(t, http.StatusUnauthorized, a.Status)
	assert.Equal(t, *a, *b)
}

func TestIntegration_Listings(t *testing.T) {
	url := startStack(t)
	ctx := context.Background()

	ann := client.New(url, client.WithCacheTTL(0))
	_, err := ann.Signup(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	bob := client.New(url, client.WithCacheTTL(0))
	_, err = bob.Signup(ctx, "bob@example.com", "secret1", "Bob")
	require.NoError(t, err)

	_, err = client.New(url).CreateBook(ctx, service.CreateListingInput{Title: "A", Price: 1})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	var ids []string
	for _, title := range []string{"A", "B", "C"} {
		l, err := ann.CreateBook(ctx, service.CreateListingInput{Title: title, Price: 3, Owner: "Mallory"})
		require.NoError(t, err)
		assert.Equal(t, "Ann", l.Owner.Name)
		assert.Equal(t, "ann@example.com", l.Owner.Email)
		ids = append(ids, l.ID.Hex())
		time.Sleep(5 * time.Millisecond)
	}

	books, err := bob.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{books[0].Title, books[1].Title, books[2].Title})
	for _, b := range books {
		assert.Nil(t, b.Messages)
	}

	img := "data:image/png;base64,iVBORw0KGgo="
	withImg, err := ann.CreateBook(ctx, service.CreateListingInput{Title: "Pic", ListingType: "Exchange", Image: img})
	require.NoError(t, err)
	got, err := bob.GetBook(ctx, withImg.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, img, got.Image)
	assert.Equal(t, data.ListingExchange, got.ListingType)
	assert.Zero(t, got.Price)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := bob.SendMessage(ctx, ids[0], fmt.Sprintf("msg %d", i), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	got, err = ann.GetBook(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, got.Messages, 10)
	assert.Equal(t, "Bob", got.Messages[0].SenderName)

	err = bob.DeleteBook(ctx, ids[0])
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	require.NoError(t, ann.DeleteBook(ctx, ids[0]))
	_, err = bob.GetBook(ctx, ids[0])
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	err = ann.DeleteBook(ctx, ids[0])
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = bob.GetBook(ctx, "not-an-id")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
