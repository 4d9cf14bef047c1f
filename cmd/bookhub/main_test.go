package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulBabatuyi/bookhub/internal/data"
	"github.com/PaulBabatuyi/bookhub/internal/envelope"
)

func TestRunList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope.Write(w, r, http.StatusOK, envelope.OK("", []*data.Listing{
			{Title: "Dune", ListingType: data.ListingSell, Price: 9.5, Condition: data.ConditionGood},
		}))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-url", srv.URL, "list"}, &out))
	assert.Contains(t, out.String(), "Dune")
	assert.Contains(t, out.String(), "9.50")
}

func TestRunDeleteSendsToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		envelope.Write(w, r, http.StatusOK, envelope.OK("Listing deleted", nil))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-url", srv.URL, "-token", "t1", "delete", "abc"}, &out))
	assert.Equal(t, "Bearer t1", auth)
	assert.Contains(t, out.String(), "deleted abc")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), nil, &out))
	assert.Error(t, run(context.Background(), []string{"-url", "http://127.0.0.1:0", "nope"}, &out))
	assert.Error(t, run(context.Background(), []string{"-url", "http://127.0.0.1:0", "show"}, &out))
}
