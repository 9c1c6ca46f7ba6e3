package storefront

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailability(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody graphQLRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"nodes":[
			{"id":"gid://shopify/Product/11","title":"Mug","handle":"mug-blue","status":"ACTIVE",
			 "totalInventory":3,"tracksInventory":true,"featuredImage":{"url":"https://img/mug.png"},
			 "priceRangeV2":{"minVariantPrice":{"amount":"12.50"}}},
			{"id":"gid://shopify/Product/12","title":"Lid","handle":"lid","status":"ACTIVE",
			 "totalInventory":0,"tracksInventory":true,"priceRangeV2":{"minVariantPrice":{"amount":"3"}}},
			null
		]}}`))
	}))
	defer srv.Close()

	repo := NewStorefrontRepository(StorefrontConfig{BaseURL: srv.URL, AccessToken: "tok", APIVersion: "2024-10"})
	got, err := repo.GetAvailability(context.Background(), "shop.example", []string{"11", "12", "13"})
	require.NoError(t, err)

	assert.Equal(t, "tok", gotAuth)
	assert.Equal(t, "/admin/api/2024-10/graphql.json", gotPath)
	assert.Equal(t, []string{"gid://shopify/Product/11", "gid://shopify/Product/12", "gid://shopify/Product/13"}, gotBody.Variables.IDs)

	require.Len(t, got, 2)
	assert.Equal(t, 12.5, got["11"].Price)
	assert.True(t, got["11"].Available)
	assert.Equal(t, "https://img/mug.png", got["11"].Image)
	assert.False(t, got["12"].Available)
}

func TestGetAvailabilityBasicAuth(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{"nodes":[]}}`))
	}))
	defer srv.Close()

	repo := NewStorefrontRepository(StorefrontConfig{BaseURL: srv.URL, APIKey: "key", AccessToken: "secret"})
	_, err := repo.GetAvailability(context.Background(), "s", []string{"1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(auth, "Basic "))
}

func TestGetAvailabilityErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `oops`},
		{"graphql error", http.StatusOK, `{"errors":[{"message":"throttled"}]}`},
		{"bad json", http.StatusOK, `{"data":`},
		{"bad price", http.StatusOK, `{"data":{"nodes":[{"id":"gid://shopify/Product/1","priceRangeV2":{"minVariantPrice":{"amount":"abc"}}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewStorefrontRepository(StorefrontConfig{BaseURL: srv.URL}).
				GetAvailability(context.Background(), "s", []string{"1"})
			assert.Error(t, err)
		})
	}
}

func TestGetAvailabilityEmpty(t *testing.T) {
	got, err := NewStorefrontRepository(StorefrontConfig{BaseURL: "http://unused.invalid"}).
		GetAvailability(context.Background(), "s", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
