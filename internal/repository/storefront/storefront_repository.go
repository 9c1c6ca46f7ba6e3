package storefront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"basketReco/business/reco"
	"basketReco/domain"

	"github.com/goccy/go-json"
	"github.com/pobyzaarif/goshortcute"
)

type StorefrontConfig struct {
	// BaseURL overrides the per-shop host, mostly for tests and proxies.
	BaseURL     string
	AccessToken string
	APIKey      string
	APIVersion  string
	Timeout     time.Duration
}

type StorefrontRepository struct {
	cfg    StorefrontConfig
	client *http.Client
}

var _ reco.AvailabilityRepository = (*StorefrontRepository)(nil)

func NewStorefrontRepository(cfg StorefrontConfig) *StorefrontRepository {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-10"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &StorefrontRepository{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

const productsQuery = `query Availability($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Product {
      id
      title
      handle
      status
      totalInventory
      tracksInventory
      featuredImage { url }
      priceRangeV2 { minVariantPrice { amount } }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables queryVariables `json:"variables"`
}

type queryVariables struct {
	IDs []string `json:"ids"`
}

type productsResponse struct {
	Data struct {
		Nodes []*productNode `json:"nodes"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type productNode struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Handle          string `json:"handle"`
	Status          string `json:"status"`
	TotalInventory  int    `json:"totalInventory"`
	TracksInventory bool   `json:"tracksInventory"`
	FeaturedImage   *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	PriceRangeV2 struct {
		MinVariantPrice struct {
			Amount string `json:"amount"`
		} `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
}

func (n productNode) toAvailability() (domain.ProductAvailability, error) {
	id, ok := domain.ParseProductID(n.ID)
	if !ok {
		return domain.ProductAvailability{}, fmt.Errorf("unexpected product id %q", n.ID)
	}

	price := 0.0
	if amount := n.PriceRangeV2.MinVariantPrice.Amount; amount != "" {
		v, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			return domain.ProductAvailability{}, fmt.Errorf("product %s: bad price %q: %w", id, amount, err)
		}
		price = v
	}

	a := domain.ProductAvailability{
		ID:        id,
		Title:     n.Title,
		Handle:    n.Handle,
		Price:     price,
		Available: strings.EqualFold(n.Status, "ACTIVE") && (!n.TracksInventory || n.TotalInventory > 0),
	}
	if n.FeaturedImage != nil {
		a.Image = n.FeaturedImage.URL
	}
	return a, nil
}

// GetAvailability asks the storefront admin API for a shortlist of products.
// Nodes that are missing or not products are left out of the result.
func (r *StorefrontRepository) GetAvailability(ctx context.Context, shop string, productIDs []string) (map[string]domain.ProductAvailability, error) {
	out := make(map[string]domain.ProductAvailability, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	gids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		gids = append(gids, "gid://shopify/Product/"+id)
	}

	payloadByte, err := json.Marshal(graphQLRequest{
		Query:     productsQuery,
		Variables: queryVariables{IDs: gids},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint(shop), bytes.NewReader(payloadByte))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		buildBasicAuth := goshortcute.StringtoBase64Encode(r.cfg.APIKey + ":" + r.cfg.AccessToken)
		req.Header.Add("Authorization", "Basic "+buildBasicAuth)
	} else if r.cfg.AccessToken != "" {
		req.Header.Add("X-Shopify-Access-Token", r.cfg.AccessToken)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read storefront response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("storefront returned negative response %v", res.StatusCode)
	}

	var parsed productsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode storefront response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("storefront query error: %s", parsed.Errors[0].Message)
	}

	for _, node := range parsed.Data.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		a, err := node.toAvailability()
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, nil
}

func (r *StorefrontRepository) endpoint(shop string) string {
	base := strings.TrimRight(r.cfg.BaseURL, "/")
	if base == "" {
		base = "https://" + shop
	}
	return base + "/admin/api/" + r.cfg.APIVersion + "/graphql.json"
}
