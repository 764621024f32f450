// Package fatsecret implements the food database client on the FatSecret
// Platform REST API, authenticated with OAuth2 client credentials.
package fatsecret

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/papercomputeco/platelog/pkg/state"
)

const defaultTimeout = 15 * time.Second

// Client calls the platform API. The oauth2 transport caches and refreshes
// the access token transparently.
type Client struct {
	target string
	client *http.Client
	logger *zap.Logger
}

// Config is the configuration options for the FatSecret client.
type Config struct {
	// Target is the API endpoint, e.g.
	// https://platform.fatsecret.com/rest/server.api.
	Target string

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	ClientID     string
	ClientSecret string
	Logger       *zap.Logger
}

// New creates a FatSecret client.
func New(c *Config) (*Client, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("fatsecret: target required")
	}
	if c.TokenURL == "" {
		return nil, fmt.Errorf("fatsecret: token url required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("fatsecret: client credentials required")
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	creds := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       []string{"basic"},
	}
	httpClient := creds.Client(context.Background())
	httpClient.Timeout = defaultTimeout

	return &Client{
		target: c.Target,
		client: httpClient,
		logger: c.Logger,
	}, nil
}

// SearchFoods runs foods.search and returns up to maxResults candidates.
func (c *Client) SearchFoods(ctx context.Context, query string, maxResults int) ([]state.Candidate, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	params := url.Values{
		"method":            {"foods.search"},
		"search_expression": {query},
		"max_results":       {strconv.Itoa(maxResults)},
		"format":            {"json"},
	}

	var parsed searchResponse
	if err := c.call(ctx, params, &parsed); err != nil {
		return nil, fmt.Errorf("searching foods: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("searching foods: %s (code %d)", parsed.Error.Message, parsed.Error.Code)
	}

	candidates := make([]state.Candidate, 0, len(parsed.Foods.Food))
	for _, f := range parsed.Foods.Food {
		candidates = append(candidates, state.Candidate{
			ID:    f.ID,
			Name:  f.Name,
			Brand: f.Brand,
			Type:  f.Type,
		})
	}
	c.logger.Debug("food search",
		zap.String("query", query), zap.Int("results", len(candidates)))
	return candidates, nil
}

// GetServings runs food.get.v2 and returns the food's serving options.
func (c *Client) GetServings(ctx context.Context, foodID string) ([]state.Serving, error) {
	params := url.Values{
		"method":  {"food.get.v2"},
		"food_id": {foodID},
		"format":  {"json"},
	}

	var parsed foodResponse
	if err := c.call(ctx, params, &parsed); err != nil {
		return nil, fmt.Errorf("getting servings: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("getting servings: %s (code %d)", parsed.Error.Message, parsed.Error.Code)
	}

	servings := make([]state.Serving, 0, len(parsed.Food.Servings.Serving))
	for _, sv := range parsed.Food.Servings.Serving {
		servings = append(servings, state.Serving{
			ID:           sv.ID,
			Description:  sv.Description,
			MetricAmount: sv.MetricAmount.ptr(),
			MetricUnit:   strings.ToLower(sv.MetricUnit),
			Nutrition: state.Nutrition{
				Calories:     sv.Calories.ptr(),
				Protein:      sv.Protein.ptr(),
				Carbohydrate: sv.Carbohydrate.ptr(),
				Fat:          sv.Fat.ptr(),
				SaturatedFat: sv.SaturatedFat.ptr(),
				Fiber:        sv.Fiber.ptr(),
				Sugar:        sv.Sugar.ptr(),
				Sodium:       sv.Sodium.ptr(),
			},
		})
	}
	return servings, nil
}

func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target,
		strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
