// Package fdc resolves ingredients against USDA FoodData Central.
//
// A lookup searches foods by name, takes the best match and fetches its
// detail record. Nutrient amounts pass through a closed ID mapping so only
// label nutrients in label units reach the domain, and household measures
// become portions for unit conversion.
package fdc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

// ErrInvalidResponse reports a response that does not match the FDC schema
var ErrInvalidResponse = errors.New("invalid FoodData Central response")

// Client implements outbound.NutrientLookup against the FDC REST API
type Client struct {
	baseURL   string
	apiKey    string
	dataTypes []string
	pageSize  int
	client    *http.Client
	limiter   *rate.Limiter
	validate  *validator.Validate
	logger    *zap.Logger
}

var _ outbound.NutrientLookup = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new FDC client
func NewClient(cfg config.LookupConfig, logger *zap.Logger, opts ...Option) *Client {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 5
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		dataTypes: cfg.DataTypes,
		pageSize:  pageSize,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		validate:  validator.New(),
		logger:    logger.Named("fdc-client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Info("FoodData Central client initialized",
		zap.String("base_url", c.baseURL),
		zap.Strings("data_types", c.dataTypes),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond))

	return c
}

// Lookup resolves an ingredient name to its per-100 g profile and portions
func (c *Client) Lookup(ctx context.Context, ingredient string) (nutrition.Resolution, error) {
	query := strings.TrimSpace(ingredient)
	if query == "" {
		return nutrition.Resolution{}, fmt.Errorf("%w: empty ingredient name", outbound.ErrIngredientNotFound)
	}

	match, err := c.search(ctx, query)
	if err != nil {
		return nutrition.Resolution{}, err
	}

	detail, err := c.food(ctx, match.FdcID)
	if err != nil {
		return nutrition.Resolution{}, err
	}

	res := c.toResolution(detail)
	if res.Profile.IsEmpty() {
		return nutrition.Resolution{}, fmt.Errorf("%w: %q has no label nutrients", outbound.ErrIngredientNotFound, ingredient)
	}

	c.logger.Debug("Ingredient resolved",
		zap.String("ingredient", ingredient),
		zap.Int("fdc_id", detail.FdcID),
		zap.String("description", detail.Description),
		zap.Int("nutrients", res.Profile.Len()),
		zap.Int("portions", len(res.Portions)))

	return res, nil
}

func (c *Client) search(ctx context.Context, query string) (SearchFood, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	if len(c.dataTypes) > 0 {
		params.Set("dataType", strings.Join(c.dataTypes, ","))
	}

	var resp SearchResponse
	if err := c.get(ctx, "/foods/search", params, &resp); err != nil {
		return SearchFood{}, err
	}

	var candidates []SearchFood
	for _, f := range resp.Foods {
		if err := c.validate.Struct(f); err != nil {
			c.logger.Debug("Skipping invalid search hit", zap.Int("fdc_id", f.FdcID), zap.Error(err))
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return SearchFood{}, fmt.Errorf("%w: no FoodData Central match for %q", outbound.ErrIngredientNotFound, query)
	}

	return bestMatch(query, candidates), nil
}

// bestMatch prefers a description equal to the query, then one starting with
// it, then the search ranking
func bestMatch(query string, foods []SearchFood) SearchFood {
	key := recipe.Key(query)
	for _, f := range foods {
		if recipe.Key(f.Description) == key {
			return f
		}
	}
	for _, f := range foods {
		if strings.HasPrefix(recipe.Key(f.Description), key+",") {
			return f
		}
	}
	return foods[0]
}

func (c *Client) food(ctx context.Context, fdcID int) (FoodDetail, error) {
	var detail FoodDetail
	if err := c.get(ctx, "/food/"+strconv.Itoa(fdcID), url.Values{}, &detail); err != nil {
		return FoodDetail{}, err
	}
	if err := c.validate.Struct(detail); err != nil {
		return FoodDetail{}, fmt.Errorf("%w: food %d: %v", ErrInvalidResponse, fdcID, err)
	}
	return detail, nil
}

func (c *Client) toResolution(detail FoodDetail) nutrition.Resolution {
	values := make([]reported, 0, len(detail.FoodNutrients))
	for _, fn := range detail.FoodNutrients {
		if err := c.validate.Struct(fn); err != nil {
			continue
		}
		values = append(values, reported{id: fn.Nutrient.ID, unit: fn.Nutrient.UnitName, amount: *fn.Amount})
	}

	var portions []nutrition.Portion
	for _, fp := range detail.FoodPortions {
		if err := c.validate.Struct(fp); err != nil {
			continue
		}
		portions = append(portions, nutrition.NewPortion(portionName(fp), fp.Amount, fp.GramWeight))
	}
	if p, ok := servingPortion(detail); ok {
		portions = append(portions, p)
	}

	return nutrition.Resolution{
		Profile:     toProfile(values),
		Portions:    portions,
		Source:      "fdc:" + strconv.Itoa(detail.FdcID),
		Description: detail.Description,
	}
}

// portionName picks the most descriptive measure text. SR Legacy portions
// carry it in the modifier with an "undetermined" unit.
func portionName(fp FoodPortion) string {
	unit := strings.TrimSpace(fp.MeasureUnit.Name)
	modifier := strings.TrimSpace(fp.Modifier)
	switch {
	case unit != "" && unit != "undetermined":
		if modifier != "" {
			return unit + ", " + modifier
		}
		return unit
	case modifier != "":
		return modifier
	default:
		return strings.TrimSpace(fp.PortionDescription)
	}
}

// servingPortion turns a branded food's household serving ("2 tbsp" = 30 g)
// into a portion
func servingPortion(detail FoodDetail) (nutrition.Portion, bool) {
	unit := strings.ToLower(detail.ServingSizeUnit)
	if detail.ServingSize <= 0 || (unit != "g" && unit != "grm") {
		return nutrition.Portion{}, false
	}
	household := strings.TrimSpace(detail.HouseholdText)
	if household == "" {
		return nutrition.NewPortion("serving", 1, detail.ServingSize), true
	}
	amount := 1.0
	if q, _, err := recipe.ScanQuantity(household); err == nil && q.Value > 0 {
		amount = q.Value
	}
	return nutrition.NewPortion(household, amount, detail.ServingSize), true
}

// get performs a rate limited GET and decodes a JSON body into out
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", outbound.ErrLookupRateLimited, err)
	}

	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", outbound.ErrLookupUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("FoodData Central request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if err := statusError(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: reading response: %v", outbound.ErrLookupUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// statusError maps FDC status codes onto the lookup error taxonomy
func statusError(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", outbound.ErrIngredientNotFound, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", outbound.ErrLookupRateLimited, code)
	case code >= 500, code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d", outbound.ErrLookupUnavailable, code)
	default:
		return fmt.Errorf("FoodData Central request failed with status %d", code)
	}
}
