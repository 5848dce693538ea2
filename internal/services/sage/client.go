// -----------------------------------------------------------------------
// SAGE Connect Client - presentation (serviceId 301) and full product
// detail (serviceId 105) calls against the SAGE REST API
// -----------------------------------------------------------------------

package sage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/models"
)

const (
	servicePresentation  = 301
	serviceProductDetail = 105
	apiVersion           = 130

	// errFullDetailNotEnabled is returned when the account lacks the
	// Full Product Detail service. Presentation costs stand in.
	errFullDetailNotEnabled = "10010"
)

// APIError is a SAGE-level error (ok=false envelope).
type APIError struct {
	Num string
	Msg string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SAGE API error %s: %s", e.Num, e.Msg)
}

// Client calls the SAGE Connect API. All calls share one rate limiter
// so per-product enrichment loops cannot hammer the endpoint.
type Client struct {
	config  *common.SAGEConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewClient creates a SAGE Connect client from configuration.
func NewClient(config *common.SAGEConfig, logger arbor.ILogger) (*Client, error) {
	if config.AcctID == 0 || config.LoginID == "" || config.APIKey == "" {
		return nil, fmt.Errorf("SAGE credentials are required (acct_id, login_id, api_key)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}, nil
}

// auth is the credential block every SAGE request carries.
type auth struct {
	AcctID  int    `json:"acctId"`
	LoginID string `json:"loginId"`
	Key     string `json:"key"`
}

type presentationRequest struct {
	ServiceID int    `json:"serviceId"`
	APIVer    int    `json:"apiVer"`
	Auth      auth   `json:"auth"`
	Search    search `json:"search"`
}

type search struct {
	PresID []string `json:"presId"`
}

type detailRequest struct {
	ServiceID       int    `json:"serviceId"`
	APIVer          int    `json:"apiVer"`
	Auth            auth   `json:"auth"`
	ProdEID         string `json:"prodEId"`
	IncludeSuppInfo int    `json:"includeSuppInfo"`
}

// apiResponse covers the envelope variants SAGE returns: the
// presentation API wraps results in ok/presentations, the detail API
// returns a bare product object, and errors carry errNum/errMsg.
type apiResponse struct {
	OK            *bool             `json:"ok"`
	ErrNum        string            `json:"errNum"`
	ErrMsg        string            `json:"errMsg"`
	Presentations []rawPresentation `json:"presentations"`
	Product       *rawDetail        `json:"product"`
}

func (c *Client) buildAuth() auth {
	return auth{
		AcctID:  c.config.AcctID,
		LoginID: c.config.LoginID,
		Key:     c.config.APIKey,
	}
}

func (c *Client) call(ctx context.Context, payload interface{}) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SAGE request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build SAGE request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SAGE API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SAGE API returned status %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("invalid SAGE API response: %w", err)
	}

	if result.OK != nil && !*result.OK {
		return nil, &APIError{Num: result.ErrNum, Msg: result.ErrMsg}
	}
	if result.OK == nil && result.Product == nil && len(result.Presentations) == 0 {
		return nil, fmt.Errorf("SAGE API unexpected response shape")
	}

	return &result, nil
}

// GetPresentation fetches a presentation by ID and parses it into the
// raw SAGE output shape.
func (c *Client) GetPresentation(ctx context.Context, presID string) (*models.SAGEOutput, error) {
	c.logger.Info().Str("pres_id", presID).Msg("Fetching SAGE presentation")

	result, err := c.call(ctx, presentationRequest{
		ServiceID: servicePresentation,
		APIVer:    apiVersion,
		Auth:      c.buildAuth(),
		Search:    search{PresID: []string{presID}},
	})
	if err != nil {
		return nil, err
	}

	if len(result.Presentations) == 0 {
		return nil, fmt.Errorf("presentation %s not found", presID)
	}

	output := parsePresentation(&result.Presentations[0])

	c.logger.Info().
		Str("pres_id", presID).
		Int("products", len(output.Products)).
		Msg("SAGE presentation fetched")

	return output, nil
}

// GetProductDetail fetches full detail for one product and merges the
// authoritative cost, theme and decoration fields into it. Products
// without an encrypted ID or SPC are left untouched.
func (c *Client) GetProductDetail(ctx context.Context, product *models.SAGEProduct) error {
	prodEID := ""
	if product.EncryptedProdID != nil {
		prodEID = *product.EncryptedProdID
	} else if product.SPC != nil {
		prodEID = *product.SPC
	}
	if prodEID == "" {
		c.logger.Debug().Str("product", product.Name).Msg("No encrypted prod ID or SPC, skipping detail lookup")
		return nil
	}

	result, err := c.call(ctx, detailRequest{
		ServiceID:       serviceProductDetail,
		APIVer:          apiVersion,
		Auth:            c.buildAuth(),
		ProdEID:         prodEID,
		IncludeSuppInfo: 0,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Num == errFullDetailNotEnabled {
			c.logger.Warn().Str("product", product.Name).Msg("Full Product Detail not enabled, keeping presentation costs")
			return nil
		}
		return err
	}
	if result.Product == nil {
		return fmt.Errorf("no product detail returned for %s", prodEID)
	}

	mergeDetail(product, result.Product)
	return nil
}
