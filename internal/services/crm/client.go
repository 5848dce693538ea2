// -----------------------------------------------------------------------
// CRM Client - item master, estimate and document operations against the
// books REST API, authenticated via OAuth2 client credentials
// -----------------------------------------------------------------------

package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/models"
)

// APIError is a CRM-level failure: either an HTTP error status or a
// non-zero code in the response envelope.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CRM API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client implements the CRM integration. Items are matched strictly by
// SKU so partial matches never overwrite a different product.
type Client struct {
	config   *common.CRMConfig
	client   *http.Client
	download *http.Client
	limiter  *rate.Limiter
	logger   arbor.ILogger

	mu          sync.Mutex
	fieldCache  map[string]string
	accountByID map[string]string
}

// NewClient creates a CRM client. The OAuth2 token source refreshes
// access tokens transparently.
func NewClient(config *common.CRMConfig, logger arbor.ILogger) (*Client, error) {
	if config.BaseURL == "" || config.TokenURL == "" {
		return nil, fmt.Errorf("CRM base URL and token URL are required")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("CRM client credentials are required")
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	creds := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.TokenURL,
	}

	return &Client{
		config:      config,
		client:      creds.Client(context.Background()),
		download:    &http.Client{Timeout: 60 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		logger:      logger,
		accountByID: make(map[string]string),
	}, nil
}

// envelope is the code/message pair every CRM response carries alongside
// its payload. code 0 means success.
type envelope struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("organization_id", c.config.OrgID)

	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + path + "?" + params.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal CRM request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build CRM request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// doMultipart uploads file content as a multipart form.
func (c *Client) doMultipart(ctx context.Context, path string, params url.Values, field, filename string, content []byte, extra map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("organization_id", c.config.OrgID)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to write multipart content: %w", err)
	}
	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write multipart field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to build CRM request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("CRM API call failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read CRM response: %w", err)
	}

	var env envelope
	if len(data) > 0 {
		json.Unmarshal(data, &env)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Code: intValue(env.Code), Message: env.Message}
	}
	if env.Code != nil && *env.Code != 0 {
		return &APIError{StatusCode: resp.StatusCode, Code: *env.Code, Message: env.Message}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("invalid CRM response: %w", err)
		}
	}
	return nil
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

type contact struct {
	ContactID     string `json:"contact_id"`
	ContactName   string `json:"contact_name"`
	CompanyName   string `json:"company_name"`
	ContactNumber string `json:"contact_number"`
}

// SearchCustomer resolves a customer account by company name. Exact
// company matches win; otherwise the first search hit is used.
func (c *Client) SearchCustomer(ctx context.Context, company string) (string, error) {
	params := url.Values{}
	params.Set("search_text", company)
	params.Set("contact_type", "customer")

	var result struct {
		Contacts []contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts", params, nil, &result); err != nil {
		return "", err
	}
	if len(result.Contacts) == 0 {
		return "", fmt.Errorf("no customer found for %q", company)
	}

	match := result.Contacts[0]
	for _, candidate := range result.Contacts {
		if strings.EqualFold(candidate.CompanyName, company) || strings.EqualFold(candidate.ContactName, company) {
			match = candidate
			break
		}
	}

	c.mu.Lock()
	c.accountByID[match.ContactID] = extractNumericAccount(match.ContactNumber)
	c.mu.Unlock()

	c.logger.Info().
		Str("company", company).
		Str("customer_id", match.ContactID).
		Msg("Resolved CRM customer")

	return match.ContactID, nil
}

// accountNumber returns the numeric account number for a customer,
// fetching the contact if it was not seen via SearchCustomer.
func (c *Client) accountNumber(ctx context.Context, customerID string) (string, error) {
	c.mu.Lock()
	account, ok := c.accountByID[customerID]
	c.mu.Unlock()
	if ok {
		return account, nil
	}

	var result struct {
		Contact contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts/"+customerID, nil, nil, &result); err != nil {
		return "", err
	}

	account = extractNumericAccount(result.Contact.ContactNumber)
	c.mu.Lock()
	c.accountByID[customerID] = account
	c.mu.Unlock()
	return account, nil
}

// DiscoverFields fetches the item custom-field layout and matches it
// against the known label patterns. Only fields that actually exist come
// back, so upserts never reference a missing field.
func (c *Client) DiscoverFields(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	if c.fieldCache != nil {
		cached := c.fieldCache
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("entity", "item")

	var result struct {
		CustomFields []struct {
			CustomFieldID string `json:"customfield_id"`
			Label         string `json:"label"`
			FieldName     string `json:"field_name"`
		} `json:"customfields"`
	}
	if err := c.do(ctx, http.MethodGet, "/settings/customfields", params, nil, &result); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	for name, patterns := range fieldPatterns {
		for _, cf := range result.CustomFields {
			label := strings.ToLower(cf.Label)
			fieldName := strings.ToLower(cf.FieldName)
			matched := false
			for _, pattern := range patterns {
				if strings.Contains(label, pattern) || strings.Contains(fieldName, pattern) {
					matched = true
					break
				}
			}
			if matched {
				fields[name] = cf.CustomFieldID
				break
			}
		}
	}

	c.logger.Debug().Int("matched", len(fields)).Msg("Discovered CRM custom fields")

	c.mu.Lock()
	c.fieldCache = fields
	c.mu.Unlock()
	return fields, nil
}

type itemResponse struct {
	Item struct {
		ItemID string `json:"item_id"`
		Name   string `json:"name"`
		SKU    string `json:"sku"`
	} `json:"item"`
}

// UpsertItem creates or updates one item keyed by SKU and returns its
// link. The SKU is <client account number>-<vendor SKU>.
func (c *Client) UpsertItem(ctx context.Context, customerID string, product *models.UnifiedProduct) (string, error) {
	account, err := c.accountNumber(ctx, customerID)
	if err != nil {
		return "", err
	}

	vendorSKU := productSKU(product)
	if vendorSKU == "" {
		return "", fmt.Errorf("product %q has no usable SKU", product.Item.Name)
	}
	sku := buildSKU(account, vendorSKU)

	fields, err := c.DiscoverFields(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Custom field discovery failed, uploading core fields only")
		fields = map[string]string{}
	}

	payload := buildItemPayload(product, sku, fields)

	existingID, err := c.findItemBySKU(ctx, sku)
	if err != nil {
		return "", err
	}

	var result itemResponse
	if existingID != "" {
		c.logger.Info().Str("sku", sku).Str("item_id", existingID).Msg("Updating existing CRM item")
		err = c.do(ctx, http.MethodPut, "/items/"+existingID, nil, payload, &result)
	} else {
		c.logger.Info().Str("sku", sku).Msg("Creating CRM item")
		err = c.do(ctx, http.MethodPost, "/items", nil, payload, &result)
	}
	if err != nil {
		return "", err
	}

	return c.resourceLink("/items/" + result.Item.ItemID), nil
}

// findItemBySKU looks for an existing item with an exact SKU match.
// Loose matching is deliberately avoided: a miss means create, not
// overwrite something that happens to share SKU components.
func (c *Client) findItemBySKU(ctx context.Context, sku string) (string, error) {
	params := url.Values{}
	params.Set("sku", sku)

	var result struct {
		Items []struct {
			ItemID string `json:"item_id"`
			SKU    string `json:"sku"`
		} `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/items", params, nil, &result); err != nil {
		return "", err
	}

	for _, item := range result.Items {
		if item.SKU == sku {
			return item.ItemID, nil
		}
	}
	return "", nil
}

// UploadImage downloads a product image and attaches it to an item.
func (c *Client) UploadImage(ctx context.Context, itemID string, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("invalid image URL %s: %w", imageURL, err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download image %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download returned status %d for %s", resp.StatusCode, imageURL)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", imageURL, err)
	}

	filename := imageFilename(imageURL)
	return c.doMultipart(ctx, "/items/"+itemID+"/image", nil, "image", filename, content, nil, nil)
}

type estimateResponse struct {
	Estimate struct {
		EstimateID     string  `json:"estimate_id"`
		EstimateNumber string  `json:"estimate_number"`
		Total          float64 `json:"total"`
	} `json:"estimate"`
}

// CreateQuote creates a draft estimate covering the products and returns
// its link.
func (c *Client) CreateQuote(ctx context.Context, customerID string, output *models.UnifiedOutput) (string, error) {
	payload, err := buildEstimatePayload(output, customerID, time.Now().UTC())
	if err != nil {
		return "", err
	}

	var result estimateResponse
	if err := c.do(ctx, http.MethodPost, "/estimates", nil, payload, &result); err != nil {
		return "", err
	}

	c.logger.Info().
		Str("estimate_number", result.Estimate.EstimateNumber).
		Float64("total", result.Estimate.Total).
		Msg("Created draft quote")

	return c.resourceLink("/estimates/" + result.Estimate.EstimateID), nil
}

// UploadFile attaches a local document to the customer record and
// returns its link.
func (c *Client) UploadFile(ctx context.Context, customerID string, localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	var result struct {
		Document struct {
			DocumentID string `json:"document_id"`
		} `json:"document"`
	}
	extra := map[string]string{"customer_id": customerID}
	if err := c.doMultipart(ctx, "/documents", nil, "document", filepath.Base(localPath), content, extra, &result); err != nil {
		return "", err
	}

	c.logger.Info().
		Str("file", filepath.Base(localPath)).
		Str("document_id", result.Document.DocumentID).
		Msg("Uploaded document to CRM")

	return c.resourceLink("/documents/" + result.Document.DocumentID), nil
}

func (c *Client) resourceLink(path string) string {
	return strings.TrimSuffix(c.config.BaseURL, "/") + path
}

func imageFilename(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "image.jpg"
	}
	name := filepath.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "image.jpg"
	}
	return name
}
