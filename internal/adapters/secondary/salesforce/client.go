package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/lorrc/insuredesk-backend/internal/config"
	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// Client is the synchronous CRM query surface. It authenticates with the
// OAuth username-password grant (password concatenated with the security
// token) and issues SOQL queries against the REST API. Login must succeed
// before any query is attempted.
type Client struct {
	httpClient *http.Client
	cfg        config.SalesforceConfig
	logger     *slog.Logger

	mu          sync.RWMutex
	accessToken string
	instanceURL string
}

var _ ports.CRMGateway = (*Client)(nil)

// NewClient creates a CRM client from configuration.
func NewClient(cfg config.SalesforceConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:        cfg,
		logger:     logger.With("component", "salesforce_client"),
	}
}

// Login exchanges the configured credentials for a session token.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"username":      {c.cfg.Username},
		"password":      {c.cfg.Password + c.cfg.SecurityToken},
	}

	endpoint := strings.TrimRight(c.cfg.LoginURL, "/") + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCRMLoginFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("crm login rejected", "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", apperrors.ErrCRMLoginFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		InstanceURL string `json:"instance_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCRMLoginFailed, err)
	}

	c.mu.Lock()
	c.accessToken = body.AccessToken
	c.instanceURL = body.InstanceURL
	c.mu.Unlock()

	c.logger.Info("crm authenticated")
	return nil
}

// Connected reports whether a session token is held.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

// session returns the current token and instance URL.
func (c *Client) session() (token, instance string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.instanceURL
}

// queryResult is the SOQL query response envelope.
type queryResult struct {
	TotalSize int               `json:"totalSize"`
	Records   []json.RawMessage `json:"records"`
}

// query runs a SOQL statement and returns its raw records.
func (c *Client) query(ctx context.Context, soql string) (*queryResult, error) {
	token, instance := c.session()
	if token == "" {
		return nil, apperrors.ErrCRMNotConnected
	}

	endpoint := fmt.Sprintf("%s/services/data/v%s/query?q=%s",
		instance, c.cfg.APIVersion, url.QueryEscape(soql))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("crm query error", "status", resp.StatusCode)
		return nil, fmt.Errorf("crm query returned %d: %w", resp.StatusCode, apperrors.ErrUpstreamStatus)
	}

	var result queryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("crm query: %w: %v", apperrors.ErrMalformedUpstream, err)
	}
	return &result, nil
}

// soqlQuote escapes a string literal for interpolation into SOQL.
func soqlQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// CustomerProfile looks up the contact record holding the given policy
// number.
func (c *Client) CustomerProfile(ctx context.Context, policyNumber string) (*domain.CustomerProfile, error) {
	soql := fmt.Sprintf(
		"SELECT Id, FirstName, LastName, Phone, Email, MailingCity, MailingState, CreatedDate "+
			"FROM Contact WHERE Policy_Number__c = '%s' LIMIT 1", soqlQuote(policyNumber))

	result, err := c.query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperrors.ErrCustomerNotFound
	}

	var contact struct {
		ID           string `json:"Id"`
		FirstName    string `json:"FirstName"`
		LastName     string `json:"LastName"`
		Phone        string `json:"Phone"`
		Email        string `json:"Email"`
		MailingCity  string `json:"MailingCity"`
		MailingState string `json:"MailingState"`
		CreatedDate  string `json:"CreatedDate"`
	}
	if err := json.Unmarshal(result.Records[0], &contact); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedUpstream, err)
	}

	return &domain.CustomerProfile{
		ID:           contact.ID,
		Name:         strings.TrimSpace(contact.FirstName + " " + contact.LastName),
		Phone:        contact.Phone,
		Email:        contact.Email,
		Location:     contact.MailingCity + ", " + contact.MailingState,
		MemberSince:  yearOf(contact.CreatedDate),
		PolicyNumber: policyNumber,
	}, nil
}

// PolicyDetails looks up a policy record by its policy number.
func (c *Client) PolicyDetails(ctx context.Context, policyNumber string) (*domain.PolicyDetails, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Name, Policy_Type__c, Premium_Monthly__c, Deductible__c, "+
			"Coverage_Amount__c, Renewal_Date__c, Payment_Status__c "+
			"FROM Policy__c WHERE Name = '%s' LIMIT 1", soqlQuote(policyNumber))

	result, err := c.query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, apperrors.ErrNotFound
	}

	var policy struct {
		ID             string  `json:"Id"`
		Name           string  `json:"Name"`
		Type           string  `json:"Policy_Type__c"`
		PremiumMonthly float64 `json:"Premium_Monthly__c"`
		Deductible     float64 `json:"Deductible__c"`
		CoverageAmount float64 `json:"Coverage_Amount__c"`
		RenewalDate    string  `json:"Renewal_Date__c"`
		PaymentStatus  string  `json:"Payment_Status__c"`
	}
	if err := json.Unmarshal(result.Records[0], &policy); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedUpstream, err)
	}

	return &domain.PolicyDetails{
		ID:             policy.ID,
		PolicyNumber:   policy.Name,
		Type:           policy.Type,
		PremiumMonthly: policy.PremiumMonthly,
		Deductible:     policy.Deductible,
		CoverageAmount: policy.CoverageAmount,
		RenewalDate:    policy.RenewalDate,
		PaymentStatus:  policy.PaymentStatus,
	}, nil
}

// Claims lists the claim cases filed against a policy, newest first.
func (c *Client) Claims(ctx context.Context, policyID string) ([]domain.Claim, error) {
	soql := fmt.Sprintf(
		"SELECT Id, CaseNumber, Subject, Status, Description, CreatedDate, ClosedDate, Owner.Name "+
			"FROM Case WHERE Policy__c = '%s' AND Type = 'Claim' ORDER BY CreatedDate DESC",
		soqlQuote(policyID))

	result, err := c.query(ctx, soql)
	if err != nil {
		return nil, err
	}

	claims := make([]domain.Claim, 0, len(result.Records))
	for _, raw := range result.Records {
		var record struct {
			ID          string `json:"Id"`
			CaseNumber  string `json:"CaseNumber"`
			Subject     string `json:"Subject"`
			Status      string `json:"Status"`
			Description string `json:"Description"`
			CreatedDate string `json:"CreatedDate"`
			ClosedDate  string `json:"ClosedDate"`
			Owner       *struct {
				Name string `json:"Name"`
			} `json:"Owner"`
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedUpstream, err)
		}

		claim := domain.Claim{
			ID:          record.ID,
			ClaimNumber: record.CaseNumber,
			Subject:     record.Subject,
			Status:      record.Status,
			Description: record.Description,
			FiledDate:   record.CreatedDate,
			ClosedDate:  record.ClosedDate,
		}
		if record.Owner != nil {
			claim.Adjuster = record.Owner.Name
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

// BillingHistory lists the last 12 payments recorded against a policy.
func (c *Client) BillingHistory(ctx context.Context, policyID string) ([]domain.Payment, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Amount, Status, Payment_Date__c, Payment_Method__c "+
			"FROM Payment__c WHERE Policy__c = '%s' ORDER BY Payment_Date__c DESC LIMIT 12",
		soqlQuote(policyID))

	result, err := c.query(ctx, soql)
	if err != nil {
		return nil, err
	}

	payments := make([]domain.Payment, 0, len(result.Records))
	for _, raw := range result.Records {
		var record struct {
			ID     string  `json:"Id"`
			Amount float64 `json:"Amount"`
			Status string  `json:"Status"`
			Date   string  `json:"Payment_Date__c"`
			Method string  `json:"Payment_Method__c"`
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedUpstream, err)
		}
		payments = append(payments, domain.Payment{
			ID:     record.ID,
			Amount: record.Amount,
			Status: record.Status,
			Date:   record.Date,
			Method: record.Method,
		})
	}
	return payments, nil
}

// yearOf extracts the year from a CRM datetime string. Returns zero when
// the value is absent or unparseable.
func yearOf(datetime string) int {
	if len(datetime) < 4 {
		return 0
	}
	year, err := strconv.Atoi(datetime[:4])
	if err != nil {
		return 0
	}
	return year
}
