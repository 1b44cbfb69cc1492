// Package usps validates and corrects addresses through the USPS Web Tools
// Address Information API. The API is XML over GET and accepts at most five
// addresses per request.
package usps

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/stefancrain/GeoApi/internal/model"
)

const defaultBaseURL = "https://production.shippingapis.com/ShippingAPI.dll"

// maxPerRequest is the USPS Verify API batch cap.
const maxPerRequest = 5

// Client calls the USPS Address Information API.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a USPS client. An empty baseURL uses production.
func NewClient(userID, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the client is configured with credentials.
func (c *Client) Available() bool { return c.userID != "" }

// Validation is the outcome of validating one address.
type Validation struct {
	Address   *model.Address
	Validated bool
	Footnotes string
	Error     string
}

// verifyRequest is the AddressValidateRequest XML body.
type verifyRequest struct {
	XMLName  xml.Name        `xml:"AddressValidateRequest"`
	UserID   string          `xml:"USERID,attr"`
	Revision int             `xml:"Revision"`
	Address  []verifyAddress `xml:"Address"`
}

type verifyAddress struct {
	ID       string `xml:"ID,attr"`
	Address1 string `xml:"Address1"`
	Address2 string `xml:"Address2"`
	City     string `xml:"City"`
	State    string `xml:"State"`
	Zip5     string `xml:"Zip5"`
	Zip4     string `xml:"Zip4"`
}

type verifyResponse struct {
	XMLName xml.Name       `xml:"AddressValidateResponse"`
	Address []verifyResult `xml:"Address"`
}

type verifyResult struct {
	ID        string      `xml:"ID,attr"`
	Address1  string      `xml:"Address1"`
	Address2  string      `xml:"Address2"`
	City      string      `xml:"City"`
	State     string      `xml:"State"`
	Zip5      string      `xml:"Zip5"`
	Zip4      string      `xml:"Zip4"`
	Footnotes string      `xml:"Footnotes"`
	Error     *uspsError  `xml:"Error"`
}

type uspsError struct {
	Number      string `xml:"Number"`
	Description string `xml:"Description"`
}

// apiError is the top-level error document USPS returns for bad requests.
type apiError struct {
	XMLName     xml.Name `xml:"Error"`
	Number      string   `xml:"Number"`
	Description string   `xml:"Description"`
}

// Validate validates a batch of addresses, preserving input order. Batches
// larger than the API cap are split into sequential requests. A per-address
// USPS error (address not found) yields Validated=false for that slot, not
// a call failure.
func (c *Client) Validate(ctx context.Context, addrs []*model.Address) ([]Validation, error) {
	if !c.Available() {
		return nil, eris.New("usps: user id not configured")
	}

	out := make([]Validation, len(addrs))
	for start := 0; start < len(addrs); start += maxPerRequest {
		end := start + maxPerRequest
		if end > len(addrs) {
			end = len(addrs)
		}
		if err := c.validateChunk(ctx, addrs[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Client) validateChunk(ctx context.Context, addrs []*model.Address, out []Validation) error {
	req := verifyRequest{UserID: c.userID, Revision: 1}
	for i, a := range addrs {
		// USPS swaps the line convention: Address1 is the unit, Address2
		// the street.
		req.Address = append(req.Address, verifyAddress{
			ID:       strconv.Itoa(i),
			Address1: a.Addr2,
			Address2: a.Addr1,
			City:     a.City,
			State:    a.State,
			Zip5:     a.Zip5,
			Zip4:     a.Zip4,
		})
	}

	body, err := c.call(ctx, "Verify", req)
	if err != nil {
		return err
	}

	var resp verifyResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		var topErr apiError
		if xml.Unmarshal(body, &topErr) == nil && topErr.Description != "" {
			return eris.Errorf("usps: %s", strings.TrimSpace(topErr.Description))
		}
		return eris.Wrap(err, "usps: parse verify response")
	}

	for _, r := range resp.Address {
		i, convErr := strconv.Atoi(r.ID)
		if convErr != nil || i < 0 || i >= len(out) {
			continue
		}
		if r.Error != nil {
			out[i] = Validation{Error: strings.TrimSpace(r.Error.Description)}
			continue
		}
		out[i] = Validation{
			Validated: true,
			Footnotes: r.Footnotes,
			Address: &model.Address{
				Addr1: r.Address2,
				Addr2: r.Address1,
				City:  r.City,
				State: r.State,
				Zip5:  r.Zip5,
				Zip4:  r.Zip4,
			},
		}
	}
	return nil
}

// CityState resolves the city and state for a zip code.
func (c *Client) CityState(ctx context.Context, zip5 string) (city, state string, err error) {
	if !c.Available() {
		return "", "", eris.New("usps: user id not configured")
	}

	type cityStateRequest struct {
		XMLName xml.Name `xml:"CityStateLookupRequest"`
		UserID  string   `xml:"USERID,attr"`
		ZipCode struct {
			ID   string `xml:"ID,attr"`
			Zip5 string `xml:"Zip5"`
		} `xml:"ZipCode"`
	}
	type cityStateResponse struct {
		XMLName xml.Name `xml:"CityStateLookupResponse"`
		ZipCode struct {
			City  string     `xml:"City"`
			State string     `xml:"State"`
			Error *uspsError `xml:"Error"`
		} `xml:"ZipCode"`
	}

	req := cityStateRequest{UserID: c.userID}
	req.ZipCode.ID = "0"
	req.ZipCode.Zip5 = zip5

	body, err := c.call(ctx, "CityStateLookup", req)
	if err != nil {
		return "", "", err
	}
	var resp cityStateResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", "", eris.Wrap(err, "usps: parse citystate response")
	}
	if resp.ZipCode.Error != nil {
		return "", "", nil
	}
	return resp.ZipCode.City, resp.ZipCode.State, nil
}

// ZipLookup resolves the zip5/zip4 for a street address.
func (c *Client) ZipLookup(ctx context.Context, addr *model.Address) (zip5, zip4 string, err error) {
	if !c.Available() {
		return "", "", eris.New("usps: user id not configured")
	}

	type zipRequest struct {
		XMLName xml.Name      `xml:"ZipCodeLookupRequest"`
		UserID  string        `xml:"USERID,attr"`
		Address verifyAddress `xml:"Address"`
	}
	type zipResponse struct {
		XMLName xml.Name `xml:"ZipCodeLookupResponse"`
		Address struct {
			Zip5  string     `xml:"Zip5"`
			Zip4  string     `xml:"Zip4"`
			Error *uspsError `xml:"Error"`
		} `xml:"Address"`
	}

	req := zipRequest{UserID: c.userID}
	req.Address = verifyAddress{
		ID:       "0",
		Address1: addr.Addr2,
		Address2: addr.Addr1,
		City:     addr.City,
		State:    addr.State,
	}

	body, err := c.call(ctx, "ZipCodeLookup", req)
	if err != nil {
		return "", "", err
	}
	var resp zipResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", "", eris.Wrap(err, "usps: parse ziplookup response")
	}
	if resp.Address.Error != nil {
		return "", "", nil
	}
	return resp.Address.Zip5, resp.Address.Zip4, nil
}

func (c *Client) call(ctx context.Context, api string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "usps: rate limit")
	}

	xmlBody, err := xml.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "usps: marshal request")
	}
	params := url.Values{
		"API": {api},
		"XML": {string(xmlBody)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "usps: build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "usps: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("usps: returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "usps: read body")
	}
	return body, nil
}
