package branding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNoCredential is returned when Fetch is called without a credential.
	ErrNoCredential = errors.New("branding: no credential")
	// ErrUnavailable wraps transport failures.
	ErrUnavailable = errors.New("branding: endpoint unavailable")
	// ErrRejected is returned for non-2xx responses, including authorization
	// rejections.
	ErrRejected = errors.New("branding: request rejected")
	// ErrMalformed is returned when the payload is not well-formed branding.
	ErrMalformed = errors.New("branding: malformed payload")
)

// DefaultPath is the branding endpoint path on the API origin.
const DefaultPath = "/api/whitelabel/my-branding"

const maxPayloadBytes = 64 << 10

// Fetcher retrieves branding for a bearer credential.
type Fetcher interface {
	Fetch(ctx context.Context, credential string) (Branding, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, credential string) (Branding, error)

func (f FetcherFunc) Fetch(ctx context.Context, credential string) (Branding, error) {
	return f(ctx, credential)
}

// HTTPClient fetches branding from the whitelabel endpoint.
type HTTPClient struct {
	endpoint string
	http     *http.Client
}

// NewHTTPClient targets baseURL+path. A nil hc uses a client with a 10s
// timeout.
func NewHTTPClient(baseURL, path string, hc *http.Client) *HTTPClient {
	if path == "" {
		path = DefaultPath
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(baseURL, "/") + path,
		http:     hc,
	}
}

// Fetch performs one authenticated GET. The underlying request honours ctx.
func (c *HTTPClient) Fetch(ctx context.Context, credential string) (Branding, error) {
	if credential == "" {
		return Branding{}, ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Branding{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Branding{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayloadBytes))
		return Branding{}, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return Branding{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return DecodePayload(body)
}

// Payload is the wire shape of the branding endpoint. Endpoints send the logo
// as companyLogoRef or, like the whitelabel backend, as companyLogo.
type Payload struct {
	CompanyName    *string `json:"companyName"`
	CompanyLogo    *string `json:"companyLogo"`
	CompanyLogoRef *string `json:"companyLogoRef,omitempty"`
}

func (p *Payload) logoRef() string {
	for _, ref := range []*string{p.CompanyLogoRef, p.CompanyLogo} {
		if ref != nil && *ref != "" {
			return *ref
		}
	}
	return ""
}

// DecodePayload parses an endpoint response. companyName must be a non-empty
// string; a logo that is empty or null under both keys means no logo.
func DecodePayload(body []byte) (Branding, error) {
	var p *Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Branding{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p == nil || p.CompanyName == nil || *p.CompanyName == "" {
		return Branding{}, fmt.Errorf("%w: companyName", ErrMalformed)
	}

	b := Branding{CompanyName: *p.CompanyName}
	if ref := p.logoRef(); ref != "" {
		b.CompanyLogoRef = &ref
	}
	return b, nil
}

// EncodePayload renders b in the wire shape.
func EncodePayload(b Branding) ([]byte, error) {
	name := b.CompanyName
	logo := b.LogoRef()
	return json.Marshal(Payload{CompanyName: &name, CompanyLogo: &logo})
}
