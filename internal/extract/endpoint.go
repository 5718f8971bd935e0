package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"teralink/internal/config"
	"teralink/internal/httputil"
)

// Kind selects how a mirror endpoint is called.
type Kind int

const (
	// Submit endpoints take a JSON POST of {"url": target}.
	Submit Kind = iota
	// Template endpoints take a GET with the target substituted into the address.
	Template
)

func (k Kind) String() string {
	switch k {
	case Submit:
		return config.KindSubmit
	case Template:
		return config.KindTemplate
	default:
		return "unknown"
	}
}

// ParseKind converts a configured kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case config.KindSubmit:
		return Submit, nil
	case config.KindTemplate:
		return Template, nil
	default:
		return 0, fmt.Errorf("unknown endpoint kind %q", s)
	}
}

// Endpoint is one mirror in the fallback list.
type Endpoint struct {
	Kind    Kind
	Address string
}

func (e Endpoint) String() string {
	return e.Kind.String() + " " + e.Address
}

type submitRequest struct {
	URL string `json:"url"`
}

// newRequest builds the outbound request for target. Both kinds carry the
// same header set.
func (e Endpoint) newRequest(ctx context.Context, target string, headers map[string]string) (*http.Request, error) {
	var req *http.Request
	var err error

	switch e.Kind {
	case Submit:
		body, merr := json.Marshal(submitRequest{URL: target})
		if merr != nil {
			return nil, fmt.Errorf("encoding request: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, e.Address, bytes.NewReader(body))
	case Template:
		addr := strings.Replace(e.Address, config.Placeholder, url.QueryEscape(target), 1)
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	default:
		return nil, fmt.Errorf("unknown endpoint kind %d", e.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httputil.SetHeaders(req, headers)
	return req, nil
}

// EndpointsFromConfig converts configured endpoints, preserving order.
func EndpointsFromConfig(cfgs []config.EndpointConfig) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(cfgs))
	for i, c := range cfgs {
		kind, err := ParseKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("endpoint %d: %w", i, err)
		}
		endpoints = append(endpoints, Endpoint{Kind: kind, Address: c.Address})
	}
	return endpoints, nil
}
