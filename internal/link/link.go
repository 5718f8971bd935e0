// Package link validates Terabox share links and rewrites them onto the
// canonical host the mirror endpoints recognize.
package link

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"teralink/internal/httputil"
)

// ErrInvalidLink is returned for any URL the validator rejects.
var ErrInvalidLink = errors.New("invalid terabox URL")

// shareIDPattern matches the share token in either the /s/<token> path form
// or the surl=<token> query form.
var shareIDPattern = regexp.MustCompile(`/s/(\w+)|surl=(\w+)`)

// Validator checks links against an allow-list of hosts.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	hosts     map[string]struct{}
	canonical string
}

// NewValidator creates a Validator accepting the given hosts and rewriting
// them onto canonical.
func NewValidator(hosts []string, canonical string) *Validator {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		set[strings.ToLower(h)] = struct{}{}
	}
	return &Validator{hosts: set, canonical: canonical}
}

// Validate checks rawURL and returns it with the host replaced by the
// canonical host. Scheme, path and query are preserved.
func (v *Validator) Validate(rawURL string) (string, error) {
	u, err := httputil.ValidateURL(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	if u.User != nil {
		return "", fmt.Errorf("%w: credentials in URL", ErrInvalidLink)
	}

	if _, ok := v.hosts[strings.ToLower(u.Host)]; !ok {
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidLink, u.Host)
	}

	if !shareIDPattern.MatchString(u.Path) && !shareIDPattern.MatchString(u.RawQuery) {
		return "", fmt.Errorf("%w: no share ID in %q", ErrInvalidLink, u.Path)
	}

	u.Host = v.canonical
	return u.String(), nil
}

// ShareID returns the share token embedded in a link, or "" if none is found.
func ShareID(rawURL string) string {
	m := shareIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
