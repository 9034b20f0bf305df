package notebooklm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
	"github.com/shouta-dev/notebooklm-go/nlmtypes"
)

// allowedCookieDomains are the domains whose cookies are forwarded to the
// backend. Everything else in the browser profile is dropped.
var allowedCookieDomains = []string{
	".google.com",
	"google.com",
	"notebooklm.google.com",
}

// requiredCookies is the minimum Google auth cookie set; a storage state
// missing any of these cannot authenticate.
var requiredCookies = []string{"SID", "HSID", "SSID", "APISID", "SAPISID"}

// Token extraction patterns for the application page. The CSRF token
// ("SNlM0e") and session id ("FdrFJe") live in an inline script blob.
var (
	csrfPattern      = regexp.MustCompile(`"SNlM0e"\s*:\s*"([^"]+)"`)
	sessionIDPattern = regexp.MustCompile(`"FdrFJe"\s*:\s*"([^"]+)"`)
)

// storageState is the Playwright browser storage-state JSON layout, reduced
// to the part this module reads.
type storageState struct {
	Cookies []struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Domain string `json:"domain"`
	} `json:"cookies"`
}

// LoadCredentials reads a browser storage-state file and builds Credentials
// from its cookies. Cookies outside the Google domains are dropped; a file
// missing the required auth cookies fails with ErrMissingCookies.
//
// The CSRF token and session id are not part of the storage state — they
// come from the application page and must be set on the returned
// Credentials separately (see ExtractCSRFToken, ExtractSessionID).
func LoadCredentials(fsys fs.Filesystem, path string) (*nlmtypes.Credentials, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, nlmerrors.NewError("loadCredentials", err)
	}

	var state storageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nlmerrors.NewError("loadCredentials", err)
	}

	cookies, err := extractCookies(&state)
	if err != nil {
		return nil, nlmerrors.NewError("loadCredentials", err)
	}
	return &nlmtypes.Credentials{Cookies: cookies}, nil
}

// extractCookies filters a storage state down to the Google auth cookies and
// verifies the minimum required set is present.
func extractCookies(state *storageState) (map[string]string, error) {
	cookies := make(map[string]string)
	for _, c := range state.Cookies {
		if cookieDomainAllowed(c.Domain) {
			cookies[c.Name] = c.Value
		}
	}

	var missing []string
	for _, name := range requiredCookies {
		if _, ok := cookies[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", nlmerrors.ErrMissingCookies, strings.Join(missing, ", "))
	}
	return cookies, nil
}

func cookieDomainAllowed(domain string) bool {
	for _, allowed := range allowedCookieDomains {
		if domain == allowed || strings.HasSuffix(domain, ".google.com") {
			return true
		}
	}
	return false
}

// ExtractCSRFToken pulls the anti-forgery token out of the application
// page's HTML. Every RPC call sends it back in the `at` body field.
func ExtractCSRFToken(html string) (string, error) {
	m := csrfPattern.FindStringSubmatch(html)
	if m == nil {
		return "", fmt.Errorf("%w: CSRF token", nlmerrors.ErrTokenNotFound)
	}
	return m[1], nil
}

// ExtractSessionID pulls the per-page session id out of the application
// page's HTML.
func ExtractSessionID(html string) (string, error) {
	m := sessionIDPattern.FindStringSubmatch(html)
	if m == nil {
		return "", fmt.Errorf("%w: session id", nlmerrors.ErrTokenNotFound)
	}
	return m[1], nil
}
