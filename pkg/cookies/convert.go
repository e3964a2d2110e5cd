package cookies

import (
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"

	"github.com/camofleet/camofleet/pkg/logging"
)

// EditorCookie is one record from a Cookie-Editor browser extension export.
type EditorCookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	ExpirationDate *float64 `json:"expirationDate"`
	HTTPOnly       bool     `json:"httpOnly"`
	Secure         bool     `json:"secure"`
	Session        bool     `json:"session"`
	SameSite       string   `json:"sameSite"`
}

// ConvertEditorCookies converts Cookie-Editor export records into playwright
// cookies. Records missing any of name, value, domain, or path are skipped
// with a warning rather than failing the whole batch.
func ConvertEditorCookies(records []EditorCookie, log *logging.Logger) []playwright.OptionalCookie {
	converted := make([]playwright.OptionalCookie, 0, len(records))

	for _, record := range records {
		if record.Name == "" || record.Value == "" || record.Domain == "" || record.Path == "" {
			if log != nil {
				log.Warnf("Skipping incomplete cookie record (name=%q domain=%q)", record.Name, record.Domain)
			}
			continue
		}

		cookie := playwright.OptionalCookie{
			Name:     record.Name,
			Value:    record.Value,
			Domain:   lo.ToPtr(record.Domain),
			Path:     lo.ToPtr(record.Path),
			HttpOnly: lo.ToPtr(record.HTTPOnly),
			Secure:   lo.ToPtr(record.Secure),
		}

		// Session cookies and records without an expiry become session-scoped.
		if record.Session || record.ExpirationDate == nil {
			cookie.Expires = lo.ToPtr(-1.0)
		} else {
			cookie.Expires = lo.ToPtr(float64(int64(*record.ExpirationDate)))
		}

		if attr := convertSameSite(record.SameSite); attr != nil {
			cookie.SameSite = attr
		}

		converted = append(converted, cookie)
	}

	return converted
}

// convertSameSite maps the extension's sameSite vocabulary onto playwright's.
func convertSameSite(value string) *playwright.SameSiteAttribute {
	switch strings.ToLower(value) {
	case "no_restriction":
		return playwright.SameSiteAttributeNone
	case "lax", "unspecified":
		return playwright.SameSiteAttributeLax
	case "strict":
		return playwright.SameSiteAttributeStrict
	default:
		return nil
	}
}

// ParseCookieString converts a "name1=value1; name2=value2" cookie header
// string into playwright cookies scoped to defaultDomain. Malformed pairs are
// skipped with a warning. The key=value format carries no attribute
// information, so converted cookies default to session-scoped, Secure, and
// SameSite Lax.
func ParseCookieString(kv string, defaultDomain string, log *logging.Logger) []playwright.OptionalCookie {
	var converted []playwright.OptionalCookie

	for _, pair := range strings.Split(kv, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, value, found := strings.Cut(pair, "=")
		if !found {
			if log != nil {
				log.Warnf("Skipping malformed cookie pair %q", pair)
			}
			continue
		}

		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			if log != nil {
				log.Warnf("Skipping cookie pair with empty name %q", pair)
			}
			continue
		}

		converted = append(converted, playwright.OptionalCookie{
			Name:     name,
			Value:    value,
			Domain:   lo.ToPtr(defaultDomain),
			Path:     lo.ToPtr("/"),
			Expires:  lo.ToPtr(-1.0),
			HttpOnly: lo.ToPtr(false),
			Secure:   lo.ToPtr(true),
			SameSite: playwright.SameSiteAttributeLax,
		})
	}

	return converted
}

// DomainForHost derives the default cookie domain for a target host,
// e.g. "app.example.com" -> ".app.example.com". Returns "" for a blank host.
func DomainForHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, ".") {
		return host
	}
	return "." + host
}
