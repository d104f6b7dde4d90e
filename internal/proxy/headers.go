package proxy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/xwhep/authgate/internal/token"
)

func InjectHeaders(req *http.Request, claims *token.Claims, claimHeaders map[string]string) {
	for claim, header := range claimHeaders {
		value := claims.Claim(claim)
		if value == nil {
			continue
		}

		headerValue := formatHeaderValue(value)
		if headerValue != "" {
			req.Header.Set(header, headerValue)
		}
	}

	req.Header.Set("X-Auth-Subject", claims.Subject)
	req.Header.Set("X-Auth-Issuer", claims.Issuer)
	if claims.ID != "" {
		req.Header.Set("X-Auth-Token-ID", claims.ID)
	}
}

func formatHeaderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				parts = append(parts, str)
			} else {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
