package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/promoparse/internal/models"
)

// UnknownSourceURLError indicates a submitted URL matches neither
// supported presentation platform.
type UnknownSourceURLError struct {
	URL string
}

func (e *UnknownSourceURLError) Error() string {
	return fmt.Sprintf("cannot determine presentation source for URL: %s", e.URL)
}

// DetectSource maps a presentation URL onto its pipeline platform.
// viewpresentation.com and SAGE Connect links run the SAGE REST
// pipeline; the distributor portal runs the browser-based ESP pipeline.
func DetectSource(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", &UnknownSourceURLError{URL: rawURL}
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.HasSuffix(host, "viewpresentation.com"),
		strings.HasSuffix(host, "sageconnect.sage.com"):
		return models.PlatformSAGE, nil
	case host == "portal.mypromooffice.com",
		strings.HasSuffix(host, ".mypromooffice.com"),
		host == "mypromooffice.com":
		return models.PlatformESP, nil
	default:
		return "", &UnknownSourceURLError{URL: rawURL}
	}
}
