package module

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// WebModule performs HTTP GET/POST with a cookie jar shared across
// requests within one task, the same per-domain persistence
// web_module.rs's hand-rolled map gave the original — here backed by
// net/http/cookiejar with a public-suffix list so subdomain
// scoping matches browser semantics instead of a flat domain string.
type WebModule struct {
	client *http.Client
}

// NewWebModule builds a WebModule with its own cookie jar and a
// bounded per-request timeout.
func NewWebModule() (*WebModule, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &WebModule{client: &http.Client{Jar: jar, Timeout: 30 * time.Second}}, nil
}

func (m *WebModule) Name() string { return "web" }

func (m *WebModule) Execute(ctx context.Context, action string, args []string) (string, error) {
	switch action {
	case "get", "get.store":
		if len(args) < 1 {
			return "", missingArg("web", action, "<url>")
		}
		return m.do(ctx, http.MethodGet, args[0], "")
	case "post":
		if len(args) < 2 {
			return "", missingArg("web", "post", "<url> <data>")
		}
		return m.do(ctx, http.MethodPost, args[0], args[1])
	default:
		return "", unknownAction("web", action, []string{"get", "get.store", "post"})
	}
}

func (m *WebModule) do(ctx context.Context, method, url, body string) (string, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "building request: %v", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", taskerrors.NewModuleError(taskerrors.ModuleTransportFailure, "reading response body: %v", err)
	}

	return "STATUS: " + resp.Status + "\n\n" + string(respBody), nil
}
