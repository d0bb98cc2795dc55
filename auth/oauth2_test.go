package auth

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-seo-reports/core"
)

type stubDoer struct {
	status      int
	body        string
	contentType string
	lastReq     *http.Request
	lastForm    string
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.lastReq = req
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		d.lastForm = string(raw)
	}
	contentType := d.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &http.Response{
		StatusCode: d.status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

func testApp() core.OAuthApp {
	return core.OAuthApp{
		Provider:     "google",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://reports.example.com/oauth/callback",
		TokenURL:     "https://oauth2.googleapis.com/token",
	}
}

func TestRefreshTokenSendsFormAndBasicAuth(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusOK,
		body:   `{"access_token":"new-access","refresh_token":"new-refresh","token_type":"bearer","expires_in":1799,"scope":"analytics"}`,
	}
	client := NewOAuth2Client(doer)

	payload, err := client.RefreshToken(context.Background(), testApp(), "old-refresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.AccessToken != "new-access" || payload.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.ExpiresIn != 1799 {
		t.Fatalf("unexpected expires_in: %d", payload.ExpiresIn)
	}
	if payload.TokenType != "Bearer" {
		t.Fatalf("expected normalized token type, got %q", payload.TokenType)
	}

	for _, fragment := range []string{"grant_type=refresh_token", "refresh_token=old-refresh", "client_id=client-id"} {
		if !strings.Contains(doer.lastForm, fragment) {
			t.Fatalf("form missing %q: %s", fragment, doer.lastForm)
		}
	}
	username, password, ok := doer.lastReq.BasicAuth()
	if !ok || username != "client-id" || password != "client-secret" {
		t.Fatal("expected client credentials via basic auth")
	}
}

func TestRefreshTokenSecretInBody(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, body: `{"access_token":"token"}`}
	client := NewOAuth2Client(doer)
	client.ClientSecretInBody = true

	if _, err := client.RefreshToken(context.Background(), testApp(), "refresh"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doer.lastForm, "client_secret=client-secret") {
		t.Fatalf("expected secret in body: %s", doer.lastForm)
	}
	if _, _, ok := doer.lastReq.BasicAuth(); ok {
		t.Fatal("expected no basic auth header")
	}
}

func TestExchangeCodeIncludesRedirectURI(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, body: `{"access_token":"token","expires_in":3600}`}
	client := NewOAuth2Client(doer)

	if _, err := client.ExchangeCode(context.Background(), testApp(), "auth-code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, fragment := range []string{"grant_type=authorization_code", "code=auth-code", "redirect_uri="} {
		if !strings.Contains(doer.lastForm, fragment) {
			t.Fatalf("form missing %q: %s", fragment, doer.lastForm)
		}
	}
}

func TestFetchTokenSurfacesOAuthError(t *testing.T) {
	doer := &stubDoer{
		status: http.StatusBadRequest,
		body:   `{"error":"invalid_grant","error_description":"Token has been revoked."}`,
	}
	client := NewOAuth2Client(doer)

	_, err := client.RefreshToken(context.Background(), testApp(), "revoked")
	if err == nil || !strings.Contains(err.Error(), "Token has been revoked.") {
		t.Fatalf("expected revocation detail, got %v", err)
	}
}

func TestFetchTokenParsesFormEncodedResponse(t *testing.T) {
	doer := &stubDoer{
		status:      http.StatusOK,
		body:        "access_token=token&token_type=bearer&expires_in=900",
		contentType: "application/x-www-form-urlencoded",
	}
	client := NewOAuth2Client(doer)

	payload, err := client.RefreshToken(context.Background(), testApp(), "refresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.AccessToken != "token" || payload.ExpiresIn != 900 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRefreshTokenRequiresRefreshToken(t *testing.T) {
	client := NewOAuth2Client(&stubDoer{status: http.StatusOK, body: `{}`})
	if _, err := client.RefreshToken(context.Background(), testApp(), "  "); err == nil {
		t.Fatal("expected error for empty refresh token")
	}
}

func TestBasicAuthHeader(t *testing.T) {
	header := BasicAuthHeader("ck_key", "cs_secret")
	if !strings.HasPrefix(header, "Basic ") {
		t.Fatalf("unexpected header: %s", header)
	}
	if BearerHeader(" token ") != "Bearer token" {
		t.Fatal("expected trimmed bearer header")
	}
}
