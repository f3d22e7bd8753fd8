package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/httpclient"
	"blogpilot/internal/markdown"
	"blogpilot/internal/models"
)

// PlatformClient uploads posts to one blog's publishing API. When the blog
// carries OAuth2 refresh credentials the client renews its access token on
// demand; otherwise the static token from the config is used as-is.
type PlatformClient struct {
	blog   config.Blog
	client *httpclient.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPlatformClient builds a client for the given blog.
func NewPlatformClient(blog config.Blog) *PlatformClient {
	return &PlatformClient{
		blog:   blog,
		client: httpclient.New(30 * time.Second),
	}
}

type publishRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
	Tags     string `json:"tags,omitempty"`
}

type publishResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Publish uploads the post body as HTML and returns the public URL the
// platform assigned to it. An expired access token is refreshed and the
// upload retried once.
func (p *PlatformClient) Publish(ctx context.Context, post *models.Post) (string, error) {
	if p.blog.APIBase == "" {
		return "", fmt.Errorf("blog %s has no api_base configured", p.blog.ID)
	}

	req := publishRequest{
		Title:    post.Title,
		Content:  markdown.ToHTML(post.Body),
		Category: post.Category,
		Tags:     post.Keyword,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode post: %w", err)
	}

	resp, err := p.upload(ctx, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized && p.canRefresh() {
		resp.Body.Close()
		if err := p.refreshToken(ctx); err != nil {
			return "", err
		}
		resp, err = p.upload(ctx, payload)
		if err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pr publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("failed to decode publish response: %w", err)
	}
	if pr.URL == "" {
		return "", fmt.Errorf("platform response contained no url")
	}
	return pr.URL, nil
}

func (p *PlatformClient) upload(ctx context.Context, payload []byte) (*http.Response, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	endpoint := strings.TrimRight(p.blog.APIBase, "/") + "/posts"
	resp, err := p.client.Post(ctx, endpoint, bytes.NewReader(payload), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to publish to %s: %w", p.blog.ID, err)
	}
	return resp, nil
}

func (p *PlatformClient) canRefresh() bool {
	return p.blog.TokenURL != "" && p.blog.RefreshToken != ""
}

// token returns the current access token, refreshing it first when the
// cached one is missing or expired.
func (p *PlatformClient) token(ctx context.Context) (string, error) {
	if !p.canRefresh() {
		return p.blog.Token, nil
	}
	p.mu.Lock()
	valid := p.accessToken != "" && time.Now().Before(p.tokenExpiry)
	tok := p.accessToken
	p.mu.Unlock()
	if valid {
		return tok, nil
	}
	if err := p.refreshToken(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accessToken, nil
}

func (p *PlatformClient) refreshToken(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {p.blog.RefreshToken},
		"client_id":     {p.blog.ClientID},
		"client_secret": {p.blog.ClientSecret},
	}
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	resp, err := p.client.Post(ctx, p.blog.TokenURL, strings.NewReader(form.Encode()), headers)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("token response contained no access_token")
	}
	expires := time.Duration(tr.ExpiresIn) * time.Second
	if expires <= 0 {
		expires = time.Hour
	}
	p.mu.Lock()
	p.accessToken = tr.AccessToken
	// Renew a minute early so in-flight uploads do not race the expiry.
	p.tokenExpiry = time.Now().Add(expires - time.Minute)
	p.mu.Unlock()
	return nil
}
