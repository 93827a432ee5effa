// Package genai proxies text-generation requests to the upstream provider,
// keeping credentials on the server side.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultBaseURL is the upstream generative-language API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta2"

const defaultMaxOutputTokens = 1024

type GenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type generateRequest struct {
	Prompt           string            `json:"prompt"`
	Model            string            `json:"model"`
	GenerationConfig *GenerationConfig `json:"generationConfig"`
}

// DefaultTokenSource builds a token source from the ambient cloud
// credentials.
func DefaultTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return google.DefaultTokenSource(ctx, "https://www.googleapis.com/auth/cloud-platform")
}

type Proxy struct {
	client  *resty.Client
	baseURL string
	model   string
	tokens  oauth2.TokenSource
}

// NewProxy builds a proxy using model as the default when the client omits
// one. baseURL falls back to DefaultBaseURL when empty.
func NewProxy(baseURL, model string, tokens oauth2.TokenSource) *Proxy {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Proxy{
		client:  resty.New().SetTimeout(60 * time.Second),
		baseURL: baseURL,
		model:   model,
		tokens:  tokens,
	}
}

func (p *Proxy) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/gemini/generate", p.generate)
}

func (p *Proxy) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt"})
		return
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := defaultMaxOutputTokens
	if req.GenerationConfig != nil && req.GenerationConfig.MaxOutputTokens > 0 {
		maxTokens = req.GenerationConfig.MaxOutputTokens
	}

	if p.tokens == nil {
		slog.Error("no upstream token source configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	token, err := p.tokens.Token()
	if err != nil {
		slog.Error("failed to obtain upstream token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateText", p.baseURL, url.PathEscape(model))
	resp, err := p.client.R().
		SetContext(c.Request.Context()).
		SetAuthToken(token.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"prompt":          map[string]string{"text": req.Prompt},
			"maxOutputTokens": maxTokens,
		}).
		Post(endpoint)
	if err != nil {
		slog.Error("upstream generate call failed", "model", model, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if resp.IsError() {
		// Forward the upstream status with its body wrapped as the error.
		var body any
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			body = string(resp.Body())
		}
		c.JSON(resp.StatusCode(), gin.H{"error": body})
		return
	}

	c.Data(http.StatusOK, "application/json", resp.Body())
}
