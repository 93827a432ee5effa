package genai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

func setupProxyRouter(upstreamURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	NewProxy(upstreamURL, "gemini-1.5-mini", tokens).RegisterRoutes(router)
	return router
}

func postGenerate(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/gemini/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestGenerate_MissingPrompt(t *testing.T) {
	router := setupProxyRouter("http://unused.invalid")

	for _, body := range []string{`{}`, `{"prompt": ""}`, `not json`} {
		w := postGenerate(router, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status 400, got %d", body, w.Code)
		}
		var resp map[string]string
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["error"] != "Missing prompt" {
			t.Errorf("body %q: expected Missing prompt, got %q", body, resp["error"])
		}
	}
}

func TestGenerate_ForwardsUpstreamResponse(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"output":"stay indoors"}]}`))
	}))
	defer upstream.Close()

	router := setupProxyRouter(upstream.URL)
	w := postGenerate(router, `{"prompt": "what should I do in a flood?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "stay indoors") {
		t.Errorf("expected upstream body passed through, got %q", w.Body.String())
	}

	if gotPath != "/models/gemini-1.5-mini:generateText" {
		t.Errorf("unexpected upstream path %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if prompt, ok := gotBody["prompt"].(map[string]any); !ok || prompt["text"] != "what should I do in a flood?" {
		t.Errorf("unexpected upstream prompt: %v", gotBody["prompt"])
	}
	if gotBody["maxOutputTokens"] != float64(1024) {
		t.Errorf("expected default maxOutputTokens 1024, got %v", gotBody["maxOutputTokens"])
	}
}

func TestGenerate_ClientOverridesModelAndTokens(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	router := setupProxyRouter(upstream.URL)
	w := postGenerate(router, `{
		"prompt": "hi",
		"model": "gemini-pro",
		"generationConfig": {"maxOutputTokens": 256}
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotPath != "/models/gemini-pro:generateText" {
		t.Errorf("unexpected upstream path %q", gotPath)
	}
	if gotBody["maxOutputTokens"] != float64(256) {
		t.Errorf("expected maxOutputTokens 256, got %v", gotBody["maxOutputTokens"])
	}
}

func TestGenerate_UpstreamErrorForwarded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "quota exceeded"}`))
	}))
	defer upstream.Close()

	router := setupProxyRouter(upstream.URL)
	w := postGenerate(router, `{"prompt": "hi"}`)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	inner, ok := resp["error"].(map[string]any)
	if !ok || inner["message"] != "quota exceeded" {
		t.Errorf("expected upstream body wrapped as error, got %v", resp["error"])
	}
}

func TestGenerate_UnreachableUpstreamIsServerError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	router := setupProxyRouter(url)
	w := postGenerate(router, `{"prompt": "hi"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Server error" {
		t.Errorf("expected Server error, got %q", resp["error"])
	}
}
