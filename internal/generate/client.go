package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"time"

	_ "golang.org/x/image/webp"
)

// Config describes the images endpoint and the request parameters.
type Config struct {
	Endpoint  string        `json:"endpoint"`
	Model     string        `json:"model"`
	Prompt    string        `json:"prompt"`
	Strength  float64       `json:"strength"`
	Steps     int           `json:"steps"`
	ImageSize string        `json:"image_size"`
	APIKeyEnv string        `json:"api_key_env"`
	Timeout   time.Duration `json:"-"`
}

// DefaultPrompt asks the model to keep the sketch's composition.
const DefaultPrompt = "Strictly preserve the structure and composition of this sketch. " +
	"Colorize and render it into a high-quality digital illustration. " +
	"Maintain the original composition and core subject elements."

// DefaultConfig returns the SiliconFlow image-to-image defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:  "https://api.siliconflow.com/v1/images/generations",
		Model:     "black-forest-labs/FLUX.1-Kontext-dev",
		Prompt:    DefaultPrompt,
		Strength:  0.82,
		Steps:     28,
		ImageSize: "1248x832",
		APIKeyEnv: "SILICONFLOW_API_KEY",
		Timeout:   120 * time.Second,
	}
}

// maxImageBytes caps the downloaded result.
const maxImageBytes = 32 << 20

// Client calls an OpenAI-style images generation endpoint.
type Client struct {
	HTTPClient *http.Client
	Config     Config
	APIKey     string
}

// NewClient creates a Client reading the API key from cfg.APIKeyEnv. A nil
// httpClient gets one with cfg.Timeout.
func NewClient(httpClient *http.Client, cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{HTTPClient: httpClient, Config: cfg, APIKey: key}, nil
}

type generationRequest struct {
	Model     string  `json:"model"`
	Prompt    string  `json:"prompt"`
	Image     string  `json:"image"`
	Strength  float64 `json:"strength"`
	Steps     int     `json:"num_inference_steps"`
	ImageSize string  `json:"image_size"`
}

type generationResponse struct {
	Data []struct {
		URL string `json:"url"`
		B64 string `json:"b64_json"`
	} `json:"data"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// Generate uploads the sketch and downloads the first returned image.
func (c *Client) Generate(ctx context.Context, png []byte) (*Result, error) {
	payload := generationRequest{
		Model:     c.Config.Model,
		Prompt:    c.Config.Prompt,
		Image:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		Strength:  c.Config.Strength,
		Steps:     c.Config.Steps,
		ImageSize: c.Config.ImageSize,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation request: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch {
	case len(out.Data) > 0 && out.Data[0].URL != "":
		return c.download(ctx, out.Data[0].URL)
	case len(out.Data) > 0 && out.Data[0].B64 != "":
		raw, err := base64.StdEncoding.DecodeString(out.Data[0].B64)
		if err != nil {
			return nil, fmt.Errorf("decoding inline image: %w", err)
		}
		img, err := Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		return &Result{Image: img}, nil
	case len(out.Images) > 0 && out.Images[0].URL != "":
		return c.download(ctx, out.Images[0].URL)
	default:
		return nil, ErrEmptyResult
	}
}

func (c *Client) download(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading result: status %d", resp.StatusCode)
	}

	img, err := Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}
	return &Result{URL: url, Image: img}, nil
}

// Decode decodes a PNG, JPEG or WebP image.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding result image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s image: %w", format, ErrEmptyResult)
	}
	return img, nil
}
