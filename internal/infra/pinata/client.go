// internal/infra/pinata/client.go
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Pinata の pinning API を叩く実装。
// 画像 → pinFileToIPFS、metadata JSON → pinJSONToIPFS の二段アップロード。
type Client struct {
	client     *http.Client
	baseURL    string // 例: "https://api.pinata.cloud"
	gatewayURL string // 例: "https://gateway.pinata.cloud/ipfs"

	// API credentials。必ず設定経由で渡すこと（ソースに埋め込まない）。
	apiKey    string
	secretKey string
}

var (
	ErrNotConfigured = errors.New("pinata: api credentials not configured")
	ErrEmptyBody     = errors.New("pinata: nothing to upload")
)

const (
	DefaultBaseURL    = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs"
)

// NewClient は Pinata 用クライアントを生成します。
// baseURL / gatewayURL が空の場合はデフォルトの Pinata エンドポイントを使います。
func NewClient(baseURL, gatewayURL, apiKey, secretKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	gatewayURL = strings.TrimRight(strings.TrimSpace(gatewayURL), "/")
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}

	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    baseURL,
		gatewayURL: gatewayURL,
		apiKey:     strings.TrimSpace(apiKey),
		secretKey:  strings.TrimSpace(secretKey),
	}
}

// TokenMetadata is the JSON document pinned for a token.
// Shape expected by wallets/explorers: {name, symbol, description, image}.
type TokenMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// pinResponse は pinFileToIPFS / pinJSONToIPFS 共通のレスポンス。
type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile は画像などのバイナリを pinFileToIPFS にアップロードし、
// gateway 経由の URI を返します。
func (c *Client) PinFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	if c == nil || c.apiKey == "" || c.secretKey == "" {
		return "", ErrNotConfigured
	}
	if r == nil {
		return "", ErrEmptyBody
	}
	if strings.TrimSpace(filename) == "" {
		filename = "file"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("pinata: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("pinata: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("pinata: close multipart: %w", err)
	}

	log.Printf("[pinata] PinFile start name=%s size=%d", filename, body.Len())
	return c.pin(ctx, "/pinning/pinFileToIPFS", mw.FormDataContentType(), &body)
}

// PinJSON は metadata JSON を pinJSONToIPFS にアップロードし、
// gateway 経由の URI を返します。PinFile で得た URI を meta.Image に入れてから呼ぶこと。
func (c *Client) PinJSON(ctx context.Context, meta TokenMetadata) (string, error) {
	if c == nil || c.apiKey == "" || c.secretKey == "" {
		return "", ErrNotConfigured
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("pinata: marshal metadata: %w", err)
	}

	log.Printf("[pinata] PinJSON start name=%s len=%d", meta.Name, len(data))
	return c.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(data))
}

func (c *Client) pin(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("pinata: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[pinata] http request FAILED path=%s err=%v", path, err)
		return "", fmt.Errorf("pinata: upload: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[pinata] upload FAILED path=%s status=%d body=%s", path, resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("pinata: upload failed: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var res pinResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("pinata: decode response: %w", err)
	}
	if res.IpfsHash == "" {
		return "", fmt.Errorf("pinata: response has empty IpfsHash body=%s", string(bodyBytes))
	}

	uri := c.gatewayURL + "/" + res.IpfsHash
	log.Printf("[pinata] upload OK path=%s uri=%s", path, uri)
	return uri, nil
}
