// Package openaiclient は OpenAI 互換の /images/generations エンドポイントを
// 呼び出すための小さなクライアントです。リトライは行いません。
// 失敗はそのままバッチ全体の失敗としてエラーを返します。
package openaiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTimeout は生成呼び出しとURL取得に共通のタイムアウトです。
const DefaultTimeout = 180 * time.Second

// APIError は HTTP レベルの失敗（非200応答）を表します。
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d when calling %s: %s", e.StatusCode, e.URL, e.Body)
}

// GenerationRequest は /images/generations へ送るリクエスト本文です。
// 空のオプションフィールドは送信されません。
type GenerationRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Size        string `json:"size,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Style       string `json:"style,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// GeneratedImage は生成された画像のデコード済みバイト列と付随情報です。
type GeneratedImage struct {
	Data          []byte
	RevisedPrompt string
}

// Client は Bearer トークン認証で画像生成APIを呼び出します。
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	downloads  *gocache.Cache // 同一URLの画像を二度取得しないためのキャッシュ
}

// New はクライアントを生成します。baseURL の末尾のスラッシュは取り除かれます。
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		downloads:  gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Generate はプロンプト1件分の画像を生成し、生バイト列の所有権を呼び出し側へ渡します。
// レスポンスの先頭エントリのみを使い、b64_json のデコードまたは url からの
// ダウンロードで画像本体を取得します。
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*GeneratedImage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト本文の直列化に失敗しました: %w", err)
	}

	endpoint := c.baseURL + "/images/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s の呼び出しに失敗しました: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗しました: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: endpoint, Body: string(respBody)}
	}

	var parsed generationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("レスポンスJSONの解析に失敗しました: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("画像生成レスポンスに data が含まれていません")
	}

	first := parsed.Data[0]
	if first.B64JSON != "" {
		raw, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("b64_json のデコードに失敗しました: %w", err)
		}
		return &GeneratedImage{Data: raw, RevisedPrompt: first.RevisedPrompt}, nil
	}
	if first.URL != "" {
		raw, err := c.download(ctx, first.URL)
		if err != nil {
			return nil, err
		}
		return &GeneratedImage{Data: raw, RevisedPrompt: first.RevisedPrompt}, nil
	}
	return nil, fmt.Errorf("画像データに b64_json も url も含まれていません")
}

// download は画像URLから本体を取得します。プロバイダによっては複数シーンで
// 同じURLを返すことがあるため、バッチ内キャッシュで再取得を避けます。
func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	if cached, ok := c.downloads.Get(imageURL); ok {
		return cached.([]byte), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("画像取得リクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("画像のダウンロードに失敗しました (%s): %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: imageURL, Body: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("画像本体の読み取りに失敗しました: %w", err)
	}
	c.downloads.Set(imageURL, data, gocache.DefaultExpiration)
	return data, nil
}
