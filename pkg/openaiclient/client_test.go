package openaiclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

var fakeImage = []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 4}

func TestGenerateWithB64JSON(t *testing.T) {
	var gotBody GenerationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("エンドポイントの期待値 /images/generations, 実際の値 %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization ヘッダが不正です: %s", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("リクエスト本文の解析に失敗しました: %v", err)
		}
		fmt.Fprintf(w, `{"data":[{"b64_json":%q,"revised_prompt":"a fluffy cat"}]}`,
			base64.StdEncoding.EncodeToString(fakeImage))
	}))
	defer server.Close()

	// 末尾スラッシュは取り除かれる想定です
	client := New(server.URL+"/", "test-key")
	img, err := client.Generate(context.Background(), GenerationRequest{
		Model:  "gpt-image-1",
		Prompt: "A cat",
	})
	if err != nil {
		t.Fatalf("正常なレスポンスでエラーが発生しました: %v", err)
	}

	if string(img.Data) != string(fakeImage) {
		t.Error("b64_json のデコード結果が一致しません")
	}
	if img.RevisedPrompt != "a fluffy cat" {
		t.Errorf("revised_prompt の期待値 'a fluffy cat', 実際の値 '%s'", img.RevisedPrompt)
	}
	if gotBody.Model != "gpt-image-1" || gotBody.Prompt != "A cat" {
		t.Errorf("リクエスト本文が不正です: %+v", gotBody)
	}
}

func TestGenerateWithURLAndDownloadCache(t *testing.T) {
	var downloads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/generations":
			fmt.Fprintf(w, `{"data":[{"url":"http://%s/files/result.png"}]}`, r.Host)
		case "/files/result.png":
			downloads.Add(1)
			w.Write(fakeImage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "test-key")
	for i := 0; i < 2; i++ {
		img, err := client.Generate(context.Background(), GenerationRequest{Model: "m", Prompt: "p"})
		if err != nil {
			t.Fatalf("URL経由の取得に失敗しました: %v", err)
		}
		if string(img.Data) != string(fakeImage) {
			t.Error("ダウンロード結果が一致しません")
		}
	}

	if got := downloads.Load(); got != 1 {
		t.Errorf("同一URLのダウンロード回数の期待値 1, 実際の値 %d", got)
	}
}

func TestGenerateFailures(t *testing.T) {
	t.Run("非200応答は APIError になること", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := New(server.URL, "test-key")
		_, err := client.Generate(context.Background(), GenerationRequest{Model: "m", Prompt: "p"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("APIError が返りませんでした: %v", err)
		}
		if apiErr.StatusCode != http.StatusTooManyRequests {
			t.Errorf("ステータスの期待値 429, 実際の値 %d", apiErr.StatusCode)
		}
	})

	responses := map[string]string{
		"data が空の場合はエラーになること":          `{"data":[]}`,
		"data が無い場合はエラーになること":          `{}`,
		"b64_json も url も無い場合はエラーになること": `{"data":[{"revised_prompt":"x"}]}`,
		"b64_json が壊れている場合はエラーになること":   `{"data":[{"b64_json":"!!!"}]}`,
		"本文がJSONでない場合はエラーになること":        `not json`,
	}
	for name, body := range responses {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer server.Close()

			client := New(server.URL, "test-key")
			if _, err := client.Generate(context.Background(), GenerationRequest{Model: "m", Prompt: "p"}); err == nil {
				t.Error("不正なレスポンスでエラーが発生しませんでした")
			}
		})
	}
}
