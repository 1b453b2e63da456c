package publisher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestSanitizeComponent(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		fallback string
		want     string
	}{
		{"通常の名前はそのまま", "my-story", "fallback", "my-story"},
		{"不正文字は_に置換", `a/b\c:d*e`, "fallback", "a_b_c_d_e"},
		{"空白の連続は_1つに", "hello   world", "fallback", "hello_world"},
		{"先頭末尾のドットは除去", "..hidden..", "fallback", "hidden"},
		{"空になったらフォールバック", `///`, "scene-1", "scene-1"},
		{"空文字もフォールバック", "", "untitled", "untitled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeComponent(tc.input, tc.fallback); got != tc.want {
				t.Errorf("期待値 %q, 実際の値 %q", tc.want, got)
			}
		})
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01_scene-1.png")

	t.Run("存在しなければそのまま返ること", func(t *testing.T) {
		if got := UniquePath(path); got != path {
			t.Errorf("期待値 %s, 実際の値 %s", path, got)
		}
	})

	t.Run("衝突したら連番付きのパスになること", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(dir, "01_scene-1_2.png")
		if got := UniquePath(path); got != want {
			t.Errorf("期待値 %s, 実際の値 %s", want, got)
		}

		if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		want3 := filepath.Join(dir, "01_scene-1_3.png")
		if got := UniquePath(path); got != want3 {
			t.Errorf("期待値 %s, 実際の値 %s", want3, got)
		}
	})
}

func TestStoryboardPublisher(t *testing.T) {
	projectDir := t.TempDir()
	pub, err := NewStoryboardPublisher(projectDir, "My Story: Part 1")
	if err != nil {
		t.Fatalf("パブリッシャーの作成に失敗しました: %v", err)
	}

	t.Run("出力ディレクトリ名がサニタイズされること", func(t *testing.T) {
		want := filepath.Join(projectDir, "pictures", "My_Story_Part_1")
		if pub.OutputDir() != want {
			t.Errorf("期待値 %s, 実際の値 %s", want, pub.OutputDir())
		}
	})

	t.Run("画像が連番付きファイル名で保存されること", func(t *testing.T) {
		path, err := pub.SaveImage(1, "scene-1", []byte("image-bytes"))
		if err != nil {
			t.Fatalf("保存に失敗しました: %v", err)
		}
		if filepath.Base(path) != "01_scene-1.png" {
			t.Errorf("ファイル名の期待値 01_scene-1.png, 実際の値 %s", filepath.Base(path))
		}
	})

	t.Run("既存ファイルとの衝突は連番で回避されること", func(t *testing.T) {
		path, err := pub.SaveImage(1, "scene-1", []byte("second"))
		if err != nil {
			t.Fatalf("保存に失敗しました: %v", err)
		}
		if filepath.Base(path) != "01_scene-1_2.png" {
			t.Errorf("ファイル名の期待値 01_scene-1_2.png, 実際の値 %s", filepath.Base(path))
		}
	})

	t.Run("サマリがJSONとして書き出されること", func(t *testing.T) {
		summary := domain.Summary{
			ContentName: "My Story: Part 1",
			ProjectDir:  projectDir,
			OutputDir:   pub.OutputDir(),
			ImageModel:  "gpt-image-1",
			AspectRatio: "16:9",
			Images: []domain.ImageRecord{
				{Index: 1, Title: "scene-1", Prompt: "A cat", File: "01_scene-1.png", Width: 100, Height: 100},
			},
		}
		path, err := pub.WriteSummary(summary)
		if err != nil {
			t.Fatalf("サマリの書き込みに失敗しました: %v", err)
		}
		if filepath.Base(path) != "storyboard.json" {
			t.Errorf("ファイル名の期待値 storyboard.json, 実際の値 %s", filepath.Base(path))
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var restored domain.Summary
		if err := json.Unmarshal(raw, &restored); err != nil {
			t.Fatalf("書き出したサマリが有効なJSONではありません: %v", err)
		}
		if restored.ContentName != summary.ContentName || len(restored.Images) != 1 {
			t.Errorf("復元したサマリが一致しません: %+v", restored)
		}
	})
}
