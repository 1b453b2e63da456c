package imagemeta

import "testing"

func TestParseRatio(t *testing.T) {
	t.Run("正常な形式を解析できること", func(t *testing.T) {
		ratio, err := ParseRatio("16:9")
		if err != nil {
			t.Fatalf("正常な入力でエラーが発生しました: %v", err)
		}
		if ratio.Width != 16 || ratio.Height != 9 {
			t.Errorf("期待値 16:9, 実際の値 %s", ratio)
		}
	})

	t.Run("前後の空白は許容されること", func(t *testing.T) {
		if _, err := ParseRatio("  4:3 "); err != nil {
			t.Errorf("空白付き入力でエラーが発生しました: %v", err)
		}
	})

	invalid := []string{"", "16x9", "16:9:4", "0:9", "16:0", "1000:9", "abc", ":", "16:"}
	for _, value := range invalid {
		t.Run("不正な値 '"+value+"' は拒否されること", func(t *testing.T) {
			if _, err := ParseRatio(value); err == nil {
				t.Errorf("不正な値 %q が受理されました", value)
			}
		})
	}
}

func TestRatioMismatch(t *testing.T) {
	sixteenNine := Ratio{Width: 16, Height: 9}

	cases := []struct {
		name string
		dims Dimensions
		want bool
	}{
		{"正方形は16:9からずれていること", Dimensions{Width: 1024, Height: 1024}, true},
		{"1920x1080は16:9に一致すること", Dimensions{Width: 1920, Height: 1080}, false},
		{"許容率内のわずかなずれは一致扱いになること", Dimensions{Width: 1920, Height: 1082}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sixteenNine.Mismatch(tc.dims, DefaultMismatchTolerance)
			if got != tc.want {
				t.Errorf("%dx%d: 期待値 %v, 実際の値 %v", tc.dims.Width, tc.dims.Height, tc.want, got)
			}
		})
	}
}

func TestSimplifyRatio(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{1920, 1080, "16:9"},
		{1024, 1024, "1:1"},
		{1024, 768, "4:3"},
		{100, 80, "5:4"},
	}
	for _, tc := range cases {
		if got := SimplifyRatio(tc.width, tc.height); got != tc.want {
			t.Errorf("%dx%d: 期待値 %s, 実際の値 %s", tc.width, tc.height, tc.want, got)
		}
	}
}

func TestSuggestSize(t *testing.T) {
	cases := []struct {
		ratio Ratio
		want  string
	}{
		{Ratio{Width: 16, Height: 9}, "1024x576"},
		{Ratio{Width: 4, Height: 3}, "1024x768"},
		{Ratio{Width: 1, Height: 1}, "1024x1024"},
		// 683へ丸めた後、偶数へ切り上げられます
		{Ratio{Width: 3, Height: 2}, "1024x684"},
		// 極端な横長でも最小2が保証されます
		{Ratio{Width: 999, Height: 1}, "1024x2"},
	}
	for _, tc := range cases {
		t.Run(tc.ratio.String(), func(t *testing.T) {
			if got := SuggestSize(tc.ratio); got != tc.want {
				t.Errorf("期待値 %s, 実際の値 %s", tc.want, got)
			}
		})
	}
}
