package security

import "testing"

func TestTextSanitizer_Clean(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "プレーンテキストはそのまま", input: "Milk", want: "Milk"},
		{name: "前後の空白を除去", input: "  Buy milk \n", want: "Buy milk"},
		{name: "タグを除去", input: "<b>Bold</b> task", want: "Bold task"},
		{name: "scriptは中身ごと除去", input: `<script>alert("x")</script>Groceries`, want: "Groceries"},
		{name: "エンティティを復元", input: "Salt &amp; pepper", want: "Salt & pepper"},
		{name: "記号はエスケープされずに残る", input: "Tom & Jerry's <3", want: "Tom & Jerry's <3"},
		{name: "日本語", input: "  牛乳を買う  ", want: "牛乳を買う"},
		{name: "空白のみは空", input: "   ", want: ""},
		{name: "タグのみは空", input: "<p></p><br>", want: ""},
		{name: "空文字列", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	inputs := []string{"Milk", "<em>eggs</em>", "Salt &amp; pepper", " bread "}
	for _, in := range inputs {
		once := sanitizer.Clean(in)
		twice := sanitizer.Clean(once)
		if once != twice {
			t.Errorf("Clean is not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
