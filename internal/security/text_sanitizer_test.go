package security

import "testing"

func TestSanitizeText_StripsHTMLTags(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "The Matrix", "The Matrix"},
		{"タグを除去", "<b>Inception</b>", "Inception"},
		{"scriptタグを除去", "<script>alert(1)</script>Interstellar", "Interstellar"},
		{"imgタグを除去", `<img src=x onerror=alert(1)>Dune`, "Dune"},
		{"アンパサンドは保持", "Fast & Furious", "Fast & Furious"},
		{"前後の空白を除去", "  Blade Runner  ", "Blade Runner"},
		{"空文字列", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := "<i>2001: A Space Odyssey</i> & more"
	once := s.SanitizeText(input)
	twice := s.SanitizeText(once)
	if once != twice {
		t.Errorf("sanitize not idempotent: once=%q twice=%q", once, twice)
	}
}
