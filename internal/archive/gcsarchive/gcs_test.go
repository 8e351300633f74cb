package gcsarchive

import "testing"

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"a/b/", "a/b/"},
		{"/a/b", "a/b/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			WithPrefix(tt.input)(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
			if got := s.key("months/x.json"); got != tt.want+"months/x.json" {
				t.Errorf("key() = %q", got)
			}
		})
	}
}
