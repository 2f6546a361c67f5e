package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "runs/abc.json", want: "runs/abc.json"},
		{name: "simple prefix", prefix: "archive", key: "runs/abc.json", want: "archive/runs/abc.json"},
		{name: "prefix trailing slash", prefix: "archive/", key: "runs/abc.json", want: "archive/runs/abc.json"},
		{name: "prefix and key slashes", prefix: "/archive/", key: "/runs/abc.json", want: "archive/runs/abc.json"},
		{name: "nested prefix", prefix: "archive/v1", key: "runs/abc.json", want: "archive/v1/runs/abc.json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	t.Parallel()

	if got := normalizePrefix("  /archive/ "); got != "archive" {
		t.Fatalf("normalizePrefix = %q, want %q", got, "archive")
	}
}
