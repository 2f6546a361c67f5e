package extraction

import "testing"

func TestExtractDomainsGroupsAndDeduplicates(t *testing.T) {
	text := "Sources: https://example.com/a, https://example.com/b and https://example.com/a. Also https://other.org/x."

	domains := ExtractDomains(text)
	if len(domains) != 2 {
		t.Fatalf("domains = %+v, want 2 groups", domains)
	}

	first := domains[0]
	if first.Domain != "example.com" {
		t.Fatalf("first domain = %q, want example.com (highest count)", first.Domain)
	}
	if first.Count != 3 {
		t.Errorf("example.com count = %d, want 3 occurrences", first.Count)
	}
	if len(first.URLs) != 2 {
		t.Errorf("example.com urls = %v, want 2 deduplicated", first.URLs)
	}

	if domains[1].Domain != "other.org" || domains[1].Count != 1 {
		t.Errorf("second group = %+v, want other.org/1", domains[1])
	}
}

func TestExtractDomainsStripsTrailingPunctuation(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"See https://example.com/pricing.", "https://example.com/pricing"},
		{"(https://example.com/a)", "https://example.com/a"},
		{"Link: https://example.com/b;", "https://example.com/b"},
		{"\"https://example.com/c\"", "https://example.com/c"},
	}
	for _, tt := range tests {
		domains := ExtractDomains(tt.text)
		if len(domains) != 1 || len(domains[0].URLs) != 1 {
			t.Fatalf("ExtractDomains(%q) = %+v", tt.text, domains)
		}
		if got := domains[0].URLs[0]; got != tt.want {
			t.Errorf("url from %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractDomainsDropsWWWAndLowercases(t *testing.T) {
	domains := ExtractDomains("https://WWW.Example.COM/Path and http://example.com/other")
	if len(domains) != 1 {
		t.Fatalf("domains = %+v, want www and bare host merged", domains)
	}
	if domains[0].Domain != "example.com" {
		t.Errorf("domain = %q, want example.com", domains[0].Domain)
	}
	if domains[0].Count != 2 {
		t.Errorf("count = %d, want 2", domains[0].Count)
	}
}

func TestExtractDomainsIgnoresOtherSchemes(t *testing.T) {
	domains := ExtractDomains("ftp://files.example.com/x mailto:a@example.com https://ok.example.com")
	if len(domains) != 1 || domains[0].Domain != "ok.example.com" {
		t.Fatalf("domains = %+v, want only the https host", domains)
	}
}

func TestExtractDomainsEmptyText(t *testing.T) {
	if got := ExtractDomains("no links here"); got != nil {
		t.Errorf("ExtractDomains = %+v, want nil", got)
	}
}

func TestGroupURLs(t *testing.T) {
	domains := GroupURLs([]string{
		"https://acme.com/docs",
		"https://acme.com/docs",
		"https://www.acme.com/pricing",
		"not-a-url",
	})
	if len(domains) != 1 {
		t.Fatalf("domains = %+v, want one acme.com group", domains)
	}
	if domains[0].Count != 3 || len(domains[0].URLs) != 2 {
		t.Errorf("group = %+v, want count 3 with 2 unique urls", domains[0])
	}
}

func TestDomainOf(t *testing.T) {
	if d, ok := DomainOf("https://www.acme.com/x."); !ok || d != "acme.com" {
		t.Errorf("DomainOf = %q/%v, want acme.com/true", d, ok)
	}
	if _, ok := DomainOf("ftp://acme.com"); ok {
		t.Error("ftp scheme must not resolve")
	}
}
