package extraction

import (
	"net/url"
	"sort"
	"strings"

	"mvdan.cc/xurls/v2"
)

var urlPattern = xurls.Strict()

const trailingPunctuation = ".,;:!?)]}'\"`>"

// ExtractDomains pulls every http(s) URL out of the text and groups them
// by host (lowercased, one leading "www." dropped). Counts include repeat
// citations of the same URL; the URL lists are deduplicated.
func ExtractDomains(text string) []DomainCitation {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	type group struct {
		count int
		urls  []string
		seen  map[string]bool
	}
	groups := make(map[string]*group)
	var order []string

	for _, raw := range matches {
		raw = strings.TrimRight(raw, trailingPunctuation)
		domain, ok := domainOf(raw)
		if !ok {
			continue
		}
		g := groups[domain]
		if g == nil {
			g = &group{seen: make(map[string]bool)}
			groups[domain] = g
			order = append(order, domain)
		}
		g.count++
		if !g.seen[raw] {
			g.seen[raw] = true
			g.urls = append(g.urls, raw)
		}
	}

	out := make([]DomainCitation, 0, len(order))
	for _, domain := range order {
		g := groups[domain]
		out = append(out, DomainCitation{Domain: domain, Count: g.count, URLs: g.urls})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// GroupURLs groups an explicit URL list the same way ExtractDomains groups
// URLs found in text. Non-http(s) and unparseable entries are dropped.
func GroupURLs(urls []string) []DomainCitation {
	if len(urls) == 0 {
		return nil
	}
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteString(" ")
	}
	return ExtractDomains(b.String())
}

// DomainOf returns the grouping domain for a single URL.
func DomainOf(raw string) (string, bool) {
	return domainOf(strings.TrimRight(raw, trailingPunctuation))
}

func domainOf(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	return host, true
}
