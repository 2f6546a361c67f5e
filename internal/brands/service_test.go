package brands

import (
	"context"
	"testing"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	orgRepo := orgs.NewMemoryRepo()
	projectRepo := projects.NewMemoryRepo()
	registry := tiers.NewRegistry()

	orgSvc := &orgs.Service{Repo: orgRepo, Tiers: registry}
	org, err := orgSvc.Create(context.Background(), "Acme Inc", "growth")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	projectSvc := &projects.Service{Repo: projectRepo, Orgs: orgRepo, Tiers: registry}
	project, err := projectSvc.Create(context.Background(), org.ID, "Website")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	svc := &Service{
		Repo:        NewMemoryRepo(),
		Competitors: NewMemoryCompetitorsRepo(),
		Projects:    projectRepo,
	}
	return svc, project.ID
}

func TestCreateBrandNormalizesDomain(t *testing.T) {
	svc, projectID := newTestService(t)

	cases := []struct {
		in   string
		want string
	}{
		{"Acme.com", "acme.com"},
		{"https://www.acme.com/pricing", "acme.com"},
		{"www.acme.co.uk", "acme.co.uk"},
		{"acme.com/docs", "acme.com"},
		{"", ""},
	}
	for _, tc := range cases {
		b, err := svc.CreateBrand(context.Background(), projectID, "Acme", tc.in, nil)
		if err != nil {
			t.Fatalf("CreateBrand(%q): %v", tc.in, err)
		}
		if b.Domain != tc.want {
			t.Errorf("CreateBrand(%q) domain = %q, want %q", tc.in, b.Domain, tc.want)
		}
	}
}

func TestCreateBrandRejectsBadInput(t *testing.T) {
	svc, projectID := newTestService(t)

	if _, err := svc.CreateBrand(context.Background(), projectID, "  ", "", nil); err != ErrInvalidInput {
		t.Errorf("blank name: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.CreateBrand(context.Background(), projectID, "Acme", "not a domain", nil); err != ErrInvalidInput {
		t.Errorf("domain with spaces: got %v, want ErrInvalidInput", err)
	}
	if _, err := svc.CreateBrand(context.Background(), "no-such-project", "Acme", "", nil); err == nil {
		t.Error("unknown project: expected error")
	}
}

func TestPrimaryIsFirstCreatedBrand(t *testing.T) {
	svc, projectID := newTestService(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc.Now = func() time.Time { return clock }

	first, err := svc.CreateBrand(context.Background(), projectID, "Acme", "acme.com", nil)
	if err != nil {
		t.Fatalf("create first brand: %v", err)
	}
	clock = base.Add(time.Hour)
	if _, err := svc.CreateBrand(context.Background(), projectID, "Acme Cloud", "acmecloud.com", nil); err != nil {
		t.Fatalf("create second brand: %v", err)
	}

	primary, err := svc.Primary(context.Background(), projectID)
	if err != nil {
		t.Fatalf("Primary: %v", err)
	}
	if primary.ID != first.ID {
		t.Errorf("primary = %s, want first-created %s", primary.ID, first.ID)
	}
}

func TestRegisteredDomain(t *testing.T) {
	cases := []struct {
		domain string
		want   string
	}{
		{"acme.com", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"WWW.Acme.COM", "acme.com"},
		{"", ""},
	}
	for _, tc := range cases {
		b := Brand{Domain: tc.domain}
		if got := b.RegisteredDomain(); got != tc.want {
			t.Errorf("RegisteredDomain(%q) = %q, want %q", tc.domain, got, tc.want)
		}
	}
}

func TestBrandTermsIncludeSynonyms(t *testing.T) {
	b := Brand{Name: "Acme", Synonyms: []string{"Acme Corp", "AcmeHQ"}}
	terms := b.Terms()
	if len(terms) != 3 || terms[0] != "Acme" {
		t.Fatalf("Terms() = %v, want name first plus synonyms", terms)
	}
}

func TestCreateCompetitorTrimsSynonyms(t *testing.T) {
	svc, projectID := newTestService(t)

	comp, err := svc.CreateCompetitor(context.Background(), projectID, "Globex", []string{" Globex Corp ", "", "GX"})
	if err != nil {
		t.Fatalf("CreateCompetitor: %v", err)
	}
	want := []string{"Globex Corp", "GX"}
	if len(comp.Synonyms) != len(want) {
		t.Fatalf("synonyms = %v, want %v", comp.Synonyms, want)
	}
	for i := range want {
		if comp.Synonyms[i] != want[i] {
			t.Errorf("synonyms[%d] = %q, want %q", i, comp.Synonyms[i], want[i])
		}
	}
}
