package brands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
)

// Service provides brand and competitor operations for a project.
type Service struct {
	Repo        Repo
	Competitors CompetitorsRepo
	Projects    projects.Repo
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateBrand validates and stores a new brand for a project.
func (s *Service) CreateBrand(ctx context.Context, projectID, name, domain string, synonyms []string) (Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Brand{}, ErrInvalidInput
	}
	domain, err := normalizeDomain(domain)
	if err != nil {
		return Brand{}, err
	}
	if _, err := s.Projects.GetByID(ctx, projectID); err != nil {
		return Brand{}, fmt.Errorf("load project: %w", err)
	}

	now := s.now().UTC()
	b := Brand{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Domain:    domain,
		Synonyms:  cleanSynonyms(synonyms),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return Brand{}, err
	}
	return b, nil
}

// CreateCompetitor validates and stores a new competitor for a project.
func (s *Service) CreateCompetitor(ctx context.Context, projectID, name string, synonyms []string) (Competitor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Competitor{}, ErrInvalidInput
	}
	if _, err := s.Projects.GetByID(ctx, projectID); err != nil {
		return Competitor{}, fmt.Errorf("load project: %w", err)
	}

	now := s.now().UTC()
	c := Competitor{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Synonyms:  cleanSynonyms(synonyms),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Competitors.Create(ctx, c); err != nil {
		return Competitor{}, err
	}
	return c, nil
}

// ListBrands returns a project's brands, first-created (primary) first.
func (s *Service) ListBrands(ctx context.Context, projectID string) ([]Brand, error) {
	return s.Repo.ListByProject(ctx, projectID)
}

// ListCompetitors returns a project's competitors.
func (s *Service) ListCompetitors(ctx context.Context, projectID string) ([]Competitor, error) {
	return s.Competitors.ListByProject(ctx, projectID)
}

// Primary returns the project's primary brand.
func (s *Service) Primary(ctx context.Context, projectID string) (Brand, error) {
	return s.Repo.GetPrimaryForProject(ctx, projectID)
}

// normalizeDomain lowercases a domain and strips any scheme, path, and
// leading "www.". Empty input is allowed; a brand without a domain simply
// never earns the citation bonus.
func normalizeDomain(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", nil
	}
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", ErrInvalidInput
		}
		raw = u.Host
	}
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimPrefix(raw, "www.")
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", ErrInvalidInput
	}
	return raw, nil
}

func cleanSynonyms(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
