package brands

import (
	"strings"
	"time"
)

// Brand is a tracked name for a project. The project's primary brand, the
// one that gets scored, is its first-created brand.
type Brand struct {
	ID        string
	ProjectID string
	Name      string
	Domain    string
	Synonyms  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Competitor is a rival name whose mentions are counted alongside the brand.
type Competitor struct {
	ID        string
	ProjectID string
	Name      string
	Synonyms  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegisteredDomain returns the brand domain lowercased with one leading
// "www." stripped, the form the scorer matches citations against.
func (b Brand) RegisteredDomain() string {
	d := strings.ToLower(strings.TrimSpace(b.Domain))
	return strings.TrimPrefix(d, "www.")
}

// Terms returns the brand's name plus synonyms.
func (b Brand) Terms() []string {
	out := make([]string, 0, len(b.Synonyms)+1)
	out = append(out, b.Name)
	out = append(out, b.Synonyms...)
	return out
}

// Terms returns the competitor's name plus synonyms.
func (c Competitor) Terms() []string {
	out := make([]string, 0, len(c.Synonyms)+1)
	out = append(out, c.Name)
	out = append(out, c.Synonyms...)
	return out
}
