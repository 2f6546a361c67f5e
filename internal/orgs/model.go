package orgs

import "time"

// Organization is the tenant root. Tier controls project/prompt/run quotas;
// budgets live on individual projects.
type Organization struct {
	ID               string
	Name             string
	SubscriptionTier string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
