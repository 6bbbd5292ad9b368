package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"tapcard-backend/internal/models"
)

// Plan describes one subscription tier of the catalog.
type Plan struct {
	ID       string              `yaml:"id" json:"id"`
	Name     string              `yaml:"name" json:"name"`
	Price    int                 `yaml:"price" json:"price"` // minor currency units per period
	Currency string              `yaml:"currency" json:"currency"`
	MaxCards int                 `yaml:"maxCards" json:"maxCards"` // -1 means unlimited
	Features models.PlanFeatures `yaml:"features" json:"features"`
}

// PaymentRequired reports whether switching to the plan needs a confirmed payment.
func (p Plan) PaymentRequired() bool {
	return p.Price > 0
}

// PlanCatalog is the set of plans users can be subscribed to, keyed by plan ID.
type PlanCatalog struct {
	plans map[string]Plan
}

type planFile struct {
	Plans []Plan `yaml:"plans"`
}

// DefaultPlanCatalog returns the built-in tiers.
func DefaultPlanCatalog() *PlanCatalog {
	catalog, _ := NewPlanCatalog([]Plan{
		{ID: models.PlanFree, Name: "Starter", Currency: "INR", MaxCards: 5},
		{ID: models.PlanPro, Name: "Pro", Price: 19900, Currency: "INR", MaxCards: 10,
			Features: models.PlanFeatures{CustomTheme: true, Analytics: true, PremiumLayouts: true}},
		{ID: models.PlanPremium, Name: "Business", Price: 49900, Currency: "INR", MaxCards: models.UnlimitedCards,
			Features: models.PlanFeatures{CustomTheme: true, Analytics: true, RemoveBranding: true, PremiumLayouts: true}},
	})
	return catalog
}

// NewPlanCatalog validates plans and builds a catalog. A FREE plan is mandatory
// because it is provisioned for every new user.
func NewPlanCatalog(plans []Plan) (*PlanCatalog, error) {
	byID := make(map[string]Plan, len(plans))
	for _, p := range plans {
		p.ID = strings.ToUpper(strings.TrimSpace(p.ID))
		if p.ID == "" {
			return nil, fmt.Errorf("plan catalog: plan without id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("plan catalog: duplicate plan %q", p.ID)
		}
		if p.MaxCards < models.UnlimitedCards {
			return nil, fmt.Errorf("plan catalog: plan %q has invalid maxCards %d", p.ID, p.MaxCards)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("plan catalog: plan %q has negative price", p.ID)
		}
		byID[p.ID] = p
	}
	if _, ok := byID[models.PlanFree]; !ok {
		return nil, fmt.Errorf("plan catalog: %s plan is required", models.PlanFree)
	}
	return &PlanCatalog{plans: byID}, nil
}

// LoadPlanCatalog reads the catalog from a YAML file. An empty path yields the
// built-in catalog.
func LoadPlanCatalog(path string) (*PlanCatalog, error) {
	if path == "" {
		return DefaultPlanCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan catalog %s: %w", path, err)
	}
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing plan catalog %s: %w", path, err)
	}
	return NewPlanCatalog(f.Plans)
}

// Get looks a plan up by ID, case-insensitively.
func (c *PlanCatalog) Get(id string) (Plan, bool) {
	p, ok := c.plans[strings.ToUpper(strings.TrimSpace(id))]
	return p, ok
}

// Free returns the tier provisioned for new users.
func (c *PlanCatalog) Free() Plan {
	return c.plans[models.PlanFree]
}

// All returns the plans ordered by price, then ID.
func (c *PlanCatalog) All() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	return out
}
