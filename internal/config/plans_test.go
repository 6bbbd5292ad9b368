package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapcard-backend/internal/models"
)

func TestDefaultPlanCatalog(t *testing.T) {
	catalog := DefaultPlanCatalog()

	free := catalog.Free()
	assert.Equal(t, models.PlanFree, free.ID)
	assert.Equal(t, 5, free.MaxCards)
	assert.False(t, free.PaymentRequired())

	premium, ok := catalog.Get("premium")
	require.True(t, ok)
	assert.Equal(t, models.UnlimitedCards, premium.MaxCards)
	assert.True(t, premium.PaymentRequired())

	all := catalog.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"FREE", "PRO", "PREMIUM"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestLoadPlanCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	content := `
plans:
  - id: free
    name: Free
    maxCards: 2
  - id: TEAM
    name: Team
    price: 1000
    maxCards: -1
    features:
      customTheme: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := LoadPlanCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Free().MaxCards)
	team, ok := catalog.Get("team")
	require.True(t, ok)
	assert.True(t, team.Features.CustomTheme)
	assert.False(t, team.Features.PremiumLayouts)
	_, ok = catalog.Get("PRO")
	assert.False(t, ok)
}

func TestLoadPlanCatalogShippedFile(t *testing.T) {
	catalog, err := LoadPlanCatalog(filepath.Join("..", "..", "configs", "plans.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPlanCatalog().All(), catalog.All())
}

func TestNewPlanCatalogRejectsBadInput(t *testing.T) {
	_, err := NewPlanCatalog([]Plan{{ID: "PRO", MaxCards: 10}})
	assert.Error(t, err, "catalog without FREE must be rejected")

	_, err = NewPlanCatalog([]Plan{{ID: "FREE", MaxCards: 5}, {ID: "free", MaxCards: 3}})
	assert.Error(t, err)

	_, err = NewPlanCatalog([]Plan{{ID: "FREE", MaxCards: -2}})
	assert.Error(t, err)
}

func TestLoadPlanCatalogEmptyPathUsesDefaults(t *testing.T) {
	catalog, err := LoadPlanCatalog("")
	require.NoError(t, err)
	assert.Equal(t, 5, catalog.Free().MaxCards)
}
