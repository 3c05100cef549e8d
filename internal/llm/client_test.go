package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joana-bot/internal/catalog"
	"joana-bot/internal/nlp"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Item{
		{Key: "beef burger", NameEN: "Beef Burger", Price: 25, Category: catalog.CategoryBurgers},
		{Key: "coffee", NameEN: "Coffee", Price: 8, Category: catalog.CategoryDrinks},
	})
}

func TestParseExtraction(t *testing.T) {
	items, err := parseExtraction(`[{"type":"specific","name":"Beef Burger","qty":2}]`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Beef Burger", items[0].Name)
	assert.Equal(t, 2, items[0].Qty)
}

func TestParseExtractionStripsCodeFence(t *testing.T) {
	items, err := parseExtraction("```json\n[{\"type\":\"generic\",\"category\":\"burger\",\"qty\":3}]\n```")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "burger", items[0].Category)
}

func TestParseExtractionRejectsProse(t *testing.T) {
	_, err := parseExtraction("Sure! The customer wants two burgers.")
	assert.Error(t, err)
}

func TestValidateRejectsUnknownNames(t *testing.T) {
	spicy := true
	items := []extractedItem{
		{Type: "specific", Name: "Beef Burger", Qty: 2, Spicy: &spicy},
		{Type: "specific", Name: "Pizza Margherita", Qty: 1},
		{Type: "generic", Category: "juice", Qty: 2},
		{Type: "generic", Category: "sushi"},
	}

	out, unknown, err := validate(items, testCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"Pizza Margherita", "sushi"}, unknown)

	require.Len(t, out, 2)
	assert.True(t, out[0].Specific)
	assert.Equal(t, "beef burger", out[0].Key)
	assert.Equal(t, nlp.SpiceYes, out[0].Spicy)
	assert.False(t, out[1].Specific)
	assert.Equal(t, nlp.KindJuice, out[1].Kind)
	assert.Equal(t, 2, out[1].Qty)
}

func TestValidateDefaultsQty(t *testing.T) {
	out, _, err := validate([]extractedItem{{Type: "specific", Name: "coffee", Qty: 0}}, testCatalog())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Qty)
	assert.Equal(t, nlp.SpiceNo, out[0].Spicy) // drinks never need a flavor
}
