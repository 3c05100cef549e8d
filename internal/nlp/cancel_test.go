package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCancelText(t *testing.T) {
	assert.True(t, IsCancelText("cancel"))
	assert.True(t, IsCancelText("please remove the fries"))
	assert.True(t, IsCancelText("الغي الطلب"))
	assert.False(t, IsCancelText("2 burgers"))
	assert.False(t, IsCancelText("hello"))
}

func TestParseCancelEntireOrder(t *testing.T) {
	for _, text := range []string{
		"cancel my entire order",
		"cancel the whole order",
		"remove everything",
		"الغي كل الطلب",
	} {
		req := ParseCancel(text)
		assert.True(t, req.All, "ParseCancel(%q).All", text)
	}
}

func TestParseCancelItem(t *testing.T) {
	req := ParseCancel("cancel 2 spicy tortilla zinger")
	assert.False(t, req.All)
	assert.Equal(t, 2, req.Qty)
	assert.True(t, req.HasQty)
	if assert.NotNil(t, req.Spicy) {
		assert.True(t, *req.Spicy)
	}
	assert.Equal(t, "tortilla zinger", req.ItemText)
}

func TestParseCancelDefaultsToOne(t *testing.T) {
	req := ParseCancel("remove the fries")
	assert.Equal(t, 1, req.Qty)
	assert.False(t, req.HasQty)
	assert.Nil(t, req.Spicy)
	assert.Equal(t, "fries", req.ItemText)
}

func TestParseCancelBare(t *testing.T) {
	req := ParseCancel("cancel")
	assert.False(t, req.All)
	assert.Equal(t, "", req.ItemText)
}

func TestParseCancelKeepsFlavorLikeNames(t *testing.T) {
	// "classic" can be part of an item name, not a flavor to strip
	req := ParseCancel("remove the classic burger")
	assert.Equal(t, "classic burger", req.ItemText)
}
