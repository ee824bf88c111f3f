package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingCheckoutItemsAcceptsArray(t *testing.T) {
	var items PendingCheckoutItems
	raw := `[{"product_id":"p1","product_name":"Sticker","quantity":2,"unit_price_cents":990}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestPendingCheckoutItemsAcceptsLegacySingleObject(t *testing.T) {
	var items PendingCheckoutItems
	raw := `{"product_id":"p1","product_name":"Sticker","quantity":1,"unit_price_cents":990}`
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
}

func TestPendingCheckoutItemsNull(t *testing.T) {
	var items PendingCheckoutItems
	require.NoError(t, json.Unmarshal([]byte(`null`), &items))
	assert.Nil(t, items)
}
