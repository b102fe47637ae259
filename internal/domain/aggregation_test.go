package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(sku, brand string) Item {
	return Item{SKU: SKU(sku), Brand: brand, Images: []string{sku + ".jpg"}}
}

func TestBrandAggregation_GroupsByItemBrandInFirstEncounterOrder(t *testing.T) {
	agg := NewBrandAggregation()
	agg.Add(item("1", "Topshop"), item("2", "Monki"))
	agg.Add(item("3", "Topshop"), item("4", ""))

	assert.Equal(t, []string{"Topshop", "Monki", ""}, agg.Brands())
	assert.Equal(t, 3, agg.Len())
	require.Len(t, agg.Items(""), 1)
	assert.Equal(t, SKU("4"), agg.Items("")[0].SKU)
	require.Len(t, agg.Items("Topshop"), 2)
	assert.Equal(t, SKU("3"), agg.Items("Topshop")[1].SKU)
	assert.Nil(t, agg.Items("Zara"))
}

func TestBrandAggregation_JSONRoundTripKeepsOrder(t *testing.T) {
	agg := NewBrandAggregation()
	agg.Add(item("1", "Zeta"), item("2", "Alpha"))

	out, err := json.Marshal(agg)
	require.NoError(t, err)

	var back BrandAggregation
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, []string{"Zeta", "Alpha"}, back.Brands())
	assert.Equal(t, agg.Groups(), back.Groups())
}

func TestBrandAggregation_EmptyMarshalsAsArray(t *testing.T) {
	out, err := json.Marshal(NewBrandAggregation())
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))

	var nilAgg *BrandAggregation
	assert.Equal(t, 0, nilAgg.Len())
	assert.Empty(t, nilAgg.Groups())
}
