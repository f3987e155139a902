package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot(t *testing.T) {
	s := apply(Empty(), AddItem{Product: discounted(2, 5000, 4000)}, OpenCart{})

	data, err := EncodeSnapshot(s)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "items")
	assert.Contains(t, raw, "totalItems")
	assert.Contains(t, raw, "totalAmount")
	assert.NotContains(t, raw, "isOpen")
	assert.JSONEq(t, `"4000"`, string(raw["totalAmount"]))

	var items []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["items"], &items))
	require.Len(t, items, 1)
	assert.JSONEq(t, `2`, string(items[0]["id"]))
	assert.JSONEq(t, `1`, string(items[0]["quantity"]))
	assert.Contains(t, items[0], "addedAt")
	assert.Contains(t, items[0], "product")
}

func TestEncodeSnapshot_EmptyCartWritesEmptyItems(t *testing.T) {
	data, err := EncodeSnapshot(State{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"totalItems":0,"totalAmount":"0"}`, string(data))
}

func TestDecodeSnapshot(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		s := apply(Empty(), AddItem{Product: product(1, 10000)}, AddItem{Product: product(1, 10000)})
		data, err := EncodeSnapshot(s)
		require.NoError(t, err)

		items, err := DecodeSnapshot(data)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
		assert.True(t, items[0].Product.ListPrice.Equal(decimal.NewFromInt(10000)))
		assert.True(t, items[0].AddedAt.Equal(fixedNow))
	})

	t.Run("accepts numeric prices", func(t *testing.T) {
		data := `{"items":[{"id":7,"product":{"id":7,"nombre":"Sofa","precio_venta":129990,"precio_descuento":99990,"imagenes":[]},"quantity":1,"addedAt":"2025-03-14T10:30:00Z"}],"totalItems":1,"totalAmount":99990}`

		items, err := DecodeSnapshot([]byte(data))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, items[0].Product.EffectivePrice().Equal(decimal.NewFromInt(99990)))
	})

	t.Run("fills product id from the line", func(t *testing.T) {
		data := `{"items":[{"id":7,"product":{"nombre":"Sofa","precio_venta":"100"},"quantity":1,"addedAt":"2025-03-14T10:30:00Z"}]}`
		items, err := DecodeSnapshot([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, int64(7), items[0].Product.ID)
	})

	malformed := map[string]string{
		"not json":            `{{{`,
		"items not an array":  `{"items":"nope"}`,
		"zero quantity":       `{"items":[{"id":1,"product":{"id":1,"precio_venta":"10"},"quantity":0}]}`,
		"fractional quantity": `{"items":[{"id":1,"product":{"id":1,"precio_venta":"10"},"quantity":1.5}]}`,
		"duplicate id":        `{"items":[{"id":1,"product":{"id":1,"precio_venta":"10"},"quantity":1},{"id":1,"product":{"id":1,"precio_venta":"10"},"quantity":2}]}`,
		"mismatched product":  `{"items":[{"id":1,"product":{"id":2,"precio_venta":"10"},"quantity":1}]}`,
		"negative price":      `{"items":[{"id":1,"product":{"id":1,"precio_venta":"-10"},"quantity":1}]}`,
		"bad price":           `{"items":[{"id":1,"product":{"id":1,"precio_venta":"abc"},"quantity":1}]}`,
	}
	for name, data := range malformed {
		data := data
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(data))
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}

	t.Run("ignores stored aggregates", func(t *testing.T) {
		data := `{"items":[{"id":1,"product":{"id":1,"precio_venta":"10000"},"quantity":2}],"totalItems":99,"totalAmount":"1"}`
		items, err := DecodeSnapshot([]byte(data))
		require.NoError(t, err)

		s := Reduce(Empty(), LoadCart{Items: items}, fixedNow)
		assert.Equal(t, 2, s.TotalItems)
		assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(20000)))
	})
}
