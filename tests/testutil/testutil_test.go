package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/catalog"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopperClient_CarriesIssuedSession(t *testing.T) {
	var seen []string
	engine := gin.New()
	engine.GET("/cart", func(c *gin.Context) {
		seen = append(seen, c.GetHeader(SessionHeader))
		if c.GetHeader(SessionHeader) == "" {
			c.Header(SessionHeader, "token-1")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"totalItems": 0}})
	})

	client := NewShopperClient(t, engine)
	client.Do(http.MethodGet, "/cart", nil)
	w := client.Do(http.MethodGet, "/cart", nil)

	assert.Equal(t, []string{"", "token-1"}, seen)
	assert.Equal(t, "token-1", client.Session)
	data := DecodeData[map[string]int](t, w)
	assert.Equal(t, 0, data["totalItems"])
}

func TestAssertErrorCode(t *testing.T) {
	engine := gin.New()
	engine.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "ERR_NOT_FOUND", "message": "missing"}})
	})

	w := NewShopperClient(t, engine).Do(http.MethodGet, "/x", nil)
	AssertErrorCode(t, w, http.StatusNotFound, "ERR_NOT_FOUND")
}

type testEvent struct {
	shared.BaseDomainEvent
}

func TestRecordingHandler(t *testing.T) {
	h := NewRecordingHandler("a", "b")
	assert.Equal(t, []string{"a", "b"}, h.EventTypes())

	for _, typ := range []string{"a", "b", "a"} {
		e := &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(typ, "Test", uuid.New())}
		require.NoError(t, h.Handle(context.Background(), e))
	}

	assert.Len(t, h.Handled(), 3)
	assert.Len(t, h.OfType("a"), 2)
	RequireEventCount(t, h, "b", 1)
}

func TestNewProduct(t *testing.T) {
	p := NewProduct("SOF-1", "Sofa Lino", 300000, WithDiscount(250000), WithType(catalog.ProductTypeSectionals))

	assert.Equal(t, catalog.ProductTypeSectionals, p.Type)
	assert.Equal(t, catalog.SaleChannelLocal, p.SaleChannel)
	assert.Equal(t, "250000", p.EffectivePrice().String())

	hidden := NewProduct("SOF-2", "Sofa Oculto", 100000, Hidden())
	assert.NotEqual(t, catalog.SaleChannelLocal, hidden.SaleChannel)
}
