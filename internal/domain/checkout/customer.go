package checkout

import "strings"

// PaymentMethodWebpay is the only payment method the storefront offers
const PaymentMethodWebpay = "webpay"

// Customer holds the buyer and delivery details captured at checkout
type Customer struct {
	Name          string
	RUT           string
	Email         string
	Phone         string
	Commune       string
	Address       string
	Region        string
	PaymentMethod string
}

// Normalize trims surrounding whitespace and defaults the payment method
func (c Customer) Normalize() Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.RUT = strings.TrimSpace(c.RUT)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Commune = strings.TrimSpace(c.Commune)
	c.Address = strings.TrimSpace(c.Address)
	c.Region = strings.TrimSpace(c.Region)
	c.PaymentMethod = strings.TrimSpace(c.PaymentMethod)
	if c.PaymentMethod == "" {
		c.PaymentMethod = PaymentMethodWebpay
	}
	return c
}
