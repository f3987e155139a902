package cart

import "github.com/jhk/storefront/internal/domain/catalog"

// IntentKind names a cart transition
type IntentKind string

const (
	IntentAddItem        IntentKind = "add_item"
	IntentRemoveItem     IntentKind = "remove_item"
	IntentUpdateQuantity IntentKind = "update_quantity"
	IntentClearCart      IntentKind = "clear_cart"
	IntentToggleCart     IntentKind = "toggle_cart"
	IntentOpenCart       IntentKind = "open_cart"
	IntentCloseCart      IntentKind = "close_cart"
	IntentLoadCart       IntentKind = "load_cart"
)

// IsVisibility reports whether the intent only changes panel visibility
func (k IntentKind) IsVisibility() bool {
	return k == IntentToggleCart || k == IntentOpenCart || k == IntentCloseCart
}

// Persists reports whether the resulting state is written to the durable slot
func (k IntentKind) Persists() bool {
	return !k.IsVisibility() && k != IntentLoadCart
}

// Intent is a request to transition the cart state
type Intent interface {
	Kind() IntentKind
}

// AddItem adds one unit of Product
type AddItem struct {
	Product catalog.Product
}

// RemoveItem drops the line for ProductID
type RemoveItem struct {
	ProductID int64
}

// UpdateQuantity sets the quantity of the line for ProductID.
// Quantity <= 0 removes the line.
type UpdateQuantity struct {
	ProductID int64
	Quantity  int
}

// ClearCart empties the cart
type ClearCart struct{}

// ToggleCart flips panel visibility
type ToggleCart struct{}

// OpenCart shows the panel
type OpenCart struct{}

// CloseCart hides the panel
type CloseCart struct{}

// LoadCart replaces the contents with a restored snapshot
type LoadCart struct {
	Items []LineItem
}

func (AddItem) Kind() IntentKind        { return IntentAddItem }
func (RemoveItem) Kind() IntentKind     { return IntentRemoveItem }
func (UpdateQuantity) Kind() IntentKind { return IntentUpdateQuantity }
func (ClearCart) Kind() IntentKind      { return IntentClearCart }
func (ToggleCart) Kind() IntentKind     { return IntentToggleCart }
func (OpenCart) Kind() IntentKind       { return IntentOpenCart }
func (CloseCart) Kind() IntentKind      { return IntentCloseCart }
func (LoadCart) Kind() IntentKind       { return IntentLoadCart }
