package cart

import "time"

// Reduce computes the state that results from applying intent to state.
// It has no side effects and never mutates the input state's items.
// Unknown intents return state unchanged.
func Reduce(state State, intent Intent, now time.Time) State {
	switch in := intent.(type) {
	case AddItem:
		return addItem(state, in, now)
	case RemoveItem:
		return removeItem(state, in.ProductID)
	case UpdateQuantity:
		return updateQuantity(state, in)
	case ClearCart:
		return state.withItems([]LineItem{})
	case ToggleCart:
		state.IsOpen = !state.IsOpen
		return state
	case OpenCart:
		state.IsOpen = true
		return state
	case CloseCart:
		state.IsOpen = false
		return state
	case LoadCart:
		loaded := state.withItems(copyItems(in.Items))
		loaded.IsOpen = false
		return loaded
	default:
		return state
	}
}

func addItem(state State, in AddItem, now time.Time) State {
	items := copyItems(state.Items)
	if i := state.indexOf(in.Product.ID); i >= 0 {
		items[i].Quantity++
		return state.withItems(items)
	}
	items = append(items, LineItem{
		ProductID: in.Product.ID,
		Product:   in.Product.Clone(),
		Quantity:  1,
		AddedAt:   now,
	})
	return state.withItems(items)
}

func removeItem(state State, productID int64) State {
	items := make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	return state.withItems(items)
}

func updateQuantity(state State, in UpdateQuantity) State {
	if in.Quantity <= 0 {
		return removeItem(state, in.ProductID)
	}
	items := copyItems(state.Items)
	if i := state.indexOf(in.ProductID); i >= 0 {
		items[i].Quantity = in.Quantity
	}
	return state.withItems(items)
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}
