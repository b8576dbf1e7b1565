package inventory

import "time"

// Item es un registro de la colección plana "inventory". Quantity >= 0 en reposo.
type Item struct {
	ID          string
	Name        string
	Category    string
	Quantity    int
	MinQuantity int
	Price       float64
	Unit        string
	Supplier    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLow: stock en o bajo el mínimo.
func IsLow(it Item) bool {
	return it.Quantity <= it.MinQuantity
}

// IsOut: sin stock.
func IsOut(it Item) bool {
	return it.Quantity == 0
}

// Clamp ajusta lo pedido al stock disponible. clamped indica que se recortó.
func Clamp(requested, available int) (consumed int, clamped bool) {
	if available < 0 {
		available = 0
	}
	if requested <= available {
		return requested, false
	}
	return available, true
}
