package ordertype

// Key is the canonical channel of sale. Tax rates are configured per Key.
type Key string

const (
	Dining      Key = "dining"
	Takeaway    Key = "takeaway"
	OnlineOrder Key = "onlineorder"
)

var labels = map[string]Key{
	"Dining":       Dining,
	"Takeaway":     Takeaway,
	"Online Order": OnlineOrder,
	"Online":       OnlineOrder,
	"OnlineOrder":  OnlineOrder,
}

// All returns the canonical keys in display order.
func All() []Key {
	return []Key{Dining, Takeaway, OnlineOrder}
}

// Parse maps a free-form label to its canonical key. The boolean is false when the
// label is not in the table; matching is exact and case-sensitive.
func Parse(label string) (Key, bool) {
	key, ok := labels[label]
	return key, ok
}

// Resolve maps a label to its canonical key, falling back to Dining for any label
// Parse does not recognise (including the empty string).
func Resolve(label string) Key {
	if key, ok := Parse(label); ok {
		return key
	}
	return Dining
}

// Decode maps a stored value to its key. Unlike Parse it also accepts the
// canonical keys this package writes, so persisted data round-trips.
func Decode(value string) (Key, bool) {
	if key := Key(value); key.Valid() {
		return key, true
	}
	return Parse(value)
}

// Valid reports whether k is one of the canonical keys.
func (k Key) Valid() bool {
	switch k {
	case Dining, Takeaway, OnlineOrder:
		return true
	}
	return false
}

// Label returns the display label shown on receipts.
func (k Key) Label() string {
	switch k {
	case Dining:
		return "Dining"
	case Takeaway:
		return "Takeaway"
	case OnlineOrder:
		return "Online Order"
	}
	return string(k)
}

// UnmarshalText accepts a canonical key or any label from the mapping table. It
// also applies to JSON object keys, so a config keyed by "Online Order" decodes
// to OnlineOrder.
func (k *Key) UnmarshalText(text []byte) error {
	raw := string(text)
	if key, ok := Decode(raw); ok {
		*k = key
		return nil
	}
	// keep the raw value so validation at the boundary can reject it
	*k = Key(raw)
	return nil
}
