package pricing

import (
	"sort"
	"time"

	"github.com/noah-isme/backend-resto/internal/ordertype"
)

// Source price types recorded on a matrix.
const (
	SourceFinal = "final"
	SourceBase  = "base"
)

// PricingModeExclusive marks items whose entered price excludes tax. Any other
// mode, including an empty one, is treated as tax-inclusive.
const PricingModeExclusive = "exclusive"

// RatePair is the CGST/SGST percentage pair configured for one order type.
type RatePair struct {
	CGST float64 `json:"cgst" validate:"gte=0,lte=100"`
	SGST float64 `json:"sgst" validate:"gte=0,lte=100"`
}

// GSTConfig maps each order type to its rate pair.
type GSTConfig map[ordertype.Key]RatePair

// ParseGSTConfig maps labelled rate pairs onto canonical order types. Canonical
// keys are accepted too, so a config read back from the API can be written
// again. Labels that are not recognised are returned sorted and left out.
func ParseGSTConfig(labelled map[string]RatePair) (GSTConfig, []string) {
	cfg := make(GSTConfig, len(labelled))
	var unknown []string
	for label, rates := range labelled {
		key, ok := ordertype.Decode(label)
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		cfg[key] = rates
	}
	sort.Strings(unknown)
	return cfg, unknown
}

// SizePrice is the entered price of one size variant.
type SizePrice struct {
	Price float64 `json:"price"`
}

// Item is the pricing view of a menu item.
type Item struct {
	Price       float64
	Sizes       map[string]SizePrice
	PricingMode string
	// GSTRates is keyed by order-type label; labels are resolved the same way
	// order types are resolved everywhere else.
	GSTRates map[string]RatePair
}

// PriceDefinition is an explicit default/size price list.
type PriceDefinition struct {
	Default *float64           `json:"default"`
	Sizes   map[string]float64 `json:"sizes"`
}

// SourcePrice records the prices a matrix was built from.
type SourcePrice struct {
	Default *float64           `json:"default"`
	Sizes   map[string]float64 `json:"sizes"`
}

// OrderTypePricing holds the breakdowns for one order type.
type OrderTypePricing struct {
	CGSTPercent float64              `json:"cgstPercent"`
	SGSTPercent float64              `json:"sgstPercent"`
	Default     *Breakdown           `json:"default"`
	Sizes       map[string]Breakdown `json:"sizes"`
}

// Matrix is the precomputed order-type × size breakdown set of one priced item.
// A matrix is never edited in place; every change builds a new one.
type Matrix struct {
	PriceIncludesTax bool                               `json:"priceIncludesTax"`
	SourcePriceType  string                             `json:"sourcePriceType"`
	SourcePrice      SourcePrice                        `json:"sourcePrice"`
	LastUpdated      time.Time                          `json:"lastUpdated"`
	OrderTypes       map[ordertype.Key]OrderTypePricing `json:"orderTypes"`
}

// Builder constructs matrices. Now defaults to time.Now.
type Builder struct {
	Now func() time.Time
}

// BuildFromItem builds an item-derived matrix stamped with the current time.
func BuildFromItem(item Item) Matrix {
	return Builder{}.FromItem(item)
}

// BuildFromDefinition builds a definition-derived matrix stamped with the current time.
func BuildFromDefinition(def PriceDefinition, cfg GSTConfig, includesTax bool) Matrix {
	return Builder{}.FromDefinition(def, cfg, includesTax)
}

// FromItem computes a breakdown for every canonical order type. Items with size
// variants get one breakdown per size and no default; items without sizes get a
// default breakdown from their flat price.
func (b Builder) FromItem(item Item) Matrix {
	includesTax := item.PricingMode != PricingModeExclusive
	m := b.newMatrix(includesTax)

	if len(item.Sizes) > 0 {
		for size, sp := range item.Sizes {
			m.SourcePrice.Sizes[size] = sp.Price
		}
	} else {
		price := item.Price
		m.SourcePrice.Default = &price
	}

	for _, key := range ordertype.All() {
		rates := lookupRates(item.GSTRates, key)
		entry := newEntry(rates)
		if len(item.Sizes) > 0 {
			for size, sp := range item.Sizes {
				entry.Sizes[size] = Compute(sp.Price, rates.CGST, rates.SGST, includesTax)
			}
		} else {
			bd := Compute(item.Price, rates.CGST, rates.SGST, includesTax)
			entry.Default = &bd
		}
		m.OrderTypes[key] = entry
	}
	return m
}

// FromDefinition computes breakdowns for each order type present in cfg: a
// default breakdown when def has a default price and one per size entry.
func (b Builder) FromDefinition(def PriceDefinition, cfg GSTConfig, includesTax bool) Matrix {
	m := b.newMatrix(includesTax)
	if def.Default != nil {
		price := *def.Default
		m.SourcePrice.Default = &price
	}
	for size, price := range def.Sizes {
		m.SourcePrice.Sizes[size] = price
	}

	for key, rates := range cfg {
		entry := newEntry(rates)
		if def.Default != nil {
			bd := Compute(*def.Default, rates.CGST, rates.SGST, includesTax)
			entry.Default = &bd
		}
		for size, price := range def.Sizes {
			entry.Sizes[size] = Compute(price, rates.CGST, rates.SGST, includesTax)
		}
		m.OrderTypes[key] = entry
	}
	return m
}

func (b Builder) newMatrix(includesTax bool) Matrix {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	sourceType := SourceBase
	if includesTax {
		sourceType = SourceFinal
	}
	return Matrix{
		PriceIncludesTax: includesTax,
		SourcePriceType:  sourceType,
		SourcePrice:      SourcePrice{Sizes: map[string]float64{}},
		LastUpdated:      now().UTC(),
		OrderTypes:       make(map[ordertype.Key]OrderTypePricing, len(ordertype.All())),
	}
}

func newEntry(rates RatePair) OrderTypePricing {
	return OrderTypePricing{
		CGSTPercent: rates.CGST,
		SGSTPercent: rates.SGST,
		Sizes:       map[string]Breakdown{},
	}
}

// lookupRates finds the rate pair for key. An entry keyed by the canonical key
// wins, then a recognised label, then (for dining only) an unrecognised label
// that falls back to it. Labels are tried in sorted order.
func lookupRates(rates map[string]RatePair, key ordertype.Key) RatePair {
	if r, ok := rates[string(key)]; ok {
		return r
	}
	labels := make([]string, 0, len(rates))
	for label := range rates {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if parsed, ok := ordertype.Parse(label); ok && parsed == key {
			return rates[label]
		}
	}
	for _, label := range labels {
		if ordertype.Resolve(label) == key {
			return rates[label]
		}
	}
	return RatePair{}
}

// ResolvedBreakdown is a breakdown looked up from a matrix, carrying the order
// type entry's percentages and the matrix's tax direction.
type ResolvedBreakdown struct {
	Breakdown
	OrderType ordertype.Key `json:"orderType"`
	SizeKey   string        `json:"sizeKey,omitempty"`
}

// BreakdownFromMetadata returns the breakdown for orderType and sizeKey. The
// order type label falls back to dining when unrecognised. A size-specific
// breakdown takes priority over the default one; nil means neither exists.
func BreakdownFromMetadata(m *Matrix, orderType, sizeKey string) *ResolvedBreakdown {
	if m == nil {
		return nil
	}
	key := ordertype.Resolve(orderType)
	entry, ok := m.OrderTypes[key]
	if !ok {
		return nil
	}

	var (
		bd   Breakdown
		used string
	)
	if sized, ok := entry.Sizes[sizeKey]; ok && sizeKey != "" {
		bd, used = sized, sizeKey
	} else if entry.Default != nil {
		bd = *entry.Default
	} else {
		return nil
	}

	bd.CGSTPercent = entry.CGSTPercent
	bd.SGSTPercent = entry.SGSTPercent
	bd.PriceIncludesTax = m.PriceIncludesTax
	return &ResolvedBreakdown{Breakdown: bd, OrderType: key, SizeKey: used}
}

// SizeKeys returns the size keys of the matrix in sorted order.
func (m Matrix) SizeKeys() []string {
	keys := make([]string, 0, len(m.SourcePrice.Sizes))
	for k := range m.SourcePrice.Sizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
