package nutrition

import (
	"encoding/json"
	"fmt"
	"math"
)

// Profile maps nutrients to amounts per 100 g of whatever it describes. A
// nutrient that was never reported is absent, which is distinct from an
// amount measured as zero. Profiles are immutable; every operation returns a
// new value.
type Profile struct {
	values map[Nutrient]float64
}

// NewProfile builds a profile from the given amounts. Unknown nutrient keys
// are ignored.
func NewProfile(values map[Nutrient]float64) Profile {
	p := Profile{values: make(map[Nutrient]float64, len(values))}
	for n, v := range values {
		if n.Valid() {
			p.values[n] = v
		}
	}
	return p
}

// Amount returns the amount of n and whether it was reported at all
func (p Profile) Amount(n Nutrient) (float64, bool) {
	v, ok := p.values[n]
	return v, ok
}

// Value returns the amount of n, or zero when it is absent
func (p Profile) Value(n Nutrient) float64 {
	return p.values[n]
}

// Has reports whether n was reported
func (p Profile) Has(n Nutrient) bool {
	_, ok := p.values[n]
	return ok
}

// Len returns the number of reported nutrients
func (p Profile) Len() int {
	return len(p.values)
}

// IsEmpty reports whether no nutrient was reported
func (p Profile) IsEmpty() bool {
	return len(p.values) == 0
}

// Nutrients returns the reported nutrients in label order
func (p Profile) Nutrients() []Nutrient {
	out := make([]Nutrient, 0, len(p.values))
	for _, n := range labelOrder {
		if _, ok := p.values[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// With returns a copy of p with n set to v
func (p Profile) With(n Nutrient, v float64) Profile {
	out := p.clone()
	if n.Valid() {
		out.values[n] = v
	}
	return out
}

// Without returns a copy of p with n marked absent
func (p Profile) Without(n Nutrient) Profile {
	out := p.clone()
	delete(out.values, n)
	return out
}

// Scale returns a copy of p with every reported amount multiplied by factor.
// Absent nutrients stay absent.
func (p Profile) Scale(factor float64) Profile {
	out := Profile{values: make(map[Nutrient]float64, len(p.values))}
	for n, v := range p.values {
		out.values[n] = v * factor
	}
	return out
}

// Map returns the reported amounts as a plain map
func (p Profile) Map() map[Nutrient]float64 {
	return p.clone().values
}

// Equal reports whether p and o report the same nutrients with amounts
// within tolerance of each other
func (p Profile) Equal(o Profile, tolerance float64) bool {
	if len(p.values) != len(o.values) {
		return false
	}
	for n, v := range p.values {
		ov, ok := o.values[n]
		if !ok || math.Abs(v-ov) > tolerance {
			return false
		}
	}
	return true
}

// firstNonFinite returns the first nutrient, in label order, whose amount is
// NaN or infinite
func (p Profile) firstNonFinite() (Nutrient, float64, bool) {
	for _, n := range labelOrder {
		if v, ok := p.values[n]; ok && !isFinite(v) {
			return n, v, true
		}
	}
	return "", 0, false
}

func (p Profile) clone() Profile {
	out := Profile{values: make(map[Nutrient]float64, len(p.values))}
	for n, v := range p.values {
		out.values[n] = v
	}
	return out
}

// MarshalJSON encodes the reported nutrients as an object. Absent nutrients
// are omitted.
func (p Profile) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(p.values))
	for n, v := range p.values {
		if !isFinite(v) {
			return nil, fmt.Errorf("nutrient %s has non-finite amount %v", n, v)
		}
		m[string(n)] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object of nutrient amounts. Null amounts are
// treated as absent; unknown keys are rejected.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var m map[string]*float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	p.values = make(map[Nutrient]float64, len(m))
	for k, v := range m {
		n, ok := ParseNutrient(k)
		if !ok {
			return fmt.Errorf("unknown nutrient %q", k)
		}
		if v != nil {
			p.values[n] = *v
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
