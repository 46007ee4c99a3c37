package requirement

// Op is a numeric comparison operator, stored as a single byte in the
// predicate dictionary.
type Op uint8

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// Predicate is one entry of the snapshot's predicate dictionary: a
// dense id, the comparison it performs, and the threshold it compares
// the caller's value against.
type Predicate struct {
	ID        uint32
	Key       string
	Op        Op
	Threshold int32
}

func (p Predicate) satisfiedBy(value int32) bool {
	switch p.Op {
	case OpEq:
		return value == p.Threshold
	case OpNe:
		return value != p.Threshold
	case OpLt:
		return value < p.Threshold
	case OpLe:
		return value <= p.Threshold
	case OpGt:
		return value > p.Threshold
	case OpGe:
		return value >= p.Threshold
	default:
		return false
	}
}

// KV is one caller-supplied requirement input, e.g. {"coins", 100}.
type KV struct {
	Key   string
	Value int32
}

// Dictionary is the precomputed "key -> predicates" index, built once
// from the snapshot's predicate_dictionary section.
type Dictionary struct {
	byKey     map[string][]Predicate
	predicate int
}

// NewDictionary builds a Dictionary from the snapshot's dense predicate
// list; index i is predicate id i, since predicate ids are dense
// integers in [0, P).
func NewDictionary(predicates []Predicate) *Dictionary {
	d := &Dictionary{
		byKey:     make(map[string][]Predicate, len(predicates)),
		predicate: len(predicates),
	}
	for _, p := range predicates {
		d.byKey[p.Key] = append(d.byKey[p.Key], p)
	}
	return d
}

// PredicateCount returns P, the dense predicate id space size.
func (d *Dictionary) PredicateCount() int { return d.predicate }

// Mask translates a caller's key/value list into a satisfied-predicate
// bitmask: duplicates resolve last-writer-wins, unknown keys are
// ignored, and every predicate whose comparison evaluates true against
// the resolved value gets its bit set. Complexity is O(P + M) where M
// is len(inputs): one map lookup per input, and the inner loop only
// ever touches the (few) predicates registered under that input's key.
func (d *Dictionary) Mask(inputs []KV) Bits {
	values := make(map[string]int32, len(inputs))
	for _, kv := range inputs {
		values[kv.Key] = kv.Value // last-writer-wins
	}

	mask := NewBits(d.predicate)
	for key, value := range values {
		for _, p := range d.byKey[key] {
			if p.satisfiedBy(value) {
				mask.Set(p.ID)
			}
		}
	}
	return mask
}
