package transform

// SeenSet tracks the record identifiers accepted within a single pipeline
// run. A fresh set must be created for every run; sharing one across runs
// would wrongly reject ids that legitimately reappear on the next fetch.
type SeenSet map[string]struct{}

// NewSeenSet returns an empty set for one run.
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// CheckAndMark reports whether id is new to this run, marking it seen.
// Returns false when id was already accepted (the record is a duplicate).
func (s SeenSet) CheckAndMark(id string) bool {
	if _, dup := s[id]; dup {
		return false
	}
	s[id] = struct{}{}
	return true
}

// IdentityKey derives the dedup key from the raw id field: the verbatim,
// case-sensitive string form of the value before type coercion.
func IdentityKey(v any) string {
	return Stringify(v)
}
