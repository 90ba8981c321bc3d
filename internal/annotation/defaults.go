package annotation

// DefaultLabel derives the label presented for an unannotated record from
// its vote count: three or more votes suggest a match, exactly two leave it
// ambiguous, fewer suggest a mismatch. Presentation only; nothing is
// persisted until the operator saves.
func DefaultLabel(votes []string) Label {
	switch n := len(votes); {
	case n >= 3:
		return LabelTrue
	case n == 2:
		return LabelAmbiguous
	default:
		return LabelFalse
	}
}

// EffectiveLabel returns the stored annotation when present, otherwise the
// vote-count default.
func (r *ImageRecord) EffectiveLabel() Label {
	if r.Annotation != nil && r.Annotation.Valid() {
		return *r.Annotation
	}
	return DefaultLabel(r.Votes)
}
