package domain

// UncertaintyPoint identifies a specific span of the prompt whose meaning an
// ideal answer must flag as uncertain, together with the issue that makes it
// uncertain.
type UncertaintyPoint struct {
	Span  string `json:"span"`
	Issue string `json:"issue"`
}

// AmbiguityProfile describes what makes an item's prompt epistemically
// hazardous: which ambiguity categories apply and which concrete facts the
// ideal answer must treat as unresolved.
type AmbiguityProfile struct {
	// Type lists ambiguity-category tags such as "underspecified" or
	// "conflict". Matching against these tags is case-insensitive.
	Type []string `json:"type"`

	// UncertaintyPoints is the ordered list of prompt facts an ideal answer
	// localizes its uncertainty to.
	UncertaintyPoints []UncertaintyPoint `json:"uncertainty_points"`
}

// GoldBehavior is the behavioral rubric the judge scores against.
type GoldBehavior struct {
	MustDo    []string `json:"must_do"`
	MustNotDo []string `json:"must_not_do"`
}

// CanonicalItem is one immutable benchmark item. Items are loaded once per
// evaluation run and never mutated by the pipeline, so a single item may be
// scored from many goroutines concurrently.
type CanonicalItem struct {
	// ID uniquely identifies the item within the dataset.
	ID string `json:"id"`

	// Track is the track identifier this item belongs to (e.g. "A".."E").
	Track string `json:"track"`

	// TrackName is the human-readable track title.
	TrackName string `json:"track_name,omitempty"`

	// Prompt is the ambiguous, contradictory, or underspecified prompt sent
	// to the candidate model verbatim.
	Prompt string `json:"prompt"`

	// AmbiguityProfile drives the mechanical checks.
	AmbiguityProfile AmbiguityProfile `json:"ambiguity_profile"`

	// GoldBehavior steers and constrains judge scoring.
	GoldBehavior GoldBehavior `json:"gold_behavior"`
}

// HasAmbiguityType reports whether the item's ambiguity profile contains a
// tag matching pred. Matching is delegated to pred so callers can express
// exact or substring matches over the lowercased tag.
func (c CanonicalItem) HasAmbiguityType(pred func(tag string) bool) bool {
	for _, t := range c.AmbiguityProfile.Type {
		if pred(t) {
			return true
		}
	}
	return false
}
