package model

import "sort"

// DimensionKind groups pattern dimensions by the creative aspect they describe.
type DimensionKind string

const (
	KindVisual DimensionKind = "visual"
	KindCopy   DimensionKind = "copy"
)

// Dimension describes one fixed attribute extracted from every creative,
// together with the closed set of values the vision model may return.
type Dimension struct {
	Key    string        `json:"key"`
	Kind   DimensionKind `json:"kind"`
	Values []string      `json:"values"`
}

// DimensionRegistry is the indexed extraction schema. It drives the vision
// prompt and validates everything the model returns: any dimension or value
// outside the registry is discarded, never passed into aggregation.
type DimensionRegistry struct {
	dims   []Dimension
	byKey  map[string]*Dimension
	values map[string]map[string]bool
}

// NewDimensionRegistry indexes the given dimensions.
func NewDimensionRegistry(dims []Dimension) *DimensionRegistry {
	r := &DimensionRegistry{
		dims:   dims,
		byKey:  make(map[string]*Dimension, len(dims)),
		values: make(map[string]map[string]bool, len(dims)),
	}
	for i := range r.dims {
		d := &r.dims[i]
		r.byKey[d.Key] = d
		vs := make(map[string]bool, len(d.Values))
		for _, v := range d.Values {
			vs[v] = true
		}
		r.values[d.Key] = vs
	}
	return r
}

// DefaultDimensionRegistry returns the fixed creative extraction schema.
func DefaultDimensionRegistry() *DimensionRegistry {
	return NewDimensionRegistry([]Dimension{
		{Key: "has_person", Kind: KindVisual, Values: []string{"yes", "no"}},
		{Key: "person_count", Kind: KindVisual, Values: []string{"none", "one", "multiple"}},
		{Key: "contrast_level", Kind: KindVisual, Values: []string{"low", "medium", "high"}},
		{Key: "color_saturation", Kind: KindVisual, Values: []string{"muted", "balanced", "vivid"}},
		{Key: "text_ratio", Kind: KindVisual, Values: []string{"minimal", "moderate", "heavy"}},
		{Key: "layout_style", Kind: KindVisual, Values: []string{"single_focus", "grid", "collage"}},
		{Key: "has_logo", Kind: KindVisual, Values: []string{"yes", "no"}},
		{Key: "has_product_shot", Kind: KindVisual, Values: []string{"yes", "no"}},
		{Key: "overall_tone", Kind: KindCopy, Values: []string{"playful", "serious", "urgent", "aspirational", "informative"}},
		{Key: "has_cta", Kind: KindCopy, Values: []string{"yes", "no"}},
		{Key: "cta_style", Kind: KindCopy, Values: []string{"button", "inline_text", "none"}},
		{Key: "headline_style", Kind: KindCopy, Values: []string{"question", "statement", "command", "none"}},
		{Key: "urgency_level", Kind: KindCopy, Values: []string{"none", "low", "high"}},
		{Key: "social_proof", Kind: KindCopy, Values: []string{"yes", "no"}},
	})
}

// Dimensions returns the schema dimensions sorted by key.
func (r *DimensionRegistry) Dimensions() []Dimension {
	out := make([]Dimension, len(r.dims))
	copy(out, r.dims)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ByKey returns the dimension for the given key, or nil.
func (r *DimensionRegistry) ByKey(key string) *Dimension {
	return r.byKey[key]
}

// IsValid reports whether value is in the enumerated set for the dimension.
func (r *DimensionRegistry) IsValid(key, value string) bool {
	vs, ok := r.values[key]
	return ok && vs[value]
}

// Filter keeps only the (dimension, value) entries of raw that the registry
// recognizes. A dimension absent from the returned map means "no data", which
// downstream denominators must distinguish from an explicit "no".
func (r *DimensionRegistry) Filter(raw map[string]string) ImageAnalysisResult {
	out := make(ImageAnalysisResult)
	for k, v := range raw {
		if r.IsValid(k, v) {
			out[k] = v
		}
	}
	return out
}

// ImageAnalysisResult maps dimension keys to the validated categorical value
// observed in one ad's creative. Missing keys mean the dimension could not be
// determined for that ad.
type ImageAnalysisResult map[string]string
