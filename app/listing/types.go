package listing

// Normalized listing types

// Listing is the canonical, write-ready record derived from a
// SourceRecord. Every listing has exactly one canonical page path and
// zero or more taxonomy duplicate paths.
type Listing struct {
	SourceID         string `json:"source_id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	EditorsNote      string `json:"editors_note,omitempty"`

	Address string `json:"address,omitempty"`
	Geo     *Geo   `json:"geo,omitempty"`

	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Price     string `json:"price,omitempty"`

	// Taxonomies holds the grouping-field values keyed by field name.
	// Single-valued source fields are remembered as such so output
	// preserves the source cardinality.
	Taxonomies map[string]TaxonomyValue `json:"taxonomies,omitempty"`

	Tags    []Tag    `json:"tags,omitempty"`
	Gallery []string `json:"gallery,omitempty"`

	Created   Timestamp `json:"created"`
	Published Timestamp `json:"published"`
	Updated   Timestamp `json:"updated"`

	ShortLink ShortLink `json:"short_link"`
}

// Tag is a parsed tag string. Group is the optional numeric prefix of
// the raw tag ("3-waterfront" has group 3); GroupName is nil when the
// group id has no entry in the configured mapping.
type Tag struct {
	Name      string  `json:"name" yaml:"name"`
	Slug      string  `json:"slug" yaml:"slug"`
	Group     *int    `json:"group,omitempty" yaml:"group,omitempty"`
	GroupName *string `json:"group_name,omitempty" yaml:"group_name,omitempty"`
}

type Geo struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Timestamp carries both forms downstream consumers need: the ISO date
// for templates and the Unix epoch for API clients. Both are nil when
// the source date is absent or unparseable.
type Timestamp struct {
	ISO   *string `json:"iso" yaml:"iso"`
	Epoch *int64  `json:"epoch" yaml:"epoch"`
}

type ShortLink struct {
	Code string `json:"code" yaml:"code"`
	URL  string `json:"url" yaml:"url"`
}

// TaxonomyValue holds one taxonomy field's values plus whether the
// source field was single-valued. It marshals as a bare string in the
// single case and as a list otherwise, in both JSON and YAML.
type TaxonomyValue struct {
	Values []string
	Single bool
}

func (v TaxonomyValue) MarshalYAML() (any, error) {
	if v.Single && len(v.Values) == 1 {
		return v.Values[0], nil
	}
	return v.Values, nil
}

func (v TaxonomyValue) MarshalJSON() ([]byte, error) {
	return marshalTaxonomyJSON(v)
}

// Warning records a recovered per-field normalization problem. The
// offending field resolves to an empty value and the run continues.
type Warning struct {
	SourceID string
	Field    string
	Reason   string
}
