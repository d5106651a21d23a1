package cmr

import "time"

// RTC-S1 collection identifiers in the production archive.
const (
	RTCShortName = "OPERA_L2_RTC-S1_V1"
	RTCConceptID = "C2777436413-ASF"
)

// Meta is the archive-level metadata of a granule record.
type Meta struct {
	ConceptID    string `json:"concept-id"`
	NativeID     string `json:"native-id"`
	ProviderID   string `json:"provider-id"`
	RevisionID   int    `json:"revision-id"`
	RevisionDate string `json:"revision-date"`
}

// RangeDateTime is the sensing window of a granule.
type RangeDateTime struct {
	BeginningDateTime string `json:"BeginningDateTime"`
	EndingDateTime    string `json:"EndingDateTime"`
}

// TemporalExtent wraps the sensing window.
type TemporalExtent struct {
	RangeDateTime RangeDateTime `json:"RangeDateTime"`
}

// Platform names the acquiring platform (e.g. SENTINEL-1A, LANDSAT-8).
type Platform struct {
	ShortName string `json:"ShortName"`
}

// RelatedURL is a data or browse link attached to a granule.
type RelatedURL struct {
	URL  string `json:"URL"`
	Type string `json:"Type"`
}

// UMM is the science-metadata part of a granule record.
type UMM struct {
	GranuleUR      string         `json:"GranuleUR"`
	InputGranules  []string       `json:"InputGranules"`
	TemporalExtent TemporalExtent `json:"TemporalExtent"`
	Platforms      []Platform     `json:"Platforms"`
	RelatedURLs    []RelatedURL   `json:"RelatedUrls"`
}

// Granule is one umm_json item returned by the archive search interface.
type Granule struct {
	Meta Meta `json:"meta"`
	UMM  UMM  `json:"umm"`
}

// Query constrains a granule search. Zero-valued fields are omitted from
// the request.
type Query struct {
	ShortName string
	ConceptID string
	GranuleUR string

	TemporalFrom time.Time
	TemporalTo   time.Time
	RevisionFrom time.Time
	RevisionTo   time.Time

	// SortKeys stabilizes pagination order. Defaults to
	// provider/start_date/producer_granule_id when empty.
	SortKeys []string
}
