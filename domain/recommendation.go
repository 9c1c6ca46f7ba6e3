package domain

const (
	ReasonDisabled     = "disabled"
	ReasonThresholdMet = "threshold_met"
	ReasonNoContext    = "no_context"
	ReasonNoCandidates = "no_candidates"
	ReasonUnavailable  = "unavailable"
)

const (
	SourceManual      = "manual"
	SourceAssociation = "association"
	SourceCatalog     = "catalog"
)

// RecommendationRequest is the validated storefront context.
type RecommendationRequest struct {
	Shop      string
	AnchorID  string
	CartIDs   []string
	Subtotal  *float64
	Limit     int
	UnitID    string
	RequestID string
}

type RecommendationItem struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Handle string  `json:"handle"`
	Image  string  `json:"image,omitempty"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

type RecommendationResult struct {
	Recommendations []RecommendationItem `json:"recommendations"`
	Reason          string               `json:"reason,omitempty"`
	Source          string               `json:"source,omitempty"`
	ExperimentID    string               `json:"experimentId,omitempty"`
	VariantID       string               `json:"variantId,omitempty"`
	Cached          bool                 `json:"cached,omitempty"`
}

// DebugCandidate exposes every scoring component of a candidate.
type DebugCandidate struct {
	ProductID       string  `json:"productId"`
	Confidence      float64 `json:"confidence"`
	Lift            float64 `json:"lift"`
	Popularity      float64 `json:"popularity"`
	BaseScore       float64 `json:"baseScore"`
	CTRMultiplier   float64 `json:"ctrMultiplier"`
	FinalScore      float64 `json:"finalScore"`
	Price           float64 `json:"price,omitempty"`
	Handle          string  `json:"handle,omitempty"`
	DroppedBy       string  `json:"droppedBy,omitempty"`
	Accepted        bool    `json:"accepted"`
	AvailabilitySet bool    `json:"availabilityKnown"`
}

// PairAssociation is one row of the admin association analysis.
type PairAssociation struct {
	AnchorID    string  `json:"anchorId"`
	CandidateID string  `json:"candidateId"`
	CoMass      float64 `json:"coMass"`
	Confidence  float64 `json:"confidence"`
	Lift        float64 `json:"lift"`
}
