package report

import "time"

// ReviewStatus tracks where a report sits in supervisory review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending_review"
	ReviewReviewed ReviewStatus = "reviewed"
)

// DailyReport is the mandatory structured write-up that follows a
// completed session. The session reference is optional on the wire but,
// when present, must point at a completed session.
type DailyReport struct {
	ID              string       `json:"id"`
	ChildID         string       `json:"childId"`
	ObserverID      string       `json:"observerId"`
	SessionID       string       `json:"sessionId,omitempty"`
	ReportDate      string       `json:"reportDate"`
	SessionSummary  string       `json:"sessionSummary"`
	ChildMood       string       `json:"childMood"`
	EngagementLevel string       `json:"engagementLevel"`
	KeyObservations string       `json:"keyObservations"`
	Concerns        string       `json:"concerns,omitempty"`
	PositiveMoments string       `json:"positiveMoments,omitempty"`
	Recommendations string       `json:"recommendations,omitempty"`
	ReviewStatus    ReviewStatus `json:"reviewStatus"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// DateLayout is the wire format for ReportDate.
const DateLayout = "2006-01-02"
