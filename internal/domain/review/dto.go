package review

import "besaha/internal/pkg/geo"

type SubmitRequest struct {
	Ratings      Ratings          `json:"ratings" validate:"required"`
	Text         string           `json:"text" validate:"max=2000"`
	MediaURLs    []string         `json:"media_urls" validate:"max=10,dive,required,url"`
	UserLocation *geo.Coordinates `json:"user_location"`
}

// View is a review as the API returns it.
type View struct {
	Review
	Badge string `json:"badge"`
}

func NewView(r Review) View {
	return View{Review: r, Badge: r.Badge()}
}

func NewViews(rs []Review) []View {
	out := make([]View, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewView(r))
	}
	return out
}

type ListResponse struct {
	Items  []View `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type OutcomeResponse struct {
	ReviewID string `json:"review_id"`
	Status   Status `json:"status"`
	Reason   string `json:"reason"`
	Applied  bool   `json:"applied"`
}
