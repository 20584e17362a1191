package restaurant

// View adds the derived overall rating; a nil rating renders as "New".
type View struct {
	Restaurant
	Rating *float64 `json:"rating"`
}

func NewView(r Restaurant) View {
	return View{Restaurant: r, Rating: r.Rating()}
}

type ListResponse struct {
	Items  []View `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
