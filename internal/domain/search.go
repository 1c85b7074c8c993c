package domain

// SearchHit is one task matched by a full-text search, with the list it
// belongs to.
type SearchHit struct {
	ListID    string  `json:"listId"`
	ListTitle string  `json:"listTitle"`
	Task      Task    `json:"task"`
	Score     float64 `json:"score"`
}
