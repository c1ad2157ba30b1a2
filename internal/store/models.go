package store

// Stats describes what the database holds.
type Stats struct {
	TotalBlocks     int     `json:"total_blocks"`
	FilledBlocks    int     `json:"filled_blocks"`
	FillRate        float64 `json:"fill_rate"`
	FirstDate       string  `json:"first_date,omitempty"`
	LastDate        string  `json:"last_date,omitempty"`
	TotalCategories int     `json:"total_categories"`
}
