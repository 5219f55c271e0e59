package domain

// Movie is a catalog title as it flows between pipeline stages. Values are
// never mutated once built; stages derive new slices instead.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

// SearchResult is a Movie annotated with availability on the caller's services.
// Available is true exactly when AvailableOn is non-empty.
type SearchResult struct {
	Movie
	Available   bool     `json:"available"`
	AvailableOn []string `json:"availableOn"`
}

// NewSearchResult builds a SearchResult keeping Available consistent with AvailableOn.
func NewSearchResult(movie Movie, availableOn []string) SearchResult {
	if availableOn == nil {
		availableOn = []string{}
	}
	return SearchResult{
		Movie:       movie,
		Available:   len(availableOn) > 0,
		AvailableOn: availableOn,
	}
}

// RuntimeMap maps movie IDs to runtime minutes; nil means unknown.
type RuntimeMap map[int]*int
