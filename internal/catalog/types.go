package catalog

import "github.com/Clark-Hu/reelpick/internal/domain"

// MaxDiscoverResults caps a single provider's discovery page.
const MaxDiscoverResults = 20

// Title is a raw catalog entry. PosterPath is nil when the catalog has no artwork.
type Title struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

// Movie converts a Title into a domain movie. It reports false when the title
// has no poster, which excludes it from every candidate list. An empty
// poster_path counts as missing in discovery and search alike, since a movie
// without artwork cannot be shown in either list.
func (t Title) Movie() (domain.Movie, bool) {
	if t.PosterPath == nil || *t.PosterPath == "" {
		return domain.Movie{}, false
	}
	return domain.Movie{
		ID:          t.ID,
		Title:       t.Title,
		ReleaseDate: t.ReleaseDate,
		PosterPath:  *t.PosterPath,
		VoteAverage: t.VoteAverage,
		Popularity:  t.Popularity,
	}, true
}

// Details is a catalog title with its runtime. Runtime is nil when unknown.
type Details struct {
	Title
	Runtime *int
}

type pagedResponse struct {
	Page    int     `json:"page"`
	Results []Title `json:"results"`
}

type detailsResponse struct {
	Title
	Runtime *int `json:"runtime"`
}

type watchProvidersResponse struct {
	ID      int                        `json:"id"`
	Results map[string]regionProviders `json:"results"`
}

type regionProviders struct {
	Flatrate []providerEntry `json:"flatrate"`
	Rent     []providerEntry `json:"rent"`
	Buy      []providerEntry `json:"buy"`
}

type providerEntry struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

func convertDiscover(payload pagedResponse) []domain.Movie {
	movies := make([]domain.Movie, 0, MaxDiscoverResults)
	for _, raw := range payload.Results {
		movie, ok := raw.Movie()
		if !ok {
			continue
		}
		movies = append(movies, movie)
		if len(movies) == MaxDiscoverResults {
			break
		}
	}
	return movies
}

// convertDetails keeps the runtime exactly as reported. Only a missing or null
// runtime is unknown; 0 is a known value.
func convertDetails(payload detailsResponse) *Details {
	return &Details{
		Title:   payload.Title,
		Runtime: payload.Runtime,
	}
}

func flatrateIDs(payload watchProvidersResponse, region string) []int {
	block, ok := payload.Results[region]
	if !ok {
		return []int{}
	}
	ids := make([]int, 0, len(block.Flatrate))
	for _, p := range block.Flatrate {
		ids = append(ids, p.ProviderID)
	}
	return ids
}
