package domain

// StreamingService identifies a subscription service in the catalog's provider taxonomy.
type StreamingService struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Genre is used to vary discovery queries between sessions.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var streamingServices = []StreamingService{
	{ID: 8, Name: "Netflix", Logo: "N"},
	{ID: 9, Name: "Prime Video", Logo: "P"},
	{ID: 337, Name: "Disney+", Logo: "D+"},
	{ID: 15, Name: "Hulu", Logo: "H"},
	{ID: 350, Name: "Apple TV+", Logo: "A"},
	{ID: 1899, Name: "Max", Logo: "M"},
	{ID: 386, Name: "Peacock", Logo: "Pc"},
	{ID: 531, Name: "Paramount+", Logo: "P+"},
}

var popularGenres = []Genre{
	{ID: 28, Name: "Action"},
	{ID: 35, Name: "Comedy"},
	{ID: 18, Name: "Drama"},
	{ID: 27, Name: "Horror"},
	{ID: 878, Name: "Sci-Fi"},
	{ID: 53, Name: "Thriller"},
	{ID: 12, Name: "Adventure"},
	{ID: 80, Name: "Crime"},
}

// StreamingServices returns a copy of the supported service table in display order.
func StreamingServices() []StreamingService {
	out := make([]StreamingService, len(streamingServices))
	copy(out, streamingServices)
	return out
}

// PopularGenres returns a copy of the genre table used for discovery.
func PopularGenres() []Genre {
	out := make([]Genre, len(popularGenres))
	copy(out, popularGenres)
	return out
}

// LookupService reports the service registered under id, if any.
func LookupService(id int) (StreamingService, bool) {
	for _, svc := range streamingServices {
		if svc.ID == id {
			return svc, true
		}
	}
	return StreamingService{}, false
}
