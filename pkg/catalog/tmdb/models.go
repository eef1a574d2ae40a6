package tmdb

// Movie is one record from the movie catalog. GenreIDs is populated by
// search responses, Genres by a detail fetch; Genre.IDs collapses both.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	GenreIDs    []int   `json:"genre_ids"`
	Genres      []Genre `json:"genres"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreTagIDs merges the two genre representations into one id list.
func (m Movie) GenreTagIDs() []int {
	ids := make([]int, 0, len(m.GenreIDs)+len(m.Genres))
	ids = append(ids, m.GenreIDs...)
	for _, g := range m.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// Year returns the four digit release year, empty when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

type searchMoviesResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}
