package tvdb

// Series is one series record from the series catalog.
type Series struct {
	ID         int      `json:"id"`
	SeriesName string   `json:"seriesName"`
	Network    string   `json:"network"`
	Status     string   `json:"status"`
	FirstAired string   `json:"firstAired"`
	Aliases    []string `json:"aliases"`
}

// Episode is one aired episode of a series.
type Episode struct {
	ID                 int    `json:"id"`
	AiredSeason        int    `json:"airedSeason"`
	AiredEpisodeNumber int    `json:"airedEpisodeNumber"`
	EpisodeName        string `json:"episodeName"`
	FirstAired         string `json:"firstAired"`
}

type loginRequest struct {
	APIKey string `json:"apikey"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type searchSeriesResponse struct {
	Data []Series `json:"data"`
}

type seriesResponse struct {
	Data Series `json:"data"`
}

type episodesResponse struct {
	Data  []Episode `json:"data"`
	Links struct {
		Next *int `json:"next"`
		Last *int `json:"last"`
	} `json:"links"`
}
