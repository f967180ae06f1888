package models

// Image represents a single hit returned by the image search API
type Image struct {
	ID            int    `json:"id"`
	PageURL       string `json:"pageURL"`
	Type          string `json:"type"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	Comments      int    `json:"comments"`
	UserID        int    `json:"user_id"`
	User          string `json:"user"`
}

// SearchPage is one page of search results together with the total number
// of hits reachable through paging
type SearchPage struct {
	Total     int     `json:"total"`
	TotalHits int     `json:"totalHits"`
	Hits      []Image `json:"hits"`
}
