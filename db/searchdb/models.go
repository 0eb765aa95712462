package searchdb

// document is what gets indexed. The ref is the document ID and the excerpt is
// kept out of the index.
type document struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Hit struct {
	Ref   string  `json:"ref"`
	Score float64 `json:"score"`
}
