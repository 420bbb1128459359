package domain

// Rect is an axis-aligned bounding rectangle in page coordinates.
type Rect struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y1 float64 `json:"y1"`
	Y2 float64 `json:"y2"`
}

// Occurrence is one matched location of a keyword.
type Occurrence struct {
	Page     int  `json:"page"`
	Location Rect `json:"location"`
}

// KeywordMatch aggregates every occurrence of one keyword in a document.
type KeywordMatch struct {
	Keyword   string       `json:"keyword"`
	Occs      []Occurrence `json:"occs"`
	TotalOccs int          `json:"total_occs"`
}

// Statistics summarizes a processed document.
type Statistics struct {
	NumPages int `json:"num_pages"`
	NumEnts  int `json:"num_ents"`
	NumKwds  int `json:"num_kwds"`
	NumWds   int `json:"num_wds"`
	NumChars int `json:"num_chars"`
}

// Analysis is the full result of one successful processing attempt.
// Assembled incrementally by the pipeline stages; immutable once reported.
type Analysis struct {
	WorkerVersion     string         `json:"worker_version"`
	InputFile         string         `json:"input_file"`
	InputStatus       Status         `json:"input_status"`
	OCRFile           string         `json:"ocr_file"`
	Text              string         `json:"text"`
	TextFile          string         `json:"text_file,omitempty"`
	OCRQuality        float64        `json:"ocr_quality"`
	KeywordsHash      string         `json:"keywords_hash"`
	HighlightFile     string         `json:"highlight_file"`
	HighlightMetadata []KeywordMatch `json:"highlight_metadata"`
	Statistics        Statistics     `json:"statistics"`
	ProcessingTime    float64        `json:"processing_time"`
}
