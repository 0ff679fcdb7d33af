package study

// Mindmap is one concept diagram produced by the document converter.
// Content holds the diagram source text.
type Mindmap struct {
	Title   string `json:"title" validate:"notblank"`
	Content string `json:"content"`
}
