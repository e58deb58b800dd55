package chunk

// Settings configures splitting and preprocessing behavior. Size and Overlap
// are measured in runes.
type Settings struct {
	Size              int
	Overlap           int
	NormalizeNewlines bool
}

// Piece is one split segment. Overlap is the byte length of the leading
// portion of Text that repeats the tail of the previous piece, so joining
// Text[Overlap:] across all pieces reproduces the split input.
type Piece struct {
	Text    string
	Overlap int
}

// Chunk is a processed slice ready for embedding and storage.
type Chunk struct {
	Index   int
	Content string
	Overlap int
	Chars   int
}
