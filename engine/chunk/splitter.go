package chunk

import (
	"strings"
	"unicode/utf8"
)

// separators in priority order; the empty string marks the character-level
// base case.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Split divides text into ordered pieces of at most size runes, carrying up
// to overlap trailing runes from each piece into the next. Separators stay
// attached to the segment they terminate, so the input is reproducible from
// the output. Callers validate size and overlap before calling.
func Split(text string, size, overlap int) []Piece {
	if text == "" {
		return nil
	}
	elements := splitRecursive(text, size, separators)
	return pack(elements, size, overlap)
}

// splitRecursive breaks text into elementary segments, each at most size
// runes, trying each separator in priority order and descending only into
// segments that still exceed the limit.
func splitRecursive(text string, size int, seps []string) []string {
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}
	sep := seps[0]
	if sep == "" {
		return sliceRunes(text, size)
	}
	parts := strings.SplitAfter(text, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) > size {
			out = append(out, splitRecursive(part, size, seps[1:])...)
			continue
		}
		out = append(out, part)
	}
	return out
}

// sliceRunes hard-slices text into segments of exactly size runes, with a
// shorter final segment.
func sliceRunes(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// pack greedily joins consecutive elements into pieces of at most size
// runes. Each piece after the first starts with a carried tail of the
// previous piece, bounded by element boundaries where a whole element fits
// within the overlap budget and by a raw rune slice otherwise.
func pack(elements []string, size, overlap int) []Piece {
	pieces := make([]Piece, 0, len(elements))
	var prev []string
	i := 0
	for i < len(elements) {
		carry := ""
		if len(pieces) > 0 && overlap > 0 {
			budget := overlap
			if room := size - utf8.RuneCountInString(elements[i]); room < budget {
				budget = room
			}
			if budget > 0 {
				carry = tailCarry(prev, budget)
			}
		}
		var sb strings.Builder
		sb.WriteString(carry)
		length := utf8.RuneCountInString(carry)
		var current []string
		for i < len(elements) {
			elen := utf8.RuneCountInString(elements[i])
			if len(current) > 0 && length+elen > size {
				break
			}
			sb.WriteString(elements[i])
			current = append(current, elements[i])
			length += elen
			i++
		}
		pieces = append(pieces, Piece{Text: sb.String(), Overlap: len(carry)})
		prev = current
	}
	return pieces
}

// tailCarry returns up to budget trailing runes of the previous piece,
// preferring whole trailing elements and falling back to a rune slice of
// the last element when even it alone exceeds the budget.
func tailCarry(prev []string, budget int) string {
	total := 0
	start := len(prev)
	for start > 0 {
		n := utf8.RuneCountInString(prev[start-1])
		if total+n > budget {
			break
		}
		total += n
		start--
	}
	if start < len(prev) {
		return strings.Join(prev[start:], "")
	}
	last := []rune(prev[len(prev)-1])
	if budget > len(last) {
		budget = len(last)
	}
	return string(last[len(last)-budget:])
}
