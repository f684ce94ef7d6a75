package export

import "unicode/utf8"

// BlockCharLimit is the per-block character cap imposed by block-structured
// destination stores.
const BlockCharLimit = 2000

// Chunk splits text into maximal substrings of at most maxLen characters,
// preserving order. Concatenating the chunks reproduces the input exactly,
// byte for byte. Splitting advances by rune so multi-byte characters are
// never cut in half; an invalid byte counts as one character and is carried
// through unchanged.
func Chunk(text string, maxLen int) []string {
	if text == "" || maxLen <= 0 {
		return nil
	}

	var chunks []string

	start := 0
	count := 0
	for pos := 0; pos < len(text); {
		_, size := utf8.DecodeRuneInString(text[pos:])
		if size == 0 {
			size = 1
		}
		pos += size
		count++

		if count == maxLen {
			chunks = append(chunks, text[start:pos])
			start = pos
			count = 0
		}
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}

	return chunks
}
