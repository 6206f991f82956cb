// Package textutil provides text processing utilities shared by the caption
// aligner, the candidate fetcher, and the similarity matcher.
//
// The primary use cases are:
//   - Collapsing whitespace so caption chunks and segmented sentences compare
//     character for character
//   - Unicode NFC normalization of entity text before set comparison
//   - Jaccard similarity over generic sets
//   - Sanitizing tokens for temp files and other filesystem names
package textutil
