// Package captions loads timed caption fragments and aligns them with the
// sentences produced by segmentation.
//
// Caption services cut speech into short chunks that ignore sentence
// boundaries. The pipeline joins the chunks into one blob (JoinText), lets the
// NLP layer segment it, and then calls Align to recover, for every sentence,
// the start time of the chunk in which that sentence begins. Alignment is a
// two-cursor prefix walk; any disagreement between the two sequences is
// reported as an *AlignmentError and stops processing of that video.
//
// Chunks come from the YouTube timed-text endpoint (Client, ParseTimedText)
// or from local SRT files (ParseSRT).
package captions
