// Package timex runs the HeidelTime temporal tagger over caption sentences
// and pulls DATE annotations out of its TimeML output.
//
// HeidelTime is a Java program; HeidelTime.Tag writes the sentences one per
// line to a temp file, runs the jar with a timeout, and splits the TimeML
// body back into annotated lines. Extract turns one annotated line into
// Annotation values. Tags that cannot be decoded come back with Err set so
// callers can mark just that event as malformed.
package timex
