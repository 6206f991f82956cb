// Package matching scores candidate event descriptions against the entity
// context of a temporal event and picks the best one.
//
// Two Jaccard similarities are computed per candidate: one against the
// sentence's own entities (item) and one against the sentence plus its
// neighbours (window). Each has its own threshold. Candidates passing either
// are merged into one ascending index list and the highest score wins, with
// item-qualified entries preferred on ties and lower indexes after that.
// Every candidate's score pair is returned whether or not anything matched.
package matching
