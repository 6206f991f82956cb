// Package wikipedia retrieves and parses the encyclopedia pages used as
// candidate event descriptions.
//
// Client fetches rendered article HTML with a shared rate limiter, an
// in-flight cap, request coalescing, bounded retries and an optional page
// cache. ParseYearPage and ParseDayPage turn year pages ("/wiki/2011") and
// day pages ("/wiki/March_15") into candidate bullets. CandidateFetcher ties
// both together for one parsed date and annotates every candidate with
// entities. APIClient talks to the MediaWiki query API for title resolution.
package wikipedia
