// Command timelines matches dated events mentioned in video captions against
// Wikipedia's year and day pages.
//
// Subcommands:
//   - match: run the full pipeline over caption files or video ids and store
//     the results
//   - show: list stored runs or print the latest run of one video
//   - date: parse temporal tags without touching the network
//   - candidates: print the candidate events for a date
//   - resolve: map article links to Wikidata identifiers
//   - cache prune: drop expired Wikipedia pages from the page cache
//   - config init|validate: manage the TOML configuration
//
// Configuration is loaded once per invocation from --config, falling back to
// ~/.config/timelines/config.toml. A .env file in the working directory is
// loaded before configuration so TIMELINES_USER_AGENT and HEIDELTIME_JAR can
// be kept out of the config file.
package main
