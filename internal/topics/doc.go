// Package topics turns the article links of a matched candidate into
// knowledge-base identifiers via the MediaWiki query API.
package topics
