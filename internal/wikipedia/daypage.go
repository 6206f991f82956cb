package wikipedia

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"timelines/internal/events"
)

// DayEvent finds, in the Events section of a day page, the first bullet
// linking to the page for year. ok is false when no bullet links there or the
// page has no Events section.
func DayEvent(doc *goquery.Document, year string) (events.WikiCandidateEvent, bool) {
	anchor := sectionAnchor(doc, "Events")
	if anchor == nil {
		return events.WikiCandidateEvent{}, false
	}
	level := headingLevel(anchor)
	selector := fmt.Sprintf("a[href=%q]", "/wiki/"+year)

	var (
		found events.WikiCandidateEvent
		ok    bool
	)
	anchor.NextAll().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
		if isHeading(sibling) && headingLevel(sibling) <= level {
			return false
		}
		link := sibling.Find(selector).First()
		if link.Length() == 0 {
			return true
		}
		bullet := link.Closest("li")
		if bullet.Length() == 0 {
			return true
		}
		found, ok = candidateFromBullet(bullet, "day"), true
		return false
	})
	return found, ok
}

// headingLevel returns 1-6 for a heading or its wrapper, 7 otherwise.
func headingLevel(sel *goquery.Selection) int {
	heading := sel
	if sel.HasClass("mw-heading") {
		heading = sel.ChildrenFiltered(headingSelector).First()
	}
	switch goquery.NodeName(heading) {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	default:
		return 7
	}
}
