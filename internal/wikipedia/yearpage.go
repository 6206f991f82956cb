package wikipedia

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timelines/internal/events"
	"timelines/internal/textutil"
)

const headingSelector = "h1,h2,h3,h4,h5,h6"

// ParseDocument parses page HTML.
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: parse html: %w", err)
	}
	return doc, nil
}

// MonthEvents extracts the candidate bullets listed under the month heading
// of a year page. ok is false when the page has no anchor for month. A
// bullet that holds a nested list is a date header; each nested bullet
// becomes a candidate prefixed with "<header> - ".
func MonthEvents(doc *goquery.Document, month string) (candidates []events.WikiCandidateEvent, ok bool) {
	anchor := sectionAnchor(doc, month)
	if anchor == nil {
		return nil, false
	}
	list := firstListAfter(anchor)
	if list == nil {
		return nil, true
	}
	source := "year:" + month
	list.ChildrenFiltered("li").Each(func(_ int, bullet *goquery.Selection) {
		nested := bullet.ChildrenFiltered("ul")
		if nested.Length() == 0 {
			candidates = append(candidates, candidateFromBullet(bullet, source))
			return
		}
		header := headerText(bullet)
		nested.ChildrenFiltered("li").Each(func(_ int, sub *goquery.Selection) {
			c := candidateFromBullet(sub, source)
			if header != "" {
				c.Text = header + " - " + c.Text
			}
			candidates = append(candidates, c)
		})
	})
	return candidates, true
}

// sectionAnchor finds the element after which the section's content starts.
// Current page markup wraps headings in div.mw-heading; older markup puts
// the id on a span inside the heading.
func sectionAnchor(doc *goquery.Document, id string) *goquery.Selection {
	target := doc.Find(fmt.Sprintf("[id=%q]", id)).First()
	if target.Length() == 0 {
		return nil
	}
	heading := target
	if !heading.Is(headingSelector) {
		if closest := target.Closest(headingSelector); closest.Length() > 0 {
			heading = closest
		}
	}
	if wrapper := heading.Parent(); wrapper.HasClass("mw-heading") {
		return wrapper
	}
	return heading
}

func isHeading(sel *goquery.Selection) bool {
	return sel.Is(headingSelector) || sel.HasClass("mw-heading")
}

func firstListAfter(anchor *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	anchor.NextAll().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
		if isHeading(sibling) {
			return false
		}
		if goquery.NodeName(sibling) == "ul" {
			found = sibling
			return false
		}
		return true
	})
	return found
}

func headerText(bullet *goquery.Selection) string {
	clone := bullet.Clone()
	clone.Find("ul").Remove()
	return textutil.NormalizeSpace(clone.Text())
}

func candidateFromBullet(bullet *goquery.Selection, source string) events.WikiCandidateEvent {
	links := []string{}
	bullet.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			links = append(links, href)
		}
	})
	return events.WikiCandidateEvent{
		Text:   textutil.NormalizeSpace(bullet.Text()),
		Links:  links,
		Source: source,
	}
}
