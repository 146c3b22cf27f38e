// internal/auth/courses.go
package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// pkIDToken marks the course identifier inside a course link's URL, e.g.
// `...?id=PkId{key=_12345_1,dataType=...}`.
const pkIDToken = "id=PkId{key="

// extractCourses reads the course list from the authenticated landing page.
// It never fails the login: a markup change here degrades to an empty list
// with a logged diagnostic.
func (a *Authenticator) extractCourses(ctx context.Context, log *zap.Logger) []CourseRecord {
	// Give the portlet's dynamic content a moment to render.
	if err := sleep(ctx, a.pacing.CourseSettle); err != nil {
		return nil
	}

	sel := a.portal.Selectors.CourseList
	if err := a.handle.WaitVisible(ctx, sel, a.pacing.CourseListWait); err != nil {
		log.Error("Failed to find course list; the portal markup probably changed again", zap.Error(err))
		return nil
	}

	markup, err := a.handle.OuterHTML(ctx, sel)
	if err != nil {
		log.Error("Failed to read course list markup", zap.Error(err))
		return nil
	}

	base, err := a.handle.Location(ctx)
	if err != nil {
		log.Debug("Failed to read location for URL resolution", zap.Error(err))
		base = ""
	}

	courses, err := parseCourseList(markup, base)
	if err != nil {
		log.Error("Failed to parse course list markup", zap.Error(err))
		return nil
	}

	log.Info("Extracted course list", zap.Int("count", len(courses)))
	return courses
}

// parseCourseList extracts course records from the list container's markup,
// resolving relative hrefs against baseURL. Links missing a derivable name
// or id are skipped.
func parseCourseList(markup, baseURL string) ([]CourseRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if baseURL != "" {
		base, _ = url.Parse(baseURL)
	}

	var courses []CourseRecord
	doc.Find("li a").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		name := courseName(strings.TrimSpace(link.Text()))
		id := courseID(href)
		if name == "" || id == "" || href == "" {
			return
		}

		resolved := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}

		courses = append(courses, CourseRecord{Name: name, ID: id, URL: resolved})
	})
	return courses, nil
}

// courseName derives the display name from raw link text: the substring
// after the last colon (ASCII or full-width) and before the first following
// parenthesis (either kind), trimmed.
func courseName(raw string) string {
	runes := []rune(raw)

	start := 0
	for i, r := range runes {
		if r == ':' || r == '：' {
			start = i + 1
		}
	}

	end := len(runes)
	for i := start; i < len(runes); i++ {
		if runes[i] == '(' || runes[i] == '（' {
			end = i
			break
		}
	}

	return strings.TrimSpace(string(runes[start:end]))
}

// courseID pulls the course id out of the PkId token in the link URL. The
// token must be terminated by a comma; anything else is malformed and the
// record is dropped.
func courseID(href string) string {
	start := strings.Index(href, pkIDToken)
	if start == -1 {
		return ""
	}
	start += len(pkIDToken)

	end := strings.Index(href[start:], ",")
	if end == -1 {
		return ""
	}
	return href[start : start+end]
}
