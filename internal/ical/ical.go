// Package ical exports discovered match candidates as an iCalendar feed, for
// users who subscribe a file instead of granting calendar API access.
package ical

import (
	"crypto/sha1"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"matchcal/internal/match"
)

// Generate serializes candidates into a VCALENDAR document.
func Generate(candidates []match.Candidate) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//matchcal//matchcal//EN")

	now := time.Now().UTC()
	for _, cand := range candidates {
		ev := cal.AddEvent(eventUID(cand))
		ev.SetDtStampTime(now)
		ev.SetStartAt(cand.Start)
		ev.SetEndAt(cand.End)
		ev.SetSummary(cand.Summary())
		if cand.Tournament != "" {
			ev.SetLocation(cand.Tournament)
		}
		if cand.Link != "" {
			ev.SetURL(cand.Link)
			ev.SetDescription("Match page: " + cand.Link)
		}
	}

	return cal.Serialize()
}

// eventUID derives a stable UID from the candidate identity so re-exports
// update rather than duplicate entries in subscribing clients.
func eventUID(cand match.Candidate) string {
	h := sha1.New()
	h.Write([]byte(cand.Key()))
	return fmt.Sprintf("%x@matchcal", h.Sum(nil))
}
