package reconcile

import (
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/events"
)

// Section counts the rows one part of a run created and updated.
type Section struct {
	Name    string `json:"name"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}

func (s *Section) record(created bool) {
	if created {
		s.Created++
	} else {
		s.Updated++
	}
}

// Report summarizes a Prepare run. Sections are in run order.
type Report struct {
	Sections   []*Section `json:"sections"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

func (r *Report) section(name string) *Section {
	s := &Section{Name: name}
	r.Sections = append(r.Sections, s)
	return s
}

// Section returns the counts for name, or nil if the run had no such section.
func (r *Report) Section(name string) *Section {
	for _, s := range r.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Created returns the number of rows created across all sections.
func (r *Report) Created() int {
	n := 0
	for _, s := range r.Sections {
		n += s.Created
	}
	return n
}

// Updated returns the number of rows updated across all sections.
func (r *Report) Updated() int {
	n := 0
	for _, s := range r.Sections {
		n += s.Updated
	}
	return n
}

// Event returns the payload published when the run finishes.
func (r *Report) Event() events.Prepared {
	sections := make(map[string]events.SectionCounts, len(r.Sections))
	for _, s := range r.Sections {
		sections[s.Name] = events.SectionCounts{Created: s.Created, Updated: s.Updated}
	}
	return events.Prepared{Sections: sections, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt}
}
