// Package notify announces newly created or rescheduled calendar entries.
package notify

import (
	"matchcal/internal/match"
)

// Notifier defines the interface for posting match announcements
type Notifier interface {
	// Notify posts announcements for the given candidates
	Notify(candidates []match.Candidate) error
}

// Multi fans announcements out to every configured sink. The first failure
// stops the fan-out and is returned.
type Multi []Notifier

// Notify posts to each sink in order
func (m Multi) Notify(candidates []match.Candidate) error {
	for _, n := range m {
		if err := n.Notify(candidates); err != nil {
			return err
		}
	}
	return nil
}
