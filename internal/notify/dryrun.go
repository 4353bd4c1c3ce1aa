package notify

import (
	"fmt"

	"matchcal/internal/match"
)

// DryRunNotifier prints what would be announced without actually posting
type DryRunNotifier struct{}

// NewDryRunNotifier creates a new dry-run notifier
func NewDryRunNotifier() *DryRunNotifier {
	return &DryRunNotifier{}
}

// Notify prints the announcements that would be posted
func (n *DryRunNotifier) Notify(candidates []match.Candidate) error {
	for i, cand := range candidates {
		msg := FormatTweet(cand)
		fmt.Printf("--- Announcement %d/%d ---\n", i+1, len(candidates))
		fmt.Println(msg)
		fmt.Println()
	}
	return nil
}
