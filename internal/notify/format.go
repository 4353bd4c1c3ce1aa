package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"matchcal/internal/match"
)

// FormatTelegram formats a candidate as a Telegram HTML message
func FormatTelegram(cand match.Candidate) string {
	var msg strings.Builder

	msg.WriteString("🎮 <b>Match scheduled!</b>\n\n")
	msg.WriteString(fmt.Sprintf("<b>%s</b>", cand.TeamKey()))
	if cand.Format != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", cand.Format))
	}
	msg.WriteString("\n")

	if cand.Tournament != "" {
		msg.WriteString(fmt.Sprintf("🏆 %s\n", cand.Tournament))
	}
	msg.WriteString(fmt.Sprintf("📅 %s\n", cand.Start.Format("Mon, 2 Jan 15:04 MST")))

	if cand.Link != "" {
		msg.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">Match page</a>", cand.Link))
	}

	return msg.String()
}

// FormatTweet formats a candidate as a plain-text announcement
func FormatTweet(cand match.Candidate) string {
	tweet := "🎮 Match scheduled!\n\n"
	tweet += cand.Summary() + "\n"
	tweet += fmt.Sprintf("📅 %s\n", cand.Start.Format("Mon, 2 Jan 15:04 MST"))

	if cand.Link != "" {
		tweet += "\n" + cand.Link
	}

	// Twitter limit is 280 characters; cut on rune boundaries so the emoji
	// and dash characters never end up split.
	if utf8.RuneCountInString(tweet) > 280 {
		runes := []rune(tweet)
		tweet = string(runes[:277]) + "..."
	}

	return tweet
}
