// Package slack renders recap reports as Block Kit messages and posts them.
package slack

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	slackgo "github.com/slack-go/slack"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
)

// DefaultIcon is shown for members without an avatar.
const DefaultIcon = "https://st4.depositphotos.com/4329009/19956/v/450/depositphotos_199564354-stock-illustration-creative-vector-illustration-default-avatar.jpg"

var rankEmoji = map[int]string{
	1: ":one:",
	2: ":two:",
	3: ":three:",
}

var categoryEmoji = map[leaderboard.Category]string{
	leaderboard.Running: ":running:",
	leaderboard.Biking:  ":bicyclist:",
	leaderboard.Walking: ":walking:",
}

// Headline summarises goal progress. A non-positive goal reports distance
// covered instead of a percentage.
func Headline(r *leaderboard.Report) string {
	pct, ok := r.PercentComplete()
	if !ok {
		return fmt.Sprintf("%s has covered %dkm so far!", r.TeamName, int(r.Progress))
	}
	return fmt.Sprintf("%s is at %d%% of its goal to %skm!", r.TeamName, pct, formatKm(r.GoalDistance))
}

// Message is a rendered recap ready for chat.postMessage or a webhook.
type Message struct {
	Channel string
	Text    string
	Blocks  []slackgo.Block
}

// Webhook converts m into an incoming-webhook payload.
func (m Message) Webhook() *slackgo.WebhookMessage {
	return &slackgo.WebhookMessage{
		Channel: m.Channel,
		Text:    m.Text,
		Blocks:  &slackgo.Blocks{BlockSet: m.Blocks},
	}
}

// BuildMessage renders r into a message addressed to channel.
func BuildMessage(channel string, r *leaderboard.Report) Message {
	return Message{Channel: channel, Text: Headline(r), Blocks: BuildBlocks(r)}
}

// BuildBlocks renders the headline, the overall leaderboard and the
// per-category recap.
func BuildBlocks(r *leaderboard.Report) []slackgo.Block {
	blocks := []slackgo.Block{header(Headline(r))}

	blocks = append(blocks, header("Top Overall Distance:"))
	for i, m := range r.Leaders {
		rank := m.Rank
		if rank <= 0 {
			rank = i + 1
		}
		name := m.Name()
		blocks = append(blocks, section(iconOrDefault(m.Icon), name,
			RankEmoji(rank),
			"*"+name+"*",
			" ",
			fmt.Sprintf("%dkm", int(m.DistanceKm)),
		))
	}

	blocks = append(blocks, header(PeriodTitle(r.Period)))
	for _, l := range r.RankedCategoryLeaders() {
		name := l.Name()
		blocks = append(blocks, section(iconOrDefault(l.Icon), name,
			categoryEmoji[l.Category]+" "+l.Category.String(),
			"*"+name+"*",
			" ",
			fmt.Sprintf("%dkm", int(l.DistanceKm)),
			" ",
			FormatDuration(l.Duration),
		))
	}
	return blocks
}

func header(text string) *slackgo.HeaderBlock {
	return slackgo.NewHeaderBlock(slackgo.NewTextBlockObject(slackgo.PlainTextType, text, true, false))
}

// section lays fields out two per row with the image on the right.
func section(imageURL, altText string, fields ...string) *slackgo.SectionBlock {
	objs := make([]*slackgo.TextBlockObject, 0, len(fields))
	for _, f := range fields {
		objs = append(objs, slackgo.NewTextBlockObject(slackgo.MarkdownType, f, false, false))
	}
	image := slackgo.NewImageBlockElement(imageURL, altText)
	return slackgo.NewSectionBlock(nil, objs, slackgo.NewAccessory(image))
}

// RankEmoji returns the medal-style emoji for ranks one to three and "#N" otherwise.
func RankEmoji(rank int) string {
	if e, ok := rankEmoji[rank]; ok {
		return e
	}
	return "#" + strconv.Itoa(rank)
}

// PeriodTitle names the reporting window of the category recap.
func PeriodTitle(p leaderboard.Period) string {
	if !p.Rolling {
		if p.Start.IsZero() {
			return "All Time Recap:"
		}
		return "Since " + p.Start.Format("Jan 2, 2006") + " Recap:"
	}
	window := p.End.Sub(p.Start)
	switch {
	case window == 7*24*time.Hour:
		return "Last Week Recap:"
	case window%(24*time.Hour) == 0:
		return fmt.Sprintf("Last %d Days Recap:", int(window/(24*time.Hour)))
	default:
		return fmt.Sprintf("Last %d Hours Recap:", int(window/time.Hour))
	}
}

// FormatDuration renders d as "N days H hours M mins", omitting zero parts.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d mins", minutes))
	}
	if len(parts) == 0 {
		return "0 mins"
	}
	return strings.Join(parts, " ")
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}

func iconOrDefault(icon string) string {
	if strings.TrimSpace(icon) == "" {
		return DefaultIcon
	}
	return icon
}
