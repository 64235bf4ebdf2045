package infrastructure

import (
	"context"
	"fmt"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/events"
	"luckydraw/infrastructure/observability"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Embed colours per prize tier
const (
	colorSmall  = 0x95a5a6
	colorMedium = 0x3498db
	colorBig    = 0x9b59b6
	colorGrand  = 0xf1c40f
	colorReset  = 0xe67e22
)

// DiscordSession is the subset of *discordgo.Session the announcer uses
type DiscordSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts committed winners and pool resets to an event channel
type DiscordAnnouncer struct {
	session   DiscordSession
	channelID string
	metrics   NotificationMetrics
}

// NewDiscordAnnouncer creates a new announcer for channelID
func NewDiscordAnnouncer(session DiscordSession, channelID string, metrics NotificationMetrics) *DiscordAnnouncer {
	if metrics == nil {
		metrics = noopNotificationMetrics{}
	}
	return &DiscordAnnouncer{
		session:   session,
		channelID: channelID,
		metrics:   metrics,
	}
}

// Subscribe attaches the announcer to the bus
func (a *DiscordAnnouncer) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeOutcomeProduced, a.handle)
	bus.Subscribe(events.EventTypePoolReset, a.handle)
}

func (a *DiscordAnnouncer) handle(ctx context.Context, event events.Event) {
	if err := a.Announce(ctx, event); err != nil {
		a.metrics.IncNotificationFailure(observability.SinkDiscord)
		log.WithError(err).WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": a.channelID,
		}).Error("Failed to announce event on Discord")
	}
}

// Announce posts the embed for event
func (a *DiscordAnnouncer) Announce(ctx context.Context, event events.Event) error {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.OutcomeProducedEvent:
		embed = CreateWinnerEmbed(e)
	case events.PoolResetEvent:
		embed = CreatePoolResetEmbed(e)
	default:
		return nil
	}

	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send embed to channel %s: %w", a.channelID, err)
	}
	return nil
}

// CreateWinnerEmbed creates the announcement for a new or replacement winner
func CreateWinnerEmbed(e events.OutcomeProducedEvent) *discordgo.MessageEmbed {
	title := fmt.Sprintf("🎉 %s wins %s", e.WinnerName, e.PrizeName)
	if e.IsRedraw() {
		title = fmt.Sprintf("🔁 Redraw: %s wins %s", e.WinnerName, e.PrizeName)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Tier",
			Value:  string(e.PrizeCategory),
			Inline: true,
		},
		{
			Name:   "Employee ID",
			Value:  valueOrDash(e.EmployeeID),
			Inline: true,
		},
		{
			Name:   "Department",
			Value:  valueOrDash(e.Department),
			Inline: true,
		},
	}

	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     tierColor(e.PrizeCategory),
		Fields:    fields,
		Timestamp: e.CreatedAt.UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Result " + e.OutcomeID,
		},
	}
}

// CreatePoolResetEmbed creates the announcement for a pool reset
func CreatePoolResetEmbed(e events.PoolResetEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Prize pool reset",
		Color:       colorReset,
		Description: fmt.Sprintf("%d prizes restocked, %d results cleared", e.PrizesRestored, e.OutcomesPurged),
		Timestamp:   e.ResetAt.UTC().Format(time.RFC3339),
	}
}

func tierColor(category entities.PrizeCategory) int {
	switch category {
	case entities.PrizeCategoryGrand:
		return colorGrand
	case entities.PrizeCategoryBig:
		return colorBig
	case entities.PrizeCategoryMedium:
		return colorMedium
	default:
		return colorSmall
	}
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
