package notify

import (
	"context"
	"fmt"
	"strings"

	"council/internal/models"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier posts outcome events to a Discord channel.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("failed to open discord session: %w", err)
	}
	return &DiscordNotifier{session: dg, channelID: channelID}, nil
}

func (n *DiscordNotifier) Publish(_ context.Context, event models.OutcomeEvent) error {
	_, err := n.session.ChannelMessageSend(n.channelID, formatEvent(event))
	return err
}

// Close shuts down the underlying Discord session.
func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}

func formatEvent(event models.OutcomeEvent) string {
	switch event.Kind {
	case models.EventKindProposalCreated:
		return fmt.Sprintf("📜 New proposal **%s** is open for voting.", event.Title)
	case models.EventKindVoteCast:
		return fmt.Sprintf("🗳️ A vote was cast on **%s**.", event.Title)
	case models.EventKindVoteReminder:
		mentions := make([]string, 0, len(event.VoterIDs))
		for _, id := range event.VoterIDs {
			mentions = append(mentions, "<@"+id+">")
		}
		return fmt.Sprintf("⏰ Voting on **%s** closes soon. Still waiting on: %s",
			event.Title, strings.Join(mentions, " "))
	default:
		return fmt.Sprintf("⚖️ Proposal **%s** is now %s.", event.Title, event.Status)
	}
}
