package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord posts alerts to a single channel.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord open: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Send(text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, text); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

func (d *Discord) Close() error { return d.session.Close() }

// FromConfig returns a Discord notifier when both token and channel are set,
// the no-op otherwise.
func FromConfig(token, channelID string) (Notifier, error) {
	if token == "" || channelID == "" {
		return Noop{}, nil
	}
	return NewDiscord(token, channelID)
}
