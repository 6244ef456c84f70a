package sources

import (
	"context"
	"strconv"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threat-monitor/internal/models"
)

func channelPost(channel, text string) *tgmodels.Update {
	return &tgmodels.Update{
		ChannelPost: &tgmodels.Message{
			Text: text,
			Chat: tgmodels.Chat{Title: channel},
		},
	}
}

func TestTelegramAdapterBuffersChannelPosts(t *testing.T) {
	a := &TelegramAdapter{}

	a.handleUpdate(context.Background(), nil, channelPost("leaks", "lockbit victim posted"))
	a.handleUpdate(context.Background(), nil, &tgmodels.Update{
		Message: &tgmodels.Message{
			Text: "dm chatter",
			Chat: tgmodels.Chat{Username: "some_user"},
		},
	})

	records, err := a.Fetch(context.Background(), models.MonitoringSource{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "leaks", records[0].Field("channel"))
	assert.Equal(t, "lockbit victim posted", records[0].Field("text"))
	assert.Equal(t, "some_user", records[1].Field("channel"))

	// buffer is consumed, the next cycle starts empty
	records, err = a.Fetch(context.Background(), models.MonitoringSource{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTelegramAdapterIgnoresEmptyUpdates(t *testing.T) {
	a := &TelegramAdapter{}

	a.handleUpdate(context.Background(), nil, &tgmodels.Update{})
	a.handleUpdate(context.Background(), nil, channelPost("leaks", ""))

	records, err := a.Fetch(context.Background(), models.MonitoringSource{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTelegramAdapterEvictsOldestWhenFull(t *testing.T) {
	a := &TelegramAdapter{}
	for i := 0; i < maxBufferedPosts+5; i++ {
		a.handleUpdate(context.Background(), nil, channelPost("leaks", strconv.Itoa(i)))
	}

	records, err := a.Fetch(context.Background(), models.MonitoringSource{})
	require.NoError(t, err)
	require.Len(t, records, maxBufferedPosts)
	assert.Equal(t, "5", records[0].Field("text"), "oldest posts are dropped first")
}
