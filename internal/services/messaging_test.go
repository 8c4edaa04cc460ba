package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/pkg/errors"
)

func TestDirectChannelIsSharedBetweenPeers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	ch1, err := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)
	assert.NoError(t, err)
	ch2, err := env.chat.GetOrCreateDirectChannel(bob.ID, alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, ch1.ID, ch2.ID)
	assert.Equal(t, models.ChannelTypeDirect, ch1.Type)

	var count int64
	env.db.Model(&models.ChatChannel{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = env.chat.GetOrCreateDirectChannel(alice.ID, alice.ID)
	assert.Equal(t, errors.ErrInvalidTarget, err)

	_, err = env.chat.GetOrCreateDirectChannel(alice.ID, "ghost")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestSendMessageUpdatesPreview(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	channel, _ := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)

	msg, err := env.chat.SendMessage(channel.ID, alice.ID, "see you at the library", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Alice", msg.SenderName)

	var updated models.ChatChannel
	env.db.First(&updated, "id = ?", channel.ID)
	assert.Equal(t, "see you at the library", updated.LastMessage)
	assert.Equal(t, alice.ID, updated.LastSenderID)
	assert.NotNil(t, updated.LastMessageAt)
}

func TestSendMessageAttachmentOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")
	channel, _ := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)

	_, err := env.chat.SendMessage(channel.ID, alice.ID, "", nil)
	assert.Equal(t, errors.ErrEmptyMessage, err)

	msg, err := env.chat.SendMessage(channel.ID, alice.ID, "", &Attachment{
		URL:  "https://cdn.example.com/notes.pdf",
		Type: "application/pdf",
		Name: "notes.pdf",
		Size: 1024,
	})
	assert.NoError(t, err)
	assert.Equal(t, "notes.pdf", msg.AttachmentName)

	var updated models.ChatChannel
	env.db.First(&updated, "id = ?", channel.ID)
	assert.Equal(t, "Sent an attachment", updated.LastMessage)
}

func TestSendMessageParticipantOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")
	eve := env.createUser(t, "eve", "Eve")
	channel, _ := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)

	_, err := env.chat.SendMessage(channel.ID, eve.ID, "let me in", nil)
	assert.Equal(t, errors.ErrForbidden, err)

	_, err = env.chat.SendMessage("no-such-channel", alice.ID, "hi", nil)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	_, err = env.chat.ListMessages(channel.ID, eve.ID)
	assert.Equal(t, errors.ErrForbidden, err)
}

func TestListChannelsUnreadCounts(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")
	channel, _ := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)

	env.chat.SendMessage(channel.ID, alice.ID, "first", nil)
	env.chat.SendMessage(channel.ID, alice.ID, "second", nil)

	summaries, err := env.chat.ListChannels(bob.ID)
	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)

	// Own messages never count as unread.
	own, _ := env.chat.ListChannels(alice.ID)
	assert.Equal(t, int64(0), own[0].UnreadCount)

	assert.NoError(t, env.chat.MarkChannelRead(channel.ID, bob.ID))
	summaries, _ = env.chat.ListChannels(bob.ID)
	assert.Equal(t, int64(0), summaries[0].UnreadCount)

	// New traffic after the read marker counts again.
	time.Sleep(5 * time.Millisecond)
	env.chat.SendMessage(channel.ID, alice.ID, "third", nil)
	summaries, _ = env.chat.ListChannels(bob.ID)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
}

func TestMarkChannelReadRequiresParticipation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")
	eve := env.createUser(t, "eve", "Eve")
	channel, _ := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)

	assert.Equal(t, errors.ErrForbidden, env.chat.MarkChannelRead(channel.ID, eve.ID))
}

func TestListMessagesOrdering(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")
	channel, _ := env.chat.GetOrCreateDirectChannel(alice.ID, bob.ID)

	env.chat.SendMessage(channel.ID, alice.ID, "one", nil)
	time.Sleep(2 * time.Millisecond)
	env.chat.SendMessage(channel.ID, bob.ID, "two", nil)

	messages, err := env.chat.ListMessages(channel.ID, alice.ID)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "two", messages[1].Content)
}

func TestGroupChannelLifecycle(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "AI Study Group", 0)

	channel, err := env.chat.GetOrCreateGroupChannel(project.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ChannelTypeProjectGroup, channel.Type)
	assert.Equal(t, "AI Study Group", channel.GroupName)

	// Idempotent: same channel on repeat.
	again, _ := env.chat.GetOrCreateGroupChannel(project.ID)
	assert.Equal(t, channel.ID, again.ID)

	// Only the creator may rename; direct channels cannot be renamed.
	assert.Equal(t, errors.ErrForbidden, env.chat.RenameGroup(channel.ID, "AI Guild", u3.ID))
	assert.NoError(t, env.chat.RenameGroup(channel.ID, "AI Guild", creator.ID))

	var updated models.ChatChannel
	env.db.First(&updated, "id = ?", channel.ID)
	assert.Equal(t, "AI Guild", updated.GroupName)

	direct, _ := env.chat.GetOrCreateDirectChannel(creator.ID, u3.ID)
	err = env.chat.RenameGroup(direct.ID, "nope", creator.ID)
	assert.True(t, errors.Is(err, "INVALID_REQUEST"))
}
