package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/pkg/errors"
)

func TestSendAndAcceptCreatesMutualConnection(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	req, err := env.connections.SendRequest(alice.ID, bob.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ConnectionRequestPending, req.Status)

	err = env.connections.AcceptRequest(req.ID, bob.ID)
	assert.NoError(t, err)

	aliceConns, _ := env.connections.ListConnectionIDs(alice.ID)
	bobConns, _ := env.connections.ListConnectionIDs(bob.ID)
	assert.Contains(t, aliceConns, bob.ID)
	assert.Contains(t, bobConns, alice.ID)

	// Requester follows the recipient, not the other way around.
	following, _ := env.connections.ListFollowingIDs(alice.ID)
	assert.Contains(t, following, bob.ID)
	bobFollowing, _ := env.connections.ListFollowingIDs(bob.ID)
	assert.Empty(t, bobFollowing)

	var aliceRow, bobRow models.User
	env.db.First(&aliceRow, "id = ?", alice.ID)
	env.db.First(&bobRow, "id = ?", bob.ID)
	assert.Equal(t, 1, aliceRow.ConnectionsCount)
	assert.Equal(t, 1, bobRow.ConnectionsCount)
	assert.Equal(t, 1, aliceRow.FollowingCount)

	// Sender gets a CONNECTION_ACCEPTED notification.
	notifs, _ := env.notifs.List(alice.ID, false)
	assert.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationTypeConnectionAccepted, notifs[0].Type)
}

func TestAcceptRequestTwiceIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	req, _ := env.connections.SendRequest(alice.ID, bob.ID)
	assert.NoError(t, env.connections.AcceptRequest(req.ID, bob.ID))
	assert.NoError(t, env.connections.AcceptRequest(req.ID, bob.ID))

	// Side effects applied exactly once.
	var bobRow models.User
	env.db.First(&bobRow, "id = ?", bob.ID)
	assert.Equal(t, 1, bobRow.ConnectionsCount)

	var linkCount int64
	env.db.Model(&models.UserConnection{}).Count(&linkCount)
	assert.Equal(t, int64(2), linkCount) // one row per direction
}

func TestSendRequestGuards(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	_, err := env.connections.SendRequest(alice.ID, alice.ID)
	assert.Equal(t, errors.ErrInvalidTarget, err)

	_, err = env.connections.SendRequest(alice.ID, "ghost")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	first, err := env.connections.SendRequest(alice.ID, bob.ID)
	assert.NoError(t, err)

	// Duplicate send returns the existing pending request.
	dup, err := env.connections.SendRequest(alice.ID, bob.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, dup.ID)

	// Reverse direction is blocked by the same pending edge.
	rev, err := env.connections.SendRequest(bob.ID, alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, rev.ID)

	var reqCount int64
	env.db.Model(&models.ConnectionRequest{}).Count(&reqCount)
	assert.Equal(t, int64(1), reqCount)

	env.connections.AcceptRequest(first.ID, bob.ID)
	_, err = env.connections.SendRequest(alice.ID, bob.ID)
	assert.Equal(t, errors.ErrAlreadyConnected, err)
}

func TestAcceptRequestOnlyReceiverMayAccept(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")
	eve := env.createUser(t, "eve", "Eve")

	req, _ := env.connections.SendRequest(alice.ID, bob.ID)

	assert.Equal(t, errors.ErrForbidden, env.connections.AcceptRequest(req.ID, eve.ID))
	assert.Equal(t, errors.ErrForbidden, env.connections.AcceptRequest(req.ID, alice.ID))
}

func TestRejectRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	req, _ := env.connections.SendRequest(alice.ID, bob.ID)
	assert.NoError(t, env.connections.RejectRequest(req.ID, bob.ID))

	// The row is gone, so a retried reject is a no-op success.
	assert.NoError(t, env.connections.RejectRequest(req.ID, bob.ID))

	conns, _ := env.connections.ListConnectionIDs(alice.ID)
	assert.Empty(t, conns)

	// Rejection leaves no trace: the pair can try again.
	_, err := env.connections.SendRequest(alice.ID, bob.ID)
	assert.NoError(t, err)
}

func TestDisconnectRemovesLinksAndCounters(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	req, _ := env.connections.SendRequest(alice.ID, bob.ID)
	env.connections.AcceptRequest(req.ID, bob.ID)

	assert.NoError(t, env.connections.Disconnect(alice.ID, bob.ID))

	conns, _ := env.connections.ListConnectionIDs(alice.ID)
	assert.Empty(t, conns)
	following, _ := env.connections.ListFollowingIDs(alice.ID)
	assert.Empty(t, following)

	var aliceRow models.User
	env.db.First(&aliceRow, "id = ?", alice.ID)
	assert.Equal(t, 0, aliceRow.ConnectionsCount)
	assert.Equal(t, 0, aliceRow.FollowingCount)

	// Retried disconnect is a no-op and counters stay at zero.
	assert.NoError(t, env.connections.Disconnect(alice.ID, bob.ID))
	env.db.First(&aliceRow, "id = ?", alice.ID)
	assert.Equal(t, 0, aliceRow.ConnectionsCount)
}

func TestListIncomingPreloadsSender(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "Alice")
	bob := env.createUser(t, "bob", "Bob")

	env.connections.SendRequest(alice.ID, bob.ID)

	incoming, err := env.connections.ListIncoming(bob.ID)
	assert.NoError(t, err)
	assert.Len(t, incoming, 1)
	assert.Equal(t, "Alice", incoming[0].Sender.Name)

	// Nothing incoming for the sender.
	out, _ := env.connections.ListIncoming(alice.ID)
	assert.Empty(t, out)
}
