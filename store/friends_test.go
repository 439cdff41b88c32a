package store_test

import (
	"strings"
	"testing"

	"github.com/yomogi/linkup/model"
	"github.com/yomogi/linkup/store"
	"github.com/yomogi/linkup/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func friendNames(t *testing.T, d *store.Directory, user string) []string {
	t.Helper()
	accs, err := d.ListFriends(user)
	require.NoError(t, err)
	names := make([]string, len(accs))
	for i, a := range accs {
		names[i] = a.Username
	}
	return names
}

func TestSendRequestToSelf(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")

	_, err := d.SendFriendRequest("alice", "alice")
	var se *store.SelfReferenceError
	require.ErrorAs(t, err, &se)
}

func TestSendRequestUnknownReceiver(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")

	_, err := d.SendFriendRequest("alice", "ghost")
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSendRequestDuplicateEitherDirection(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	var de *store.DuplicateError
	_, err = d.SendFriendRequest("alice", "bob")
	require.ErrorAs(t, err, &de)

	// The reverse direction is just as blocked while the request is active.
	_, err = d.SendFriendRequest("bob", "alice")
	require.ErrorAs(t, err, &de)
}

func TestSendRequestRacingInsertHitsUniqueIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := store.NewDirectory(db)
	alice := mustRegister(t, d, "alice", "1234567890")
	bob := mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	// An insert that never saw the first record, as the loser of a
	// concurrent send would, is still rejected by the active_pair index.
	pair := model.PairKey(bob.ID, alice.ID)
	err = db.Create(&model.FriendRequest{
		SenderID:   bob.ID,
		ReceiverID: alice.ID,
		Status:     model.RequestPending,
		ActivePair: &pair,
	}).Error
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "unique")
}

func TestPairKeyIsDirectionless(t *testing.T) {
	assert.Equal(t, model.PairKey(1, 2), model.PairKey(2, 1))
	assert.Equal(t, "1:2", model.PairKey(2, 1))
}

func TestAcceptMakesFriendsBothWays(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, d.RespondToRequest("alice", "bob", store.ActionAccept))

	assert.Contains(t, friendNames(t, d, "alice"), "bob")
	assert.Contains(t, friendNames(t, d, "bob"), "alice")
}

func TestAcceptedPairStaysBlocked(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, d.RespondToRequest("alice", "bob", store.ActionAccept))

	var de *store.DuplicateError
	_, err = d.SendFriendRequest("bob", "alice")
	require.ErrorAs(t, err, &de)
}

func TestRejectDoesNotBlockNewRequest(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, d.RespondToRequest("alice", "bob", store.ActionReject))

	assert.Empty(t, friendNames(t, d, "alice"))

	// Either party may try again after a rejection.
	_, err = d.SendFriendRequest("bob", "alice")
	require.NoError(t, err)
}

func TestRespondRequiresExactDirection(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	// (bob, alice) does not match the pending (alice, bob) record.
	err = d.RespondToRequest("bob", "alice", store.ActionAccept)
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRespondTransitionsOnce(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, d.RespondToRequest("alice", "bob", store.ActionAccept))

	err = d.RespondToRequest("alice", "bob", store.ActionReject)
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRespondInvalidAction(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	err = d.RespondToRequest("alice", "bob", "block")
	var ve *store.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestIncomingRequestsNewestFirst(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")
	mustRegister(t, d, "carol", "1112223333")

	_, err := d.SendFriendRequest("bob", "alice")
	require.NoError(t, err)
	_, err = d.SendFriendRequest("carol", "alice")
	require.NoError(t, err)

	reqs, err := d.IncomingRequests("alice")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "carol", reqs[0].Sender.Username)
	assert.Equal(t, "bob", reqs[1].Sender.Username)

	// Responding removes the request from the pending list.
	require.NoError(t, d.RespondToRequest("bob", "alice", store.ActionAccept))
	reqs, err = d.IncomingRequests("alice")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "carol", reqs[0].Sender.Username)
}

func TestUnfriendIdempotent(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, d.RespondToRequest("alice", "bob", store.ActionAccept))

	removed, err := d.Unfriend("bob", "alice")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Empty(t, friendNames(t, d, "alice"))
	assert.Empty(t, friendNames(t, d, "bob"))

	removed, err = d.Unfriend("bob", "alice")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRefriendAfterUnfriend(t *testing.T) {
	d := newDirectory(t)
	mustRegister(t, d, "alice", "1234567890")
	mustRegister(t, d, "bob", "0987654321")

	_, err := d.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, d.RespondToRequest("alice", "bob", store.ActionAccept))
	_, err = d.Unfriend("alice", "bob")
	require.NoError(t, err)

	// Unfriending deletes the record, so a fresh pending request is allowed.
	req, err := d.SendFriendRequest("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "pending", req.Status)
}
