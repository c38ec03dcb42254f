package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aprilox/HabbitTracker/internal"
)

func TestRequestFriend(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	alice := registerTestUser(t, repos, "alice")
	bob := registerTestUser(t, repos, "bob")

	_, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfFriend)

	_, err = RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, "missing")
	assert.ErrorIs(t, err, internal.ErrNotFound)

	f, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.FriendshipPending, f.Status)

	// Duplicates in either direction are refused.
	_, err = RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyRequested)
	_, err = RequestFriend(ctx, repos.Users, repos.Friendships, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrAlreadyRequested)
}

func TestAcceptFriendRequest(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	alice := registerTestUser(t, repos, "alice")
	bob := registerTestUser(t, repos, "bob")

	f, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	require.NoError(t, err)

	// Bob sees the pending request, Alice does not.
	pending, err := PendingRequests(ctx, repos.Users, repos.Friendships, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].User.Pseudo)
	pending, err = PendingRequests(ctx, repos.Users, repos.Friendships, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	accepted, err := RespondToRequest(ctx, repos.Friendships, f.ID, internal.FriendshipAccepted)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, internal.FriendshipAccepted, accepted.Status)

	// Both sides now list the other as friend.
	friends, err := ListFriends(ctx, repos.Users, repos.Friendships, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Pseudo)
	friends, err = ListFriends(ctx, repos.Users, repos.Friendships, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].Pseudo)

	_, err = RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestDeclineFriendRequestDeletesIt(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	alice := registerTestUser(t, repos, "alice")
	bob := registerTestUser(t, repos, "bob")

	f, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	require.NoError(t, err)

	declined, err := RespondToRequest(ctx, repos.Friendships, f.ID, "declined")
	require.NoError(t, err)
	assert.Nil(t, declined)

	_, err = repos.Friendships.GetFriendship(ctx, f.ID)
	assert.ErrorIs(t, err, internal.ErrNotFound)

	// Alice can ask again after a refusal.
	_, err = RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	assert.NoError(t, err)
}

func TestRemoveFriend(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	alice := registerTestUser(t, repos, "alice")
	bob := registerTestUser(t, repos, "bob")

	f, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = RespondToRequest(ctx, repos.Friendships, f.ID, internal.FriendshipAccepted)
	require.NoError(t, err)

	require.NoError(t, RemoveFriend(ctx, repos.Friendships, bob.ID, alice.ID))
	friends, err := ListFriends(ctx, repos.Users, repos.Friendships, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestSearchUsersRelationStatus(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	alice := registerTestUser(t, repos, "alice")
	bob := registerTestUser(t, repos, "bobby")
	registerTestUser(t, repos, "bobtwo")

	_, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	require.NoError(t, err)

	results, err := SearchUsers(ctx, repos.Users, repos.Friendships, alice.ID, "bob")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Sorted by pseudo: bobby then bobtwo.
	require.NotNil(t, results[0].RelationStatus)
	assert.Equal(t, internal.FriendshipPending, *results[0].RelationStatus)
	assert.True(t, results[0].IsRequester)
	assert.Nil(t, results[1].RelationStatus)

	// The searcher never matches themselves.
	results, err = SearchUsers(ctx, repos.Users, repos.Friendships, alice.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCanViewTracker(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	alice := registerTestUser(t, repos, "alice")
	bob := registerTestUser(t, repos, "bob")
	carol := registerTestUser(t, repos, "carol")

	// Owner always sees their own tracker.
	ok, err := CanViewTracker(ctx, repos.Friendships, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// A pending request is not enough.
	f, err := RequestFriend(ctx, repos.Users, repos.Friendships, alice.ID, bob.ID)
	require.NoError(t, err)
	ok, err = CanViewTracker(ctx, repos.Friendships, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = RespondToRequest(ctx, repos.Friendships, f.ID, internal.FriendshipAccepted)
	require.NoError(t, err)
	ok, err = CanViewTracker(ctx, repos.Friendships, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Strangers stay out.
	ok, err = CanViewTracker(ctx, repos.Friendships, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
