package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

var (
	ErrSelfFriend       = errors.New("cannot befriend yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrAlreadyRequested = errors.New("request already sent")
	ErrNotFriends       = errors.New("not friends")
)

const searchLimit = 10

// UserSearchResult is a matched user plus the state of any existing relation
// with the searcher, so the client can render add/pending/friend.
type UserSearchResult struct {
	internal.PublicUser
	RelationStatus *string `json:"relationStatus"`
	IsRequester    bool    `json:"isRequester"`
}

// PendingRequest is a received friend request with the sender's profile.
type PendingRequest struct {
	internal.Friendship
	User internal.PublicUser `json:"user"`
}

func SearchUsers(ctx context.Context, users storage.UserRepository, friendships storage.FriendshipRepository, userID, query string) ([]UserSearchResult, error) {
	matches, err := users.SearchUsers(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]UserSearchResult, 0, len(matches))
	for _, u := range matches {
		result := UserSearchResult{PublicUser: u.Public()}
		relation, err := friendships.GetFriendshipBetween(ctx, userID, u.ID)
		if err == nil {
			status := relation.Status
			result.RelationStatus = &status
			result.IsRequester = relation.UserID == userID
		} else if !errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// PendingRequests lists requests received by userID, sender profile attached.
func PendingRequests(ctx context.Context, users storage.UserRepository, friendships storage.FriendshipRepository, userID string) ([]PendingRequest, error) {
	relations, err := friendships.ListFriendships(ctx, userID, internal.FriendshipPending)
	if err != nil {
		return nil, err
	}

	pending := []PendingRequest{}
	for _, f := range relations {
		if f.FriendID != userID {
			continue
		}
		sender, err := users.GetUser(ctx, f.UserID)
		if err != nil {
			return nil, err
		}
		pending = append(pending, PendingRequest{Friendship: f, User: sender.Public()})
	}
	return pending, nil
}

// ListFriends returns accepted friends (the other side of each relation).
func ListFriends(ctx context.Context, users storage.UserRepository, friendships storage.FriendshipRepository, userID string) ([]internal.PublicUser, error) {
	relations, err := friendships.ListFriendships(ctx, userID, internal.FriendshipAccepted)
	if err != nil {
		return nil, err
	}

	friends := []internal.PublicUser{}
	for _, f := range relations {
		otherID := f.FriendID
		if f.FriendID == userID {
			otherID = f.UserID
		}
		other, err := users.GetUser(ctx, otherID)
		if err != nil {
			return nil, err
		}
		friends = append(friends, other.Public())
	}
	return friends, nil
}

// RequestFriend sends a pending request, rejecting self-requests and
// duplicates in either direction.
func RequestFriend(ctx context.Context, users storage.UserRepository, friendships storage.FriendshipRepository, userID, friendID string) (*internal.Friendship, error) {
	if userID == friendID {
		return nil, ErrSelfFriend
	}
	if _, err := users.GetUser(ctx, friendID); err != nil {
		return nil, err
	}

	existing, err := friendships.GetFriendshipBetween(ctx, userID, friendID)
	if err == nil {
		if existing.Status == internal.FriendshipAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrAlreadyRequested
	}
	if !errors.Is(err, internal.ErrNotFound) {
		return nil, err
	}

	f := &internal.Friendship{
		ID:        uuid.NewString(),
		UserID:    userID,
		FriendID:  friendID,
		Status:    internal.FriendshipPending,
		CreatedAt: time.Now(),
	}
	if err := friendships.CreateFriendship(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RespondToRequest accepts a pending request; any other status refuses it,
// which deletes the relation.
func RespondToRequest(ctx context.Context, friendships storage.FriendshipRepository, friendshipID, status string) (*internal.Friendship, error) {
	if status == internal.FriendshipAccepted {
		f, err := friendships.GetFriendship(ctx, friendshipID)
		if err != nil {
			return nil, err
		}
		f.Status = internal.FriendshipAccepted
		if err := friendships.UpdateFriendship(ctx, f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, friendships.DeleteFriendship(ctx, friendshipID)
}

func RemoveFriend(ctx context.Context, friendships storage.FriendshipRepository, userID, friendID string) error {
	return friendships.DeleteFriendshipBetween(ctx, userID, friendID)
}

// CanViewTracker allows the owner themselves or an accepted friend.
func CanViewTracker(ctx context.Context, friendships storage.FriendshipRepository, viewerID, ownerID string) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}
	relation, err := friendships.GetFriendshipBetween(ctx, viewerID, ownerID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return relation.Status == internal.FriendshipAccepted, nil
}
