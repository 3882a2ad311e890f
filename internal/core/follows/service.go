package follows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Spillit/internal/core/users"
	"Spillit/internal/core/visibility"

	"github.com/google/uuid"
)

type followService struct {
	repo        FollowRepository
	userService users.UserService
}

// NewFollowService creates a new follow service
func NewFollowService(repo FollowRepository, userService users.UserService) Service {
	return &followService{repo: repo, userService: userService}
}

// FollowState implements visibility.FollowLookup
func (s *followService) FollowState(ctx context.Context, followerID, followingID uuid.UUID) (visibility.FollowState, error) {
	f, err := s.repo.FindBetween(ctx, followerID, followingID)
	if errors.Is(err, ErrFollowNotFound) {
		return visibility.NotFollowing, nil
	}
	if err != nil {
		return visibility.NotFollowing, err
	}
	if !f.IsAccepted {
		return visibility.Pending, nil
	}
	return visibility.Accepted, nil
}

// Follow creates a follow; it is accepted immediately unless the target is private.
func (s *followService) Follow(ctx context.Context, requesterID uuid.UUID, targetUsername string) (*Follow, error) {
	target, err := s.userService.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if target.ID == requesterID {
		return nil, ErrCannotFollowSelf
	}

	f, err := s.repo.Create(ctx, &Follow{
		ID:              uuid.New(),
		FollowerUserID:  requesterID,
		FollowingUserID: target.ID,
		IsAccepted:      !target.IsPrivate,
	})
	if err != nil {
		if errors.Is(err, ErrFollowAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}

	slog.Info("follow created", "follower_id", requesterID, "following_id", target.ID, "accepted", f.IsAccepted)
	return f, nil
}

// Unfollow deletes the requester's follow of the target, accepted or not.
func (s *followService) Unfollow(ctx context.Context, requesterID uuid.UUID, targetUsername string) error {
	target, err := s.userService.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	f, err := s.repo.FindBetween(ctx, requesterID, target.ID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, f.ID)
}

// pendingFrom finds the unaccepted follow of ownerID by requesterUsername.
func (s *followService) pendingFrom(ctx context.Context, ownerID uuid.UUID, requesterUsername string) (*Follow, error) {
	requester, err := s.userService.GetByUsername(ctx, requesterUsername)
	if err != nil {
		return nil, err
	}
	return s.repo.FindBetween(ctx, requester.ID, ownerID)
}

// AcceptRequest accepts a pending follow request. Accepting an already
// accepted follow returns it unchanged.
func (s *followService) AcceptRequest(ctx context.Context, ownerID uuid.UUID, requesterUsername string) (*Follow, error) {
	f, err := s.pendingFrom(ctx, ownerID, requesterUsername)
	if err != nil {
		return nil, err
	}
	if f.IsAccepted {
		return f, nil
	}
	return s.repo.Accept(ctx, f.ID)
}

// DeclineRequest deletes a pending follow request. Accepted follows are not
// touched; an accepted follower is not a request.
func (s *followService) DeclineRequest(ctx context.Context, ownerID uuid.UUID, requesterUsername string) error {
	f, err := s.pendingFrom(ctx, ownerID, requesterUsername)
	if err != nil {
		return err
	}
	if f.IsAccepted {
		return ErrFollowNotFound
	}
	return s.repo.Delete(ctx, f.ID)
}

// PendingRequests lists the users waiting for ownerID to accept them
func (s *followService) PendingRequests(ctx context.Context, ownerID uuid.UUID) ([]*users.User, error) {
	return s.repo.ListPendingRequests(ctx, ownerID)
}

// gatedOwner resolves username and checks the requester may see its lists.
func (s *followService) gatedOwner(ctx context.Context, requester *uuid.UUID, username string) (*users.User, error) {
	owner, err := s.userService.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	decision, err := visibility.CanView(ctx, requester, owner, s)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	return owner, nil
}

func (s *followService) Followers(ctx context.Context, requester *uuid.UUID, username string) ([]*users.User, error) {
	owner, err := s.gatedOwner(ctx, requester, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFollowers(ctx, owner.ID, true)
}

func (s *followService) Following(ctx context.Context, requester *uuid.UUID, username string) ([]*users.User, error) {
	owner, err := s.gatedOwner(ctx, requester, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFollowing(ctx, owner.ID)
}
