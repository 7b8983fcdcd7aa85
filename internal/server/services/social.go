package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/repomanager"
)

// SocialService manages the friend graph: requests and their responses,
// profile views and friend suggestions.
type SocialService struct {
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	log         logging.Logger
}

func NewSocialService(m repomanager.RepositoryManager, n notify.Notifier, log logging.Logger) *SocialService {
	return &SocialService{repomanager: m, notifier: n, log: log}
}

// SendFriendRequest creates a Pending request from fromID to toID. Any
// earlier request between the two users, in either direction and with any
// status, yields common.ErrorAlreadyExists.
func (s *SocialService) SendFriendRequest(ctx context.Context, fromID, toID string) (*models.FriendRequest, error) {
	if toID == "" {
		return nil, validationError("requestTo is required")
	}
	if fromID == toID {
		return nil, validationError("you cannot send a friend request to yourself")
	}

	var fr *models.FriendRequest
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		target, err := m.Users().GetByID(ctx, toID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: user not found", common.ErrorNotFound)
			}
			return err
		}
		if target.HasFriend(fromID) {
			return fmt.Errorf("%w: you are already friends", common.ErrorAlreadyExists)
		}

		exists, err := m.FriendRequests().ExistsBetween(ctx, fromID, toID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: friend request already sent", common.ErrorAlreadyExists)
		}

		fr, err = m.FriendRequests().Create(ctx, &models.FriendRequest{
			RequestFrom: fromID,
			RequestTo:   toID,
			Status:      models.RequestStatusPending,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error sending friend request: %w", err)
	}

	s.log.Info(ctx, "friend request sent", "from", fromID, "to", toID)
	publish(ctx, s.notifier, toID, notify.Event{
		Type:    notify.EventFriendRequest,
		Payload: map[string]string{"requestId": fr.ID, "from": fromID},
	})
	return fr, nil
}

// ListPendingRequests returns the newest Pending requests addressed to
// userID with the requester's public profile.
func (s *SocialService) ListPendingRequests(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	requests, err := s.repomanager.FriendRequests().ListPending(ctx, userID, common.PendingRequestsLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing friend requests: %w", err)
	}

	ids := make([]string, 0, len(requests))
	for _, fr := range requests {
		ids = append(ids, fr.RequestFrom)
	}
	byID, err := profiles(ctx, s.repomanager.Users(), ids)
	if err != nil {
		return nil, err
	}
	for _, fr := range requests {
		fr.From = byID[fr.RequestFrom]
	}
	return requests, nil
}

// RespondToRequest accepts or rejects a Pending request addressed to
// responderID. Accepting adds each party to the other's friends set in the
// same transaction as the status change.
func (s *SocialService) RespondToRequest(ctx context.Context, responderID, requestID string, status models.RequestStatus) (*models.FriendRequest, error) {
	if requestID == "" {
		return nil, validationError("rid is required")
	}
	if !status.IsResponse() {
		return nil, validationError(fmt.Sprintf("status must be %s or %s", models.RequestStatusAccepted, models.RequestStatusRejected))
	}

	var fr *models.FriendRequest
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		var err error
		fr, err = m.FriendRequests().GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: no friend request found", common.ErrorNotFound)
			}
			return err
		}
		if fr.RequestTo != responderID {
			return fmt.Errorf("%w: friend request is addressed to another user", common.ErrorForbidden)
		}
		if fr.Status != models.RequestStatusPending {
			return fmt.Errorf("%w: friend request already %s", common.ErrorAlreadyExists, fr.Status)
		}

		err = m.FriendRequests().UpdateStatus(ctx, fr.ID, models.RequestStatusPending, status)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: friend request already answered", common.ErrorAlreadyExists)
		}
		if err != nil {
			return err
		}
		fr.Status = status

		if status != models.RequestStatusAccepted {
			return nil
		}
		if err := m.Users().AddFriend(ctx, fr.RequestTo, fr.RequestFrom); err != nil {
			return err
		}
		return m.Users().AddFriend(ctx, fr.RequestFrom, fr.RequestTo)
	})
	if err != nil {
		return nil, fmt.Errorf("error answering friend request: %w", err)
	}

	s.log.Info(ctx, "friend request answered", "request_id", fr.ID, "status", string(status))
	if status == models.RequestStatusAccepted {
		publish(ctx, s.notifier, fr.RequestFrom, notify.Event{
			Type:    notify.EventFriendAccepted,
			Payload: map[string]string{"requestId": fr.ID, "by": responderID},
		})
	}
	return fr, nil
}

// RecordProfileView appends viewerID to the target's views. Viewing one's
// own profile is rejected and records nothing.
func (s *SocialService) RecordProfileView(ctx context.Context, viewerID, targetID string) error {
	if targetID == "" {
		return validationError("id is required")
	}
	if viewerID == targetID {
		return validationError("you cannot view your own profile")
	}
	if err := s.repomanager.Users().AppendView(ctx, targetID, viewerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return fmt.Errorf("error recording profile view: %w", err)
	}
	return nil
}

// SuggestFriends returns up to common.SuggestedFriendsLimit users who are
// neither userID nor already friends with it.
func (s *SocialService) SuggestFriends(ctx context.Context, userID string) ([]*models.PublicProfile, error) {
	out, err := s.repomanager.Users().Suggest(ctx, userID, common.SuggestedFriendsLimit)
	if err != nil {
		return nil, fmt.Errorf("error suggesting friends: %w", err)
	}
	return out, nil
}
