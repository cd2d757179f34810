package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
)

type RequestService struct {
	db                *sqlx.DB
	requestRepository repository.RequestRepository
	upvoteRepository  repository.UpvoteRepository
	responseService   *ResponseService
	authService       *AuthService
	anonymousID       string
}

func NewRequestService(
	db *sqlx.DB,
	requestRepository repository.RequestRepository,
	upvoteRepository repository.UpvoteRepository,
	responseService *ResponseService,
	authService *AuthService,
	anonymousID string,
) *RequestService {
	return &RequestService{
		db:                db,
		requestRepository: requestRepository,
		upvoteRepository:  upvoteRepository,
		responseService:   responseService,
		authService:       authService,
		anonymousID:       anonymousID,
	}
}

// Create posts a new request owned by the resolved actor; callers without a
// token post as the anonymous sentinel.
func (s *RequestService) Create(actorToken, description, validationTag string) (*model.Request, error) {
	actor, err := s.authService.ResolveActor(actorToken)
	if err != nil {
		return nil, err
	}

	request := &model.Request{
		ID:          uuid.New().String(),
		Description: description,
		Validation:  validationTag,
		UserID:      actor.ID,
		CreatedAt:   time.Now(),
	}

	err = s.requestRepository.Create(request)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Info("request created", "request_id", request.ID, "user_id", actor.ID)
	return request, nil
}

// Delete is role-dependent. Backoffice hard-deletes the request and
// cascades through every response. The non-backoffice owner only strips
// their ownership: the request moves to the anonymous sentinel and its
// responses survive.
func (s *RequestService) Delete(actorToken, id string) (*model.Request, error) {
	actor, err := s.authService.RequireActor(actorToken)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if !actor.IsBackoffice && !actor.Owns(request.UserID) {
		return nil, fmt.Errorf("actor %s does not own request %s: %w", actor.ID, id, ErrUnauthorized)
	}

	if !actor.IsBackoffice {
		err = s.requestRepository.UpdateOwner(id, s.anonymousID)
		if err != nil {
			return nil, fmt.Errorf("failed to anonymize request: %w", err)
		}

		request.UserID = s.anonymousID
		slog.Info("request anonymized", "request_id", id, "previous_owner", actor.ID)
		return request, nil
	}

	var keys []string
	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		responses, err := s.responseService.responseRepository.WithTx(tx).ByRequestID(id)
		if err != nil {
			return fmt.Errorf("failed to list responses: %w", err)
		}

		for _, response := range responses {
			responseKeys, err := s.responseService.deleteCascadeTx(tx, response.ID)
			if err != nil {
				return err
			}
			keys = append(keys, responseKeys...)
		}

		err = s.upvoteRepository.WithTx(tx).DeleteByRequestID(id)
		if err != nil {
			return fmt.Errorf("failed to delete request upvotes: %w", err)
		}

		return s.requestRepository.WithTx(tx).Delete(id)
	})
	if err != nil {
		return nil, err
	}

	s.responseService.removeBlobs(keys)

	slog.Info("request deleted", "request_id", id, "actor_id", actor.ID)
	return request, nil
}

// Upvote appends a ledger row. Same rules as response upvotes: identified
// users cannot vote on their own request or vote twice, the anonymous
// sentinel always passes.
func (s *RequestService) Upvote(actorToken, id string) (*model.Request, error) {
	actor, err := s.authService.ResolveActor(actorToken)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if !actor.IsAnonymous {
		if actor.Owns(request.UserID) {
			return nil, fmt.Errorf("cannot upvote own request: %w", ErrConflict)
		}

		exists, err := s.upvoteRepository.RequestUpvoteExists(actor.ID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing upvote: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("already upvoted: %w", ErrConflict)
		}
	}

	upvote := &model.RequestUpvote{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		RequestID: id,
		CreatedAt: time.Now(),
	}
	err = s.upvoteRepository.CreateRequestUpvote(upvote)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUpvote) {
			return nil, fmt.Errorf("already upvoted: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create upvote: %w", err)
	}

	return s.requestRepository.ByID(id)
}

// List returns all requests, newest first, with derived upvote counts.
func (s *RequestService) List() ([]*model.Request, error) {
	requests, err := s.requestRepository.All()
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}
