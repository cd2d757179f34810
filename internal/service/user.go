package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
)

type UserService struct {
	db                 *sqlx.DB
	userRepository     repository.UserRepository
	requestRepository  repository.RequestRepository
	responseRepository repository.ResponseRepository
	upvoteRepository   repository.UpvoteRepository
	tokenRepository    repository.TokenRepository
	responseService    *ResponseService
	authService        *AuthService
	anonymousID        string
}

func NewUserService(
	db *sqlx.DB,
	userRepository repository.UserRepository,
	requestRepository repository.RequestRepository,
	responseRepository repository.ResponseRepository,
	upvoteRepository repository.UpvoteRepository,
	tokenRepository repository.TokenRepository,
	responseService *ResponseService,
	authService *AuthService,
	anonymousID string,
) *UserService {
	return &UserService{
		db:                 db,
		userRepository:     userRepository,
		requestRepository:  requestRepository,
		responseRepository: responseRepository,
		upvoteRepository:   upvoteRepository,
		tokenRepository:    tokenRepository,
		responseService:    responseService,
		authService:        authService,
		anonymousID:        anonymousID,
	}
}

// Delete removes a user. Only backoffice or the user themselves may do it;
// the anonymous sentinel can never be a target. In one transaction: every
// owned response is cascade-deleted, every owned request is reassigned to
// the anonymous sentinel, the user's ledger rows and reset tokens go, then
// the user row itself. Blob bytes are removed after commit.
func (s *UserService) Delete(actorToken, targetID string) (*model.User, error) {
	actor, err := s.authService.RequireActor(actorToken)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepository.ByID(targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("user %s: %w", targetID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if target.IsAnonymous {
		return nil, fmt.Errorf("anonymous sentinel cannot be deleted: %w", ErrUnauthorized)
	}

	if !actor.IsBackoffice && !actor.Is(target) {
		return nil, fmt.Errorf("actor %s may not delete user %s: %w", actor.ID, targetID, ErrUnauthorized)
	}

	var keys []string
	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		responses, err := s.responseRepository.WithTx(tx).ByUserID(target.ID)
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

		requests, err := s.requestRepository.WithTx(tx).ByUserID(target.ID)
		if err != nil {
			return fmt.Errorf("failed to list requests: %w", err)
		}

		for _, request := range requests {
			err = s.requestRepository.WithTx(tx).UpdateOwner(request.ID, s.anonymousID)
			if err != nil {
				return fmt.Errorf("failed to anonymize request %s: %w", request.ID, err)
			}
		}

		// Votes cast by the user go with the account; keeping them would
		// leave ledger rows pointing at a missing voter.
		err = s.upvoteRepository.WithTx(tx).DeleteByUserID(target.ID)
		if err != nil {
			return fmt.Errorf("failed to delete upvotes: %w", err)
		}

		err = s.tokenRepository.WithTx(tx).DeleteByUserID(target.ID)
		if err != nil {
			return fmt.Errorf("failed to delete tokens: %w", err)
		}

		return s.userRepository.WithTx(tx).Delete(target.ID)
	})
	if err != nil {
		return nil, err
	}

	s.responseService.removeBlobs(keys)

	slog.Info("user deleted", "user_id", targetID, "actor_id", actor.ID)
	return target, nil
}
