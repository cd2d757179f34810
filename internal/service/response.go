package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
	"github.com/xrequests/xrequests/internal/storage"
)

// Upload is one attachment handed in with a new response.
type Upload struct {
	Filename string
	Data     io.Reader
}

type ResponseService struct {
	db                 *sqlx.DB
	responseRepository repository.ResponseRepository
	requestRepository  repository.RequestRepository
	fileRepository     repository.FileRepository
	upvoteRepository   repository.UpvoteRepository
	storage            storage.Storage
	emailService       *EmailService
	authService        *AuthService
	backofficeEmail    string
}

func NewResponseService(
	db *sqlx.DB,
	responseRepository repository.ResponseRepository,
	requestRepository repository.RequestRepository,
	fileRepository repository.FileRepository,
	upvoteRepository repository.UpvoteRepository,
	store storage.Storage,
	emailService *EmailService,
	authService *AuthService,
	backofficeEmail string,
) *ResponseService {
	return &ResponseService{
		db:                 db,
		responseRepository: responseRepository,
		requestRepository:  requestRepository,
		fileRepository:     fileRepository,
		upvoteRepository:   upvoteRepository,
		storage:            store,
		emailService:       emailService,
		authService:        authService,
		backofficeEmail:    backofficeEmail,
	}
}

// Create posts a response with its attachments. The response row, the file
// rows and the blob writes succeed or fail together: any blob write failure
// rolls the transaction back and removes blobs written so far.
func (s *ResponseService) Create(actorToken, requestID, description string, uploads []*Upload) (*model.Response, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("at least one file is required: %w", ErrMissingInput)
	}

	actor, err := s.authService.ResolveActor(actorToken)
	if err != nil {
		return nil, err
	}

	_, err = s.requestRepository.ByID(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	response := &model.Response{
		ID:          uuid.New().String(),
		Description: description,
		UserID:      actor.ID,
		RequestID:   requestID,
		CreatedAt:   time.Now(),
	}

	var written []string
	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		err := s.responseRepository.WithTx(tx).Create(response)
		if err != nil {
			return fmt.Errorf("failed to create response: %w", err)
		}

		files := s.fileRepository.WithTx(tx)
		for _, upload := range uploads {
			name, err := generateAssetName(actor.ID)
			if err != nil {
				return fmt.Errorf("failed to generate file name: %w", err)
			}

			asset := &model.File{
				ID:         uuid.New().String(),
				Name:       name,
				Mimetype:   mimetypeFor(upload.Filename),
				ResponseID: response.ID,
				CreatedAt:  time.Now(),
			}

			err = files.Create(asset)
			if err != nil {
				return fmt.Errorf("failed to create file record: %w", err)
			}

			err = s.storage.Save(asset.StorageKey(), upload.Data)
			if err != nil {
				return fmt.Errorf("failed to save file %s: %w", asset.Name, err)
			}
			written = append(written, asset.StorageKey())

			response.Files = append(response.Files, asset)
		}

		return nil
	})
	if err != nil {
		// Blob writes are not covered by the DB rollback
		s.removeBlobs(written)
		return nil, err
	}

	err = s.emailService.SendNewResponseEmail(s.backofficeEmail, response.ID, requestID)
	if err != nil {
		slog.Warn("failed to notify backoffice of new response", "error", err, "response_id", response.ID)
	}

	slog.Info("response created", "response_id", response.ID, "request_id", requestID, "files", len(uploads))
	return response, nil
}

// Delete hard-deletes a response with all its files, rows and bytes both.
// Allowed for the owner and for backoffice.
func (s *ResponseService) Delete(actorToken, id string) (*model.Response, error) {
	actor, err := s.authService.RequireActor(actorToken)
	if err != nil {
		return nil, err
	}

	response, err := s.responseRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return nil, fmt.Errorf("response %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	if !actor.IsBackoffice && !actor.Owns(response.UserID) {
		return nil, fmt.Errorf("actor %s does not own response %s: %w", actor.ID, id, ErrUnauthorized)
	}

	var keys []string
	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		keys, err = s.deleteCascadeTx(tx, response.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.removeBlobs(keys)

	slog.Info("response deleted", "response_id", id, "actor_id", actor.ID)
	return response, nil
}

// Upvote appends a ledger row for the acting user. Identified users cannot
// vote on their own response or vote twice; the anonymous sentinel is a
// shared identity and always passes.
func (s *ResponseService) Upvote(actorToken, id string) (*model.Response, error) {
	actor, err := s.authService.ResolveActor(actorToken)
	if err != nil {
		return nil, err
	}

	response, err := s.responseRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return nil, fmt.Errorf("response %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	if !actor.IsAnonymous {
		if actor.Owns(response.UserID) {
			return nil, fmt.Errorf("cannot upvote own response: %w", ErrConflict)
		}

		exists, err := s.upvoteRepository.ResponseUpvoteExists(actor.ID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing upvote: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("already upvoted: %w", ErrConflict)
		}
	}

	upvote := &model.ResponseUpvote{
		ID:         uuid.New().String(),
		UserID:     actor.ID,
		ResponseID: id,
		CreatedAt:  time.Now(),
	}
	err = s.upvoteRepository.CreateResponseUpvote(upvote)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUpvote) {
			return nil, fmt.Errorf("already upvoted: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create upvote: %w", err)
	}

	return s.responseRepository.ByID(id)
}

// ListByRequest returns a request's responses with their attachments.
func (s *ResponseService) ListByRequest(requestID string) ([]*model.Response, error) {
	_, err := s.requestRepository.ByID(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	responses, err := s.responseRepository.ByRequestID(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	for _, response := range responses {
		files, err := s.fileRepository.ByResponseID(response.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}
		response.Files = files
	}

	return responses, nil
}

// deleteCascadeTx removes a response's file rows, ledger rows and the
// response row itself, returning the blob keys to remove after commit.
// Shared by response deletion, request deletion and user deletion.
func (s *ResponseService) deleteCascadeTx(tx *sqlx.Tx, responseID string) ([]string, error) {
	files, err := s.fileRepository.WithTx(tx).ByResponseID(responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	keys := make([]string, 0, len(files))
	for _, file := range files {
		keys = append(keys, file.StorageKey())
	}

	err = s.fileRepository.WithTx(tx).DeleteByResponseID(responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete file records: %w", err)
	}

	err = s.upvoteRepository.WithTx(tx).DeleteByResponseID(responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete response upvotes: %w", err)
	}

	err = s.responseRepository.WithTx(tx).Delete(responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete response: %w", err)
	}

	return keys, nil
}

// removeBlobs deletes attachment bytes after the owning rows are gone.
// Best effort: the rows have already committed away, a stale blob is
// logged rather than resurrected.
func (s *ResponseService) removeBlobs(keys []string) {
	for _, key := range keys {
		err := s.storage.Delete(key)
		if err != nil {
			slog.Warn("failed to delete blob", "key", key, "error", err)
		}
	}
}

// generateAssetName builds a globally unique blob name from the owner id
// and a random suffix.
func generateAssetName(ownerID string) (string, error) {
	suffix := make([]byte, 8)
	_, err := rand.Read(suffix)
	if err != nil {
		return "", err
	}
	return ownerID + "-" + hex.EncodeToString(suffix), nil
}

// mimetypeFor derives the stored mimetype from the uploaded filename's
// extension.
func mimetypeFor(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "bin"
	}
	return strings.ToLower(ext)
}
