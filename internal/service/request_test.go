package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrequests/xrequests/internal/model"
)

func TestCreateRequestAnonymous(t *testing.T) {
	env := newTestEnv(t)

	request, err := env.requests.Create("", "need the quarterly numbers", "finance")
	require.NoError(t, err)

	assert.Equal(t, model.AnonymousUserID, request.UserID)
	assert.Equal(t, "need the quarterly numbers", request.Description)
	assert.Equal(t, "finance", request.Validation)
}

func TestCreateRequestIdentified(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.registerUser(t, "alice")

	request, err := env.requests.Create(token, "need the quarterly numbers", "")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, request.UserID)
}

func TestListRequests(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")

	_, err := env.requests.Create(token, "first", "")
	require.NoError(t, err)
	_, err = env.requests.Create("", "second", "")
	require.NoError(t, err)

	requests, err := env.requests.List()
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestDeleteRequestOwnerAnonymizes(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.registerUser(t, "alice")
	_, bobToken := env.registerUser(t, "bob")

	request, err := env.requests.Create(aliceToken, "need the quarterly numbers", "")
	require.NoError(t, err)

	_, err = env.responses.Create(bobToken, request.ID, "here you go", []*Upload{upload("q3.pdf", "pdf bytes")})
	require.NoError(t, err)

	deleted, err := env.requests.Delete(aliceToken, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AnonymousUserID, deleted.UserID)

	// The request survives under the sentinel, responses untouched
	responses, err := env.responses.ListByRequest(request.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Equal(t, 1, env.storage.Len())
}

func TestDeleteRequestBackofficeCascades(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.registerUser(t, "alice")
	_, bobToken := env.registerUser(t, "bob")
	_, carolToken := env.registerUser(t, "carol")

	request, err := env.requests.Create(aliceToken, "need the quarterly numbers", "")
	require.NoError(t, err)

	first, err := env.responses.Create(bobToken, request.ID, "q3 figures",
		[]*Upload{upload("q3.pdf", "pdf bytes"), upload("q3.xlsx", "sheet bytes")})
	require.NoError(t, err)
	second, err := env.responses.Create(carolToken, request.ID, "q4 figures",
		[]*Upload{upload("q4.pdf", "pdf bytes"), upload("q4.xlsx", "sheet bytes")})
	require.NoError(t, err)

	_, err = env.requests.Upvote(bobToken, request.ID)
	require.NoError(t, err)
	_, err = env.responses.Upvote(aliceToken, first.ID)
	require.NoError(t, err)

	require.Equal(t, 4, env.storage.Len())

	_, err = env.requests.Delete(env.backofficeToken(t), request.ID)
	require.NoError(t, err)

	_, err = env.responses.ListByRequest(request.ID)
	assert.ErrorIs(t, err, ErrNotFound, "request row is gone")

	files, err := env.fileRepo.ByResponseID(first.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
	files, err = env.fileRepo.ByResponseID(second.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.Equal(t, 0, env.storage.Len(), "blob bytes removed with the rows")

	count, err := env.upvoteRepo.CountByRequestID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	count, err = env.upvoteRepo.CountByResponseID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDeleteRequestUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.registerUser(t, "alice")
	_, bobToken := env.registerUser(t, "bob")

	request, err := env.requests.Create(aliceToken, "need the quarterly numbers", "")
	require.NoError(t, err)

	_, err = env.requests.Delete(bobToken, request.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.requests.Delete("", request.ID)
	assert.ErrorIs(t, err, ErrNotFound, "anonymous callers cannot delete")
}

func TestDeleteRequestUnknown(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")

	_, err := env.requests.Delete(token, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpvoteRequest(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.registerUser(t, "alice")
	_, bobToken := env.registerUser(t, "bob")

	request, err := env.requests.Create(aliceToken, "need the quarterly numbers", "")
	require.NoError(t, err)

	upvoted, err := env.requests.Upvote(bobToken, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, upvoted.Upvotes)

	_, err = env.requests.Upvote(bobToken, request.ID)
	assert.ErrorIs(t, err, ErrConflict, "one vote per identified user")

	_, err = env.requests.Upvote(aliceToken, request.ID)
	assert.ErrorIs(t, err, ErrConflict, "no votes on own request")
}

func TestUpvoteRequestAnonymousRepeats(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.registerUser(t, "alice")

	request, err := env.requests.Create(aliceToken, "need the quarterly numbers", "")
	require.NoError(t, err)

	_, err = env.requests.Upvote("", request.ID)
	require.NoError(t, err)
	upvoted, err := env.requests.Upvote("", request.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, upvoted.Upvotes, "the shared sentinel is never deduplicated")
}

func TestUpvoteUnknownRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.Upvote("", "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
