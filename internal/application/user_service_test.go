package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-directory/internal/application"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/sqlite"
	"github.com/oksasatya/go-user-directory/pkg/events"
	"github.com/oksasatya/go-user-directory/pkg/validation"
)

func ptr[T any](v T) *T { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	types  []string
	events []events.UserEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, msgType string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, msgType)
	if ev, ok := body.(events.UserEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func newService(t *testing.T, pub application.EventPublisher) *application.Service {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(ctx, db))
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return application.NewService(sqlite.NewUserRepository(db), pub, logger)
}

func TestService_CreateUser_ValidEmails(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i, email := range []string{"a@b.com", "x.y@z.org", "q+1@w.e.r"} {
		u, err := svc.CreateUser(ctx, application.CreateUserInput{Email: email})
		require.NoError(t, err, email)
		assert.False(t, seen[u.ID], "id reused")
		seen[u.ID] = true
		assert.Equal(t, int64(i+1), u.ID)
		assert.False(t, u.RegisteredAt.IsZero())
		assert.True(t, u.IsActive)
		assert.Equal(t, 0, u.Followers)
	}
}

func TestService_CreateUser_InvalidEmailInsertsNothing(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	for _, email := range []string{"", "nope", "a@b", "a @b.com", "@b.com"} {
		_, err := svc.CreateUser(ctx, application.CreateUserInput{Email: email})
		require.ErrorIs(t, err, application.ErrInvalidInput, email)
		assert.Contains(t, validation.ToDetails(err), "email")
	}

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_CreateUser_MissingEmailDetail(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.CreateUser(context.Background(), application.CreateUserInput{Name: ptr("no email")})
	require.ErrorIs(t, err, application.ErrInvalidInput)
	assert.Equal(t, map[string]string{"email": "is required"}, validation.ToDetails(err))
}

func TestService_CreateUser_Duplicate(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, application.CreateUserInput{Email: "a@b.com"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, application.CreateUserInput{Email: "a@b.com"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_UpdateUser_PartialKeepsOmittedFields(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, application.CreateUserInput{Email: "a@b.com", Name: ptr("Ada")})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, u.ID, application.UpdateUserInput{Followers: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Followers)
	assert.Equal(t, "a@b.com", updated.Email)
	assert.Equal(t, "Ada", *updated.Name)
	assert.True(t, updated.IsActive)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Followers, got.Followers)
}

func TestService_UpdateUser_Validation(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, application.CreateUserInput{Email: "a@b.com"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, u.ID, application.UpdateUserInput{Email: ptr("broken")})
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.UpdateUser(ctx, u.ID, application.UpdateUserInput{Followers: ptr(-3)})
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, 0, got.Followers)
}

func TestService_DeleteUser(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, application.CreateUserInput{Email: "a@b.com"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	_, err = svc.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), repository.ErrUserNotFound)
}

func TestService_PublishesLifecycleEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, application.CreateUserInput{Email: "a@b.com"})
	require.NoError(t, err)
	_, err = svc.UpdateUser(ctx, u.ID, application.UpdateUserInput{})
	require.NoError(t, err)
	_, err = svc.UpdateUser(ctx, u.ID, application.UpdateUserInput{IsActive: ptr(false)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	_, err = svc.CreateUser(ctx, application.CreateUserInput{Email: "bad"})
	require.Error(t, err)

	assert.Equal(t, []string{events.UserCreated, events.UserUpdated, events.UserDeleted}, pub.types)
	for _, ev := range pub.events {
		assert.Equal(t, u.ID, ev.UserID)
	}
	assert.Equal(t, "a@b.com", pub.events[0].Email)
}

func TestService_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newService(t, pub)

	u, err := svc.CreateUser(context.Background(), application.CreateUserInput{Email: "a@b.com"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Len(t, pub.types, 1)
}

func TestService_ConcurrentCreatesSameEmail(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateUser(ctx, application.CreateUserInput{Email: "race@b.com", Name: ptr(fmt.Sprint(i))})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrEmailTaken)
	}
	assert.Equal(t, 1, ok)
}
