package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
	"github.com/Dan9191/user-service/internal/storage/storagetest"
)

func newTestService(t *testing.T) (*Service, *test.Hook) {
	t.Helper()
	store, _ := storagetest.New(t)
	log, hook := test.NewNullLogger()
	return NewService(repository.NewRepository(store), log), hook
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		user  models.User
		field string
	}{
		{name: "valid", user: models.User{Name: "Alice", Email: "alice@example.com"}},
		{name: "missing name", user: models.User{Email: "alice@example.com"}, field: "name"},
		{name: "missing email", user: models.User{Name: "Alice"}, field: "email"},
		{name: "email format not checked", user: models.User{Name: "Alice", Email: "not-an-address"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.user)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateUserRejectsInvalidPayloadBeforeStorage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, models.User{Name: "Alice"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUserLifecycleIsLogged(t *testing.T) {
	svc, hook := newTestService(t)
	ctx := context.Background()

	rec, err := svc.CreateUser(ctx, models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	_, err = svc.UpdateUser(ctx, rec.ID, models.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, rec.ID))
	require.Equal(t, "User deleted: 1", hook.LastEntry().Message)

	require.ErrorIs(t, svc.DeleteUser(ctx, rec.ID), repository.ErrNotFound)
	require.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	require.Equal(t, rec.ID, hook.LastEntry().Data["user_id"])
}

func TestUpdateUserValidatesFirst(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateUser(context.Background(), 99, models.User{Name: "Bob"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
