package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thinkhub/internal/repository/memory"
	"thinkhub/pkg/util"
)

func TestRegisterAndLogin(t *testing.T) {
	store := memory.New()
	auth := NewAuthService(store.Users(), "secret", time.Hour)
	ctx := context.Background()

	u, err := auth.Register(ctx, "Ada", "Ada@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, u.ID)

	_, err = auth.Register(ctx, "Ada again", "ada@example.com", "correct horse")
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = auth.Register(ctx, "Bob", "not-an-email", "correct horse")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = auth.Register(ctx, "Bob", "bob@example.com", "short")
	assert.Equal(t, KindValidation, KindOf(err))

	token, err := auth.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	userID, err := util.ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	_, err = auth.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
