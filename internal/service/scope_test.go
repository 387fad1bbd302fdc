package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thinkhub/pkg/rbac"
)

func TestScopeResolverUnion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	own := f.project(t, alice, "Own")
	joined := f.project(t, bob, "Joined")
	f.project(t, bob, "Private")

	_, err := f.projects.AddMember(ctx, bob, joined.ID, "alice@example.com", rbac.RoleViewer)
	require.NoError(t, err)

	ids, err := f.scope.Resolve(ctx, alice)
	require.NoError(t, err)
	// own appears as both created and member row, once in the result
	assert.Equal(t, []int64{own.ID, joined.ID}, ids)

	ids, err = f.scope.Resolve(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
