package loaders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/adapters/memory"
	"github.com/zatekoja/eventhub/internal/domain/entities"
)

func TestLoadProfiles_SkipsMissing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Profiles().Create(ctx, &entities.Profile{ID: "a", FullName: "Ann"}))
	require.NoError(t, store.Profiles().Create(ctx, &entities.Profile{ID: "b", FullName: "Bo"}))

	got, err := NewLoaders(store).LoadProfiles(ctx, []string{"a", "ghost", "b"})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, "Ann", got["a"].FullName)
	assert.Equal(t, "Bo", got["b"].FullName)
}

func TestFor_ReturnsAttachedLoaders(t *testing.T) {
	l := NewLoaders(memory.NewStore())

	assert.Nil(t, For(context.Background()))
	assert.Same(t, l, For(WithLoaders(context.Background(), l)))
}
