package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/pantry"
)

func TestEnsureUnrecognized_Idempotent(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	var first, second []MatchedFallback
	inScope(t, database, "alice", func(s *db.Scope) error {
		var err error
		first, err = EnsureUnrecognized(ctx, s, []string{"Sumac", "za'atar", "sumac "}, ptr("recipe"))
		return err
	})
	require.Len(t, first, 2)
	assert.Equal(t, "Sumac", first[0].RawText)
	assert.Equal(t, "za'atar", first[1].RawText)

	inScope(t, database, "alice", func(s *db.Scope) error {
		var err error
		second, err = EnsureUnrecognized(ctx, s, []string{"ZA'ATAR", "sumac", "harissa"}, nil)
		return err
	})
	require.Len(t, second, 3)
	assert.Equal(t, first[1].ID, second[0].ID)
	assert.Equal(t, first[0].ID, second[1].ID)
	assert.Equal(t, "harissa", second[2].RawText)
}

func TestEnsureUnrecognized_ContextOnNewRowsOnly(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	inScope(t, database, "alice", func(s *db.Scope) error {
		_, err := EnsureUnrecognized(ctx, s, []string{"sumac"}, ptr("inventory"))
		return err
	})
	inScope(t, database, "alice", func(s *db.Scope) error {
		_, err := EnsureUnrecognized(ctx, s, []string{"sumac"}, ptr("recipe"))
		if err != nil {
			return err
		}
		entries, err := s.FindUnrecognizedByNames(ctx, []string{pantry.Normalize("sumac")})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.NotNil(t, entries[0].Context)
		assert.Equal(t, "inventory", *entries[0].Context)
		return nil
	})
}

func TestEnsureUnrecognized_Empty(t *testing.T) {
	database := openTestDB(t)
	inScope(t, database, "alice", func(s *db.Scope) error {
		out, err := EnsureUnrecognized(context.Background(), s, []string{" ", ""}, nil)
		require.NoError(t, err)
		assert.Empty(t, out)
		return nil
	})
}
