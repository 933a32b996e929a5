//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arida/pkg/testutil/containers"
)

func TestPostgresStoreAppendAndList(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := NewPostgres(pc.DB)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	entries := []Entry{
		{
			ID:         uuid.New(),
			Timestamp:  base,
			Action:     ActionPetitionApprove,
			ActorID:    "mod-1",
			ActorName:  "Yassine",
			ActorRole:  "moderator",
			TargetType: "petition",
			TargetID:   uuid.NewString(),
			TargetName: "Save the Medina",
			Device:     "chrome on linux",
			Details:    map[string]string{"note": "meets guidelines"},
		},
		{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Second),
			Action:    ActionAppealOpen,
			ActorID:   "user-1",
			ActorName: "Imane",
			ActorRole: "user",
		},
	}
	for _, e := range entries {
		require.NoError(t, store.Append(ctx, e))
	}

	got, err := store.List(ctx, Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, ActionAppealOpen, got[0].Action)
	assert.Equal(t, ActionPetitionApprove, got[1].Action)
	assert.Equal(t, "meets guidelines", got[1].Details["note"])
	assert.Equal(t, "chrome on linux", got[1].Device)
}

func TestPostgresStoreListFilters(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := NewPostgres(pc.DB)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.Append(ctx, Entry{
		ID: uuid.New(), Timestamp: base, Action: ActionPetitionReject, ActorName: "Yassine",
	}))
	require.NoError(t, store.Append(ctx, Entry{
		ID: uuid.New(), Timestamp: base.Add(time.Second), Action: ActionAppealResolve, ActorName: "Imane",
	}))

	got, err := store.List(ctx, Filter{ActionPrefix: "petition."}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ActionPetitionReject, got[0].Action)

	got, err = store.List(ctx, Filter{ActorName: "Imane"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ActionAppealResolve, got[0].Action)

	got, err = store.List(ctx, Filter{ActionPrefix: "petition.", ActorName: "Imane"}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
