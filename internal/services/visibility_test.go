package services

import (
	"context"
	"testing"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placesOf(owner models.User, names ...string) []models.Place {
	out := make([]models.Place, 0, len(names))
	for _, n := range names {
		out = append(out, models.Place{OwnerID: owner.ID.String(), Name: n})
	}
	return out
}

func TestVisiblePlacesFollowsFriendshipState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vis := NewVisibility(env.svc)
	bobsPlaces := placesOf(env.bob, "harbour", "bakery")

	got, err := vis.VisiblePlaces(ctx, env.alice.ID, bobsPlaces)
	require.NoError(t, err)
	assert.Empty(t, got, "no relationship")

	f, err := env.svc.SendRequest(ctx, env.alice.ID, env.bob.ID)
	require.NoError(t, err)
	got, err = vis.VisiblePlaces(ctx, env.alice.ID, bobsPlaces)
	require.NoError(t, err)
	assert.Empty(t, got, "pending")

	_, err = env.svc.Respond(ctx, f.ID, env.bob.ID, DecisionAccept)
	require.NoError(t, err)
	got, err = vis.VisiblePlaces(ctx, env.alice.ID, bobsPlaces)
	require.NoError(t, err)
	assert.Equal(t, bobsPlaces, got, "accepted")

	require.NoError(t, env.svc.Remove(ctx, f.ID, env.alice.ID))
	got, err = vis.VisiblePlaces(ctx, env.alice.ID, bobsPlaces)
	require.NoError(t, err)
	assert.Empty(t, got, "removed")
}

func TestVisiblePlacesHidesDeclined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vis := NewVisibility(env.svc)

	f, err := env.svc.SendRequest(ctx, env.alice.ID, env.bob.ID)
	require.NoError(t, err)
	_, err = env.svc.Respond(ctx, f.ID, env.bob.ID, DecisionDecline)
	require.NoError(t, err)

	got, err := vis.VisiblePlaces(ctx, env.bob.ID, placesOf(env.alice, "pier"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVisiblePlacesMixedOwners(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vis := NewVisibility(env.svc)
	env.befriend(t, env.alice, env.bob)

	var places []models.Place
	places = append(places, placesOf(env.carol, "c1")...)
	places = append(places, placesOf(env.alice, "a1")...)
	places = append(places, placesOf(env.bob, "b1")...)
	places = append(places, models.Place{OwnerID: "not-a-uuid", Name: "junk"})

	got, err := vis.VisiblePlaces(ctx, env.alice.ID, places)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a1", "b1"}, names)
}

func TestFriendScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vis := NewVisibility(env.svc)
	env.befriend(t, env.bob, env.alice)

	mixed := append(placesOf(env.bob, "b1", "b2"), placesOf(env.carol, "c1")...)

	got, err := vis.FriendScoped(ctx, env.alice.ID, env.bob.ID, mixed)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = vis.FriendScoped(ctx, env.alice.ID, env.carol.ID, mixed)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	own, err := vis.FriendScoped(ctx, env.carol.ID, env.carol.ID, mixed)
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestCanView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vis := NewVisibility(env.svc)
	env.befriend(t, env.alice, env.bob)

	bobs := placesOf(env.bob, "b1")[0]
	ok, err := vis.CanView(ctx, env.alice.ID, &bobs)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = vis.CanView(ctx, env.carol.ID, &bobs)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = vis.CanView(ctx, env.bob.ID, &bobs)
	require.NoError(t, err)
	assert.True(t, ok)
}
