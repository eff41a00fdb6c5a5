package services

import (
	"context"
	"testing"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func newPlaceService(t *testing.T) (*testEnv, *PlaceService, *repotest.PlaceStore) {
	t.Helper()
	env := newTestEnv(t)
	store := repotest.NewPlaceStore()
	return env, NewPlaceService(store, env.svc, env.feed, nil), store
}

func pin(t *testing.T, svc *PlaceService, owner models.User, name string) *models.Place {
	t.Helper()
	p, err := svc.CreatePlace(context.Background(), owner.ID, models.CreatePlaceRequest{
		Name: name,
		Lat:  ptr(52.23),
		Lng:  ptr(21.01),
	})
	require.NoError(t, err)
	return p
}

func TestCreatePlaceCategory(t *testing.T) {
	_, svc, _ := newPlaceService(t)
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.CreatePlace(ctx, owner, models.CreatePlaceRequest{
		Name:       "  Cafe Bristol ",
		Lat:        ptr(52.24),
		Lng:        ptr(21.01),
		PlaceTypes: []string{"point_of_interest", "cafe", "food"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cafe Bristol", p.Name)
	assert.Equal(t, "restaurant", p.Category)
	assert.Equal(t, owner.String(), p.OwnerID)

	p, err = svc.CreatePlace(ctx, owner, models.CreatePlaceRequest{
		Name: "Bench", Lat: ptr(0), Lng: ptr(0), Category: "hidden-gem",
	})
	require.NoError(t, err)
	assert.Equal(t, "hidden-gem", p.Category)

	p, err = svc.CreatePlace(ctx, owner, models.CreatePlaceRequest{Name: "Somewhere", Lat: ptr(1), Lng: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, p.Category)
}

func TestCreatePlaceValidation(t *testing.T) {
	_, svc, _ := newPlaceService(t)
	ctx := context.Background()
	owner := uuid.New()

	cases := map[string]models.CreatePlaceRequest{
		"blank name":       {Name: "   ", Lat: ptr(0), Lng: ptr(0)},
		"missing lat":      {Name: "x", Lng: ptr(0)},
		"lat out of range": {Name: "x", Lat: ptr(91), Lng: ptr(0)},
		"lng out of range": {Name: "x", Lat: ptr(0), Lng: ptr(-181)},
		"price level":      {Name: "x", Lat: ptr(0), Lng: ptr(0), PriceLevel: 5},
		"unknown category": {Name: "x", Lat: ptr(0), Lng: ptr(0), Category: "casino"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreatePlace(ctx, owner, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestListVisibleAndFriendPlaces(t *testing.T) {
	env, svc, _ := newPlaceService(t)
	ctx := context.Background()

	pin(t, svc, env.alice, "alice home")
	pin(t, svc, env.bob, "bob spot")
	pin(t, svc, env.carol, "carol secret")
	env.befriend(t, env.alice, env.bob)
	_, err := env.svc.SendRequest(ctx, env.alice.ID, env.carol.ID)
	require.NoError(t, err)

	visible, err := svc.ListVisible(ctx, env.alice.ID, 1, 20)
	require.NoError(t, err)
	var names []string
	for _, p := range visible {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"alice home", "bob spot"}, names)

	bobs, err := svc.ListFriendPlaces(ctx, env.alice.ID, env.bob.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, "bob spot", bobs[0].Name)

	_, err = svc.ListFriendPlaces(ctx, env.alice.ID, env.carol.ID, 1, 20)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	mine, err := svc.ListMine(ctx, env.carol.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestMarkVisited(t *testing.T) {
	env, svc, _ := newPlaceService(t)
	ctx := context.Background()
	env.befriend(t, env.alice, env.bob)
	spot := pin(t, svc, env.bob, "bob spot")
	assert.False(t, spot.Visited)

	p, err := svc.MarkVisited(ctx, env.alice.ID, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, p.VisitCount)
	assert.True(t, p.Visited)

	p, err = svc.MarkVisited(ctx, env.bob.ID, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2, p.VisitCount)

	_, err = svc.MarkVisited(ctx, env.carol.ID, spot.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.MarkVisited(ctx, env.alice.ID, "000000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepeatVisitCountsOnce(t *testing.T) {
	env, svc, _ := newPlaceService(t)
	ctx := context.Background()
	env.befriend(t, env.alice, env.bob)
	spot := pin(t, svc, env.bob, "bob spot")

	for i := 0; i < 3; i++ {
		p, err := svc.MarkVisited(ctx, env.alice.ID, spot.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, 1, p.VisitCount)
		assert.True(t, p.Visited)
	}

	// the owner sees the count but has not visited herself
	p, err := svc.GetPlace(ctx, env.bob.ID, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, p.VisitCount)
	assert.False(t, p.Visited)
}

func TestUnmarkVisited(t *testing.T) {
	env, svc, _ := newPlaceService(t)
	ctx := context.Background()
	env.befriend(t, env.alice, env.bob)
	spot := pin(t, svc, env.bob, "bob spot")

	_, err := svc.MarkVisited(ctx, env.alice.ID, spot.ID.Hex())
	require.NoError(t, err)
	_, err = svc.MarkVisited(ctx, env.bob.ID, spot.ID.Hex())
	require.NoError(t, err)

	p, err := svc.UnmarkVisited(ctx, env.alice.ID, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, p.VisitCount)
	assert.False(t, p.Visited)

	// un-visiting again changes nothing
	p, err = svc.UnmarkVisited(ctx, env.alice.ID, spot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, p.VisitCount)

	_, err = svc.UnmarkVisited(ctx, env.carol.ID, spot.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.ListFriendPlaces(ctx, env.alice.ID, env.bob.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Visited)

	mine, err := svc.ListMine(ctx, env.bob.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Visited)
}

func TestGetPlaceHidesStrangersPlaces(t *testing.T) {
	env, svc, _ := newPlaceService(t)
	spot := pin(t, svc, env.bob, "bob spot")

	_, err := svc.GetPlace(context.Background(), env.carol.ID, spot.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePlace(t *testing.T) {
	env, svc, store := newPlaceService(t)
	ctx := context.Background()
	env.befriend(t, env.alice, env.bob)
	spot := pin(t, svc, env.bob, "bob spot")

	assert.ErrorIs(t, svc.DeletePlace(ctx, env.alice.ID, spot.ID.Hex()), ErrNotAuthorized)
	require.NoError(t, svc.DeletePlace(ctx, env.bob.ID, spot.ID.Hex()))
	_, err := store.GetPlaceByID(ctx, spot.ID.Hex())
	assert.Error(t, err)
	assert.ErrorIs(t, svc.DeletePlace(ctx, env.bob.ID, spot.ID.Hex()), ErrNotFound)
}

func TestPlaceChangesReachFriends(t *testing.T) {
	env, svc, _ := newPlaceService(t)
	env.befriend(t, env.alice, env.bob)
	before := len(env.feed.all())

	spot := pin(t, svc, env.bob, "bob spot")

	events := env.feed.all()[before:]
	require.Len(t, events, 1)
	assert.Equal(t, models.ChangePlace, events[0].event.Type)
	assert.Equal(t, spot.ID.Hex(), events[0].event.PlaceID)
	assert.ElementsMatch(t, []uuid.UUID{env.bob.ID, env.alice.ID}, events[0].recipients)
}

func TestPlaceStoreFailureIsUnavailable(t *testing.T) {
	env, svc, store := newPlaceService(t)
	store.Err = assert.AnError

	_, err := svc.ListMine(context.Background(), env.alice.ID, 1, 20)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
}
