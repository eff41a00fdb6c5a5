package services

import (
	"context"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
)

// FriendLister is the read side of the friendship service.
type FriendLister interface {
	ListView(ctx context.Context, viewerID uuid.UUID) (models.FriendView, error)
}

// Visibility decides which places a viewer may see: their own, and those of
// accepted friends. It never caches the friend set.
type Visibility struct {
	friends FriendLister
}

func NewVisibility(friends FriendLister) *Visibility {
	return &Visibility{friends: friends}
}

// VisiblePlaces returns the subset of places owned by viewerID or by one of
// viewerID's accepted friends, preserving order.
func (v *Visibility) VisiblePlaces(ctx context.Context, viewerID uuid.UUID, places []models.Place) ([]models.Place, error) {
	view, err := v.friends.ListView(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return filterVisible(viewerID, view.FriendIDs(), places), nil
}

// FriendScoped returns only friendID's places, and only while friendID is an
// accepted friend of viewerID. A viewer may always scope to themself.
func (v *Visibility) FriendScoped(ctx context.Context, viewerID, friendID uuid.UUID, places []models.Place) ([]models.Place, error) {
	if err := v.CheckFriend(ctx, viewerID, friendID); err != nil {
		return nil, err
	}
	owner := friendID.String()
	out := make([]models.Place, 0, len(places))
	for _, p := range places {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

// CheckFriend returns ErrNotAuthorized unless friendID is viewerID or an accepted friend.
func (v *Visibility) CheckFriend(ctx context.Context, viewerID, friendID uuid.UUID) error {
	if viewerID == friendID {
		return nil
	}
	view, err := v.friends.ListView(ctx, viewerID)
	if err != nil {
		return err
	}
	if _, ok := view.FriendIDs()[friendID]; !ok {
		return ErrNotAuthorized
	}
	return nil
}

func (v *Visibility) CanView(ctx context.Context, viewerID uuid.UUID, place *models.Place) (bool, error) {
	if place.OwnerID == viewerID.String() {
		return true, nil
	}
	owner, err := uuid.Parse(place.OwnerID)
	if err != nil {
		return false, nil
	}
	view, err := v.friends.ListView(ctx, viewerID)
	if err != nil {
		return false, err
	}
	_, ok := view.FriendIDs()[owner]
	return ok, nil
}

func filterVisible(viewerID uuid.UUID, friends map[uuid.UUID]struct{}, places []models.Place) []models.Place {
	allowed := make(map[string]struct{}, len(friends)+1)
	allowed[viewerID.String()] = struct{}{}
	for id := range friends {
		allowed[id.String()] = struct{}{}
	}
	out := make([]models.Place, 0, len(places))
	for _, p := range places {
		if _, ok := allowed[p.OwnerID]; ok {
			out = append(out, p)
		}
	}
	return out
}
