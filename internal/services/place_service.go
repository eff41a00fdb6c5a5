package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPlaceName    = 120
)

// PlaceService manages a user's pinned places and applies Visibility to
// every read of someone else's places.
type PlaceService struct {
	places     repositories.PlaceRepository
	friends    FriendLister
	visibility *Visibility
	feed       ChangeFeed
	logger     *zap.Logger
}

func NewPlaceService(places repositories.PlaceRepository, friends FriendLister, feed ChangeFeed, logger *zap.Logger) *PlaceService {
	if feed == nil {
		feed = nopFeed{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaceService{
		places:     places,
		friends:    friends,
		visibility: NewVisibility(friends),
		feed:       feed,
		logger:     logger,
	}
}

func (s *PlaceService) CreatePlace(ctx context.Context, ownerID uuid.UUID, req models.CreatePlaceRequest) (*models.Place, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxPlaceName {
		return nil, invalid("name must be between 1 and 120 characters")
	}
	if req.Lat == nil || *req.Lat < -90 || *req.Lat > 90 {
		return nil, invalid("lat must be between -90 and 90")
	}
	if req.Lng == nil || *req.Lng < -180 || *req.Lng > 180 {
		return nil, invalid("lng must be between -180 and 180")
	}
	if req.PriceLevel < 0 || req.PriceLevel > 4 {
		return nil, invalid("price_level must be between 0 and 4")
	}

	category := req.Category
	if category != "" && !IsCategory(category) {
		return nil, invalid("unknown category " + category)
	}
	if category == "" {
		category = DetectCategory(req.PlaceTypes)
	}
	if category == "" {
		category = CategoryOther
	}

	place := &models.Place{
		OwnerID:     ownerID.String(),
		Name:        name,
		Description: req.Description,
		Category:    category,
		Notes:       req.Notes,
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		PriceLevel:  req.PriceLevel,
		PhotoURL:    req.PhotoURL,
		PlaceTypes:  req.PlaceTypes,
	}
	if err := s.places.CreatePlace(ctx, place); err != nil {
		return nil, unavailable("create place", err)
	}
	s.logger.Info("place created",
		zap.String("place_id", place.ID.Hex()),
		zap.Stringer("owner_id", ownerID))
	s.announce(ctx, ownerID, place.ID.Hex())
	return place, nil
}

func (s *PlaceService) ListMine(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]models.Place, error) {
	skip, lim := pageBounds(page, limit)
	places, err := s.places.ListByOwners(ctx, []string{ownerID.String()}, skip, lim)
	if err != nil {
		return nil, unavailable("list places", err)
	}
	return annotate(ownerID, nonNil(places)), nil
}

// ListVisible is the explore view: the viewer's places and those of every
// accepted friend.
func (s *PlaceService) ListVisible(ctx context.Context, viewerID uuid.UUID, page, limit int) ([]models.Place, error) {
	view, err := s.friends.ListView(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	owners := []string{viewerID.String()}
	for _, c := range view.Friends {
		owners = append(owners, c.UserID.String())
	}

	skip, lim := pageBounds(page, limit)
	places, err := s.places.ListByOwners(ctx, owners, skip, lim)
	if err != nil {
		return nil, unavailable("list places", err)
	}
	return annotate(viewerID, filterVisible(viewerID, view.FriendIDs(), places)), nil
}

// ListFriendPlaces returns one friend's places. It fails with
// ErrNotAuthorized when friendID is not an accepted friend.
func (s *PlaceService) ListFriendPlaces(ctx context.Context, viewerID, friendID uuid.UUID, page, limit int) ([]models.Place, error) {
	if err := s.visibility.CheckFriend(ctx, viewerID, friendID); err != nil {
		return nil, err
	}
	skip, lim := pageBounds(page, limit)
	places, err := s.places.ListByOwners(ctx, []string{friendID.String()}, skip, lim)
	if err != nil {
		return nil, unavailable("list places", err)
	}
	visible, err := s.visibility.FriendScoped(ctx, viewerID, friendID, places)
	if err != nil {
		return nil, err
	}
	return annotate(viewerID, visible), nil
}

// GetPlace returns a place the viewer can see. Places the viewer cannot
// see are reported as not found.
func (s *PlaceService) GetPlace(ctx context.Context, viewerID uuid.UUID, placeID string) (*models.Place, error) {
	place, err := s.visible(ctx, viewerID, placeID)
	if err != nil {
		return nil, err
	}
	markVisited(viewerID, place)
	return place, nil
}

// MarkVisited records the viewer as a visitor. Visiting twice counts once.
func (s *PlaceService) MarkVisited(ctx context.Context, viewerID uuid.UUID, placeID string) (*models.Place, error) {
	return s.setVisited(ctx, viewerID, placeID, true)
}

// UnmarkVisited removes the viewer's visit.
func (s *PlaceService) UnmarkVisited(ctx context.Context, viewerID uuid.UUID, placeID string) (*models.Place, error) {
	return s.setVisited(ctx, viewerID, placeID, false)
}

func (s *PlaceService) setVisited(ctx context.Context, viewerID uuid.UUID, placeID string, visited bool) (*models.Place, error) {
	if _, err := s.visible(ctx, viewerID, placeID); err != nil {
		return nil, err
	}

	var (
		updated *models.Place
		err     error
	)
	if visited {
		updated, err = s.places.AddVisitor(ctx, placeID, viewerID.String())
	} else {
		updated, err = s.places.RemoveVisitor(ctx, placeID, viewerID.String())
	}
	if errors.Is(err, repositories.ErrPlaceNotFound) {
		return nil, notFound("place")
	}
	if err != nil {
		return nil, unavailable("update visit", err)
	}
	markVisited(viewerID, updated)
	return updated, nil
}

// visible loads a place and hides it behind ErrNotFound unless the viewer
// may see it.
func (s *PlaceService) visible(ctx context.Context, viewerID uuid.UUID, placeID string) (*models.Place, error) {
	place, err := s.get(ctx, placeID)
	if err != nil {
		return nil, err
	}
	ok, err := s.visibility.CanView(ctx, viewerID, place)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("place")
	}
	return place, nil
}

func (s *PlaceService) DeletePlace(ctx context.Context, ownerID uuid.UUID, placeID string) error {
	place, err := s.get(ctx, placeID)
	if err != nil {
		return err
	}
	if place.OwnerID != ownerID.String() {
		s.logger.Warn("delete by non-owner",
			zap.String("place_id", placeID),
			zap.Stringer("actor_id", ownerID))
		return ErrNotAuthorized
	}
	err = s.places.DeletePlace(ctx, placeID)
	if errors.Is(err, repositories.ErrPlaceNotFound) {
		return notFound("place")
	}
	if err != nil {
		return unavailable("delete place", err)
	}
	s.announce(ctx, ownerID, placeID)
	return nil
}

func (s *PlaceService) get(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := s.places.GetPlaceByID(ctx, placeID)
	if errors.Is(err, repositories.ErrPlaceNotFound) {
		return nil, notFound("place")
	}
	if err != nil {
		return nil, unavailable("load place", err)
	}
	return place, nil
}

// announce tells the owner and the owner's friends that a place changed.
func (s *PlaceService) announce(ctx context.Context, ownerID uuid.UUID, placeID string) {
	recipients := []uuid.UUID{ownerID}
	if view, err := s.friends.ListView(ctx, ownerID); err == nil {
		for _, c := range view.Friends {
			recipients = append(recipients, c.UserID)
		}
	} else {
		s.logger.Warn("place change fan-out limited to owner", zap.Error(err))
	}
	s.feed.Publish(models.ChangeEvent{
		Type:    models.ChangePlace,
		PlaceID: placeID,
		At:      time.Now().UTC(),
	}, recipients...)
}

func pageBounds(page, limit int) (skip, lim int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return int64((page - 1) * limit), int64(limit)
}

func markVisited(viewerID uuid.UUID, place *models.Place) {
	place.Visited = slices.Contains(place.Visitors, viewerID.String())
}

func annotate(viewerID uuid.UUID, places []models.Place) []models.Place {
	for i := range places {
		markVisited(viewerID, &places[i])
	}
	return places
}

func nonNil(places []models.Place) []models.Place {
	if places == nil {
		return []models.Place{}
	}
	return places
}
