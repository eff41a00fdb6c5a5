package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/syrena/backend/internal/metrics"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	minSearchRunes     = 2

	// attempts of the insert / classify cycle in SendRequest
	sendAttempts = 3
)

// Directory resolves and searches user profiles.
type Directory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SearchUsers(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.User, error)
}

// Notifier delivers a friendship notification to one user.
type Notifier interface {
	Notify(ctx context.Context, to uuid.UUID, kind models.NotificationKind, payload models.NotificationPayload) error
}

// ChangeFeed pushes change events to connected clients.
type ChangeFeed interface {
	Publish(event models.ChangeEvent, recipients ...uuid.UUID)
}

type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, models.NotificationKind, models.NotificationPayload) error {
	return nil
}

type nopFeed struct{}

func (nopFeed) Publish(models.ChangeEvent, ...uuid.UUID) {}

// FriendshipService owns the friend request lifecycle. It is the only
// writer of friendship status.
type FriendshipService struct {
	friendships   repositories.FriendshipRepository
	directory     Directory
	notifier      Notifier
	feed          ChangeFeed
	logger        *zap.Logger
	now           func() time.Time
	searchLimit   int
	notifyTimeout time.Duration
}

type Option func(*FriendshipService)

func WithNotifier(n Notifier) Option {
	return func(s *FriendshipService) { s.notifier = n }
}

func WithChangeFeed(f ChangeFeed) Option {
	return func(s *FriendshipService) { s.feed = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *FriendshipService) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *FriendshipService) { s.now = now }
}

func WithSearchLimit(n int) Option {
	return func(s *FriendshipService) {
		if n > 0 && n <= MaxSearchLimit {
			s.searchLimit = n
		}
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *FriendshipService) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewFriendshipService(friendships repositories.FriendshipRepository, directory Directory, opts ...Option) *FriendshipService {
	s := &FriendshipService{
		friendships:   friendships,
		directory:     directory,
		notifier:      nopNotifier{},
		feed:          nopFeed{},
		logger:        zap.NewNop(),
		now:           func() time.Time { return time.Now().UTC() },
		searchLimit:   DefaultSearchLimit,
		notifyTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendRequest creates a pending request from requesterID to addresseeID.
// An existing pending or accepted row for the pair, in either direction,
// is a conflict. A declined row is reopened as a new request.
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	if requesterID == uuid.Nil || addresseeID == uuid.Nil {
		return nil, invalid("requester and addressee are required")
	}
	if requesterID == addresseeID {
		return nil, ErrSelfRequest
	}

	requester, err := s.resolve(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolve(ctx, addresseeID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < sendAttempts; attempt++ {
		now := s.now()
		f := &models.Friendship{
			RequesterID: requesterID,
			AddresseeID: addresseeID,
			Status:      models.FriendshipPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err := s.friendships.Create(ctx, f)
		if err == nil {
			s.requested(ctx, f, requester)
			return f, nil
		}
		if !errors.Is(err, repositories.ErrDuplicatePair) {
			return nil, unavailable("create friendship", err)
		}

		existing, err := s.friendships.GetByPair(ctx, requesterID, addresseeID)
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			// removed since the insert failed
			continue
		}
		if err != nil {
			return nil, unavailable("load friendship", err)
		}

		switch existing.Status {
		case models.FriendshipAccepted:
			return nil, ErrAlreadyFriends
		case models.FriendshipPending:
			return nil, ErrRequestPending
		}

		ok, err := s.friendships.Reopen(ctx, existing.ID, requesterID, addresseeID, now)
		if err != nil {
			return nil, unavailable("reopen friendship", err)
		}
		if !ok {
			continue
		}
		existing.RequesterID = requesterID
		existing.AddresseeID = addresseeID
		existing.Status = models.FriendshipPending
		existing.CreatedAt = now
		existing.UpdatedAt = now
		s.requested(ctx, existing, requester)
		return existing, nil
	}
	return nil, ErrRequestPending
}

func (s *FriendshipService) requested(ctx context.Context, f *models.Friendship, requester *models.User) {
	metrics.FriendshipTransitions.WithLabelValues("requested").Inc()
	s.logger.Info("friend request sent",
		zap.Stringer("friendship_id", f.ID),
		zap.Stringer("requester_id", f.RequesterID),
		zap.Stringer("addressee_id", f.AddresseeID))
	s.notify(ctx, f.AddresseeID, models.NotificationFriendRequest, models.NotificationPayload{
		ActorID:      f.RequesterID,
		ActorName:    requester.Name(),
		FriendshipID: f.ID,
	})
	s.publish(f, f.Status)
}

// Respond accepts or declines a pending request. Only the addressee may respond.
func (s *FriendshipService) Respond(ctx context.Context, friendshipID, responderID uuid.UUID, decision Decision) (*models.Friendship, error) {
	var to models.FriendshipStatus
	switch decision {
	case DecisionAccept:
		to = models.FriendshipAccepted
	case DecisionDecline:
		to = models.FriendshipDeclined
	default:
		return nil, invalid("decision must be accept or decline")
	}

	f, err := s.load(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != responderID {
		s.logger.Warn("respond by non-addressee",
			zap.Stringer("friendship_id", f.ID),
			zap.Stringer("actor_id", responderID))
		return nil, ErrNotAuthorized
	}
	if f.Status != models.FriendshipPending {
		return nil, ErrAlreadyResponded
	}

	now := s.now()
	ok, err := s.friendships.UpdateStatus(ctx, f.ID, models.FriendshipPending, to, now)
	if err != nil {
		return nil, unavailable("update friendship", err)
	}
	if !ok {
		return nil, ErrAlreadyResponded
	}
	f.Status = to
	f.UpdatedAt = now

	metrics.FriendshipTransitions.WithLabelValues(string(to)).Inc()
	s.logger.Info("friend request answered",
		zap.Stringer("friendship_id", f.ID),
		zap.String("status", string(to)))

	if to == models.FriendshipAccepted {
		payload := models.NotificationPayload{ActorID: responderID, FriendshipID: f.ID}
		if u, err := s.directory.GetUserByID(ctx, responderID); err == nil {
			payload.ActorName = u.Name()
		}
		s.notify(ctx, f.RequesterID, models.NotificationFriendAccepted, payload)
	}
	s.publish(f, to)
	return f, nil
}

// Remove hard-deletes an accepted friendship. Either party may remove it.
func (s *FriendshipService) Remove(ctx context.Context, friendshipID, actorID uuid.UUID) error {
	f, err := s.load(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !f.Involves(actorID) {
		s.logger.Warn("remove by non-party",
			zap.Stringer("friendship_id", f.ID),
			zap.Stringer("actor_id", actorID))
		return ErrNotAuthorized
	}
	if f.Status != models.FriendshipAccepted {
		return ErrNotFriends
	}

	ok, err := s.friendships.DeleteWithStatus(ctx, f.ID, models.FriendshipAccepted)
	if err != nil {
		return unavailable("delete friendship", err)
	}
	if !ok {
		return notFound("friendship")
	}

	metrics.FriendshipTransitions.WithLabelValues("removed").Inc()
	s.logger.Info("friendship removed",
		zap.Stringer("friendship_id", f.ID),
		zap.Stringer("actor_id", actorID))
	s.publish(f, "")
	return nil
}

// ListView partitions every live relationship of viewerID into friends,
// incoming and outgoing requests.
func (s *FriendshipService) ListView(ctx context.Context, viewerID uuid.UUID) (models.FriendView, error) {
	view := models.FriendView{
		Friends:  []models.Connection{},
		Incoming: []models.Connection{},
		Outgoing: []models.Connection{},
	}
	rows, err := s.friendships.ListByUser(ctx, viewerID)
	if err != nil {
		return view, unavailable("list friendships", err)
	}
	for i := range rows {
		f := &rows[i]
		if !f.Involves(viewerID) {
			continue
		}
		conn := models.Connection{
			FriendshipID: f.ID,
			UserID:       f.Counterpart(viewerID),
			Status:       f.Status,
			IsRequester:  f.RequesterID == viewerID,
			CreatedAt:    f.CreatedAt,
		}
		switch {
		case f.Status == models.FriendshipAccepted:
			view.Friends = append(view.Friends, conn)
		case f.Status == models.FriendshipPending && conn.IsRequester:
			view.Outgoing = append(view.Outgoing, conn)
		case f.Status == models.FriendshipPending:
			view.Incoming = append(view.Incoming, conn)
		}
	}
	return view, nil
}

// SearchCandidates finds users by handle or display name and annotates each
// hit with the viewer's current relationship to them.
func (s *FriendshipService) SearchCandidates(ctx context.Context, viewerID uuid.UUID, query string, limit int) ([]models.Candidate, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchRunes {
		return nil, invalid("search query must be at least 2 characters")
	}
	if limit <= 0 {
		limit = s.searchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	users, err := s.directory.SearchUsers(ctx, query, viewerID, limit)
	if err != nil {
		return nil, unavailable("search users", err)
	}
	view, err := s.ListView(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	type rel struct {
		conn     models.Connection
		relation models.Relation
	}
	byUser := make(map[uuid.UUID]rel)
	for _, c := range view.Friends {
		byUser[c.UserID] = rel{c, models.RelationFriends}
	}
	for _, c := range view.Outgoing {
		byUser[c.UserID] = rel{c, models.RelationOutgoing}
	}
	for _, c := range view.Incoming {
		byUser[c.UserID] = rel{c, models.RelationIncoming}
	}

	out := make([]models.Candidate, 0, len(users))
	for i := range users {
		u := &users[i]
		if u.ID == viewerID {
			continue
		}
		cand := models.Candidate{User: u.ToCompact(), Relation: models.RelationNone}
		if r, ok := byUser[u.ID]; ok {
			id, status := r.conn.FriendshipID, r.conn.Status
			cand.Relation = r.relation
			cand.FriendshipID = &id
			cand.FriendshipStatus = &status
		}
		out = append(out, cand)
	}
	return out, nil
}

func (s *FriendshipService) resolve(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.directory.GetUserByID(ctx, id)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, unavailable("resolve user", err)
	}
	return u, nil
}

func (s *FriendshipService) load(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	f, err := s.friendships.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrFriendshipNotFound) {
		return nil, notFound("friendship")
	}
	if err != nil {
		return nil, unavailable("load friendship", err)
	}
	return f, nil
}

// notify is best effort. Failures are logged and counted only.
func (s *FriendshipService) notify(ctx context.Context, to uuid.UUID, kind models.NotificationKind, payload models.NotificationPayload) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, to, kind, payload); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(kind)).Inc()
		s.logger.Warn("notification failed",
			zap.String("kind", string(kind)),
			zap.Stringer("recipient_id", to),
			zap.Error(err))
	}
}

func (s *FriendshipService) publish(f *models.Friendship, status models.FriendshipStatus) {
	s.feed.Publish(models.ChangeEvent{
		Type:         models.ChangeFriendship,
		FriendshipID: f.ID.String(),
		Status:       status,
		At:           s.now(),
	}, f.RequesterID, f.AddresseeID)
}
