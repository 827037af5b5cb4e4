package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/luggagehub/internal/capacity"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	"github.com/smallbiznis/luggagehub/internal/notification"
	"github.com/smallbiznis/luggagehub/internal/observability/metrics"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxContactLength = 255
	maxNoteLength    = 2000
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	location *time.Location
	repo     reservationdomain.Repository
	listings listingdomain.Repository
	users    userdomain.Repository
	notifier notification.Notifier
	metrics  *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Repo     reservationdomain.Repository
	Listings listingdomain.Repository
	Users    userdomain.Repository
	Notifier notification.Notifier
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) reservationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reservation.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		location: p.Config.Location(),
		repo:     p.Repo,
		listings: p.Listings,
		users:    p.Users,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

// Create reserves kilograms on a listing for the buyer. The listing row is locked
// for the whole check-and-insert, so concurrent requests on one listing are serialized.
func (s *Service) Create(ctx context.Context, req reservationdomain.CreateRequest) (reservationdomain.Result, error) {
	listingID, err := parseID(req.ListingID, reservationdomain.ErrInvalidListing)
	if err != nil {
		return reservationdomain.Result{}, err
	}
	if req.BuyerID == 0 {
		return reservationdomain.Result{}, reservationdomain.ErrInvalidBuyer
	}

	contact := strings.TrimSpace(req.ContactHandle)
	note := strings.TrimSpace(req.Note)
	if len(contact) > maxContactLength || len(note) > maxNoteLength {
		return reservationdomain.Result{}, reservationdomain.ErrContactTooLong
	}
	kg := req.KgRequested
	if !capacity.HasKgPrecision(kg) {
		return reservationdomain.Result{}, capacity.ErrInvalidQuantity
	}

	var (
		listing     listingdomain.Listing
		reservation reservationdomain.Reservation
		before      capacity.Summary
		after       capacity.Summary
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.listings.FindByIDForUpdate(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if locked == nil {
			return reservationdomain.ErrListingNotFound
		}
		listing = *locked

		existing, err := s.repo.ListByListing(ctx, tx, listing.ID)
		if err != nil {
			return err
		}
		entries := reservationdomain.LedgerEntries(existing)

		today := s.today()
		before = capacity.Summarize(listing.Ledger(), entries, today)
		committed := capacity.CommittedKg(entries, 0)
		if err := capacity.ValidateCommit(listing.Ledger(), req.BuyerID, kg, committed, today); err != nil {
			return err
		}

		now := s.clock.Now()
		reservation = reservationdomain.Reservation{
			ID:            s.genID.Generate(),
			ListingID:     listing.ID,
			BuyerID:       req.BuyerID,
			KgRequested:   kg,
			ContactHandle: contact,
			Note:          note,
			Status:        reservationdomain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &reservation); err != nil {
			return err
		}

		after = capacity.Summarize(listing.Ledger(), append(entries, reservation.Ledger()), today)
		return nil
	})
	if err != nil {
		s.recordRejection(ctx, err)
		return reservationdomain.Result{}, err
	}

	s.metrics.RecordReservationCreated(ctx)
	s.log.Info("reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("listing_id", listing.ID.String()),
		zap.String("kg_requested", reservation.KgRequested.String()),
		zap.String("remaining_kg", after.RemainingKg.String()),
	)

	info := listingInfo(listing, after)
	s.notifier.Notify(ctx, info, notification.ReservationCreated(s.reservationInfo(ctx, reservation)))
	if event, ok := notification.FromEdge(capacity.Crossing(before, after)); ok {
		s.notifier.Notify(ctx, info, event)
	}

	return reservationdomain.Result{Reservation: reservation, Capacity: after}, nil
}

// Transition moves a reservation to a new status on behalf of the listing owner.
func (s *Service) Transition(ctx context.Context, req reservationdomain.TransitionRequest) (reservationdomain.Result, error) {
	reservationID, err := parseID(req.ReservationID, reservationdomain.ErrInvalidReservation)
	if err != nil {
		return reservationdomain.Result{}, err
	}
	target, err := capacity.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		s.recordRejection(ctx, err)
		return reservationdomain.Result{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, reservationID)
	if err != nil {
		return reservationdomain.Result{}, err
	}
	if current == nil {
		return reservationdomain.Result{}, reservationdomain.ErrReservationNotFound
	}

	var (
		listing     listingdomain.Listing
		reservation reservationdomain.Reservation
		previous    reservationdomain.Status
		before      capacity.Summary
		after       capacity.Summary
		unchanged   bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// listing first, then the reservation: the same order Create uses
		locked, err := s.listings.FindByIDForUpdate(ctx, tx, current.ListingID)
		if err != nil {
			return err
		}
		if locked == nil {
			return reservationdomain.ErrListingNotFound
		}
		listing = *locked

		row, err := s.repo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if row == nil {
			return reservationdomain.ErrReservationNotFound
		}
		reservation = *row

		if listing.SellerID != req.ActorID {
			return reservationdomain.ErrForbidden
		}

		existing, err := s.repo.ListByListing(ctx, tx, listing.ID)
		if err != nil {
			return err
		}
		entries := reservationdomain.LedgerEntries(existing)
		today := s.today()
		before = capacity.Summarize(listing.Ledger(), entries, today)

		if reservation.Status == target {
			unchanged = true
			after = before
			return nil
		}

		committed := capacity.CommittedKg(entries, reservation.ID)
		if err := capacity.ValidateStatusChange(listing.Ledger(), reservation.Ledger(), target, committed, today); err != nil {
			return err
		}

		now := s.clock.Now()
		if err := s.repo.UpdateStatus(ctx, tx, reservation.ID, target, now); err != nil {
			return err
		}
		previous = reservation.Status
		reservation.Status = target
		reservation.UpdatedAt = now

		for i := range entries {
			if entries[i].ID == reservation.ID {
				entries[i].Status = target
			}
		}
		after = capacity.Summarize(listing.Ledger(), entries, today)
		return nil
	})
	if err != nil {
		s.recordRejection(ctx, err)
		return reservationdomain.Result{}, err
	}

	result := reservationdomain.Result{Reservation: reservation, Capacity: after}
	if unchanged {
		return result, nil
	}

	s.metrics.RecordReservationTransition(ctx, previous.String(), target.String())
	s.log.Info("reservation status changed",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("listing_id", listing.ID.String()),
		zap.String("from", previous.String()),
		zap.String("to", target.String()),
		zap.String("remaining_kg", after.RemainingKg.String()),
	)

	info := listingInfo(listing, after)
	s.notifier.Notify(ctx, info, notification.ReservationStatusChanged(s.reservationInfo(ctx, reservation), previous))
	if event, ok := notification.FromEdge(capacity.Crossing(before, after)); ok {
		s.notifier.Notify(ctx, info, event)
	}

	return result, nil
}

// Get returns a reservation visible to its buyer and to the listing owner.
func (s *Service) Get(ctx context.Context, id string, viewerID snowflake.ID) (reservationdomain.Reservation, error) {
	reservationID, err := parseID(id, reservationdomain.ErrInvalidReservation)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}

	reservation, err := s.repo.FindByID(ctx, s.db, reservationID)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}
	if reservation == nil {
		return reservationdomain.Reservation{}, reservationdomain.ErrReservationNotFound
	}
	if reservation.BuyerID == viewerID {
		return *reservation, nil
	}

	listing, err := s.listings.FindByID(ctx, s.db, reservation.ListingID)
	if err != nil {
		return reservationdomain.Reservation{}, err
	}
	if listing == nil || listing.SellerID != viewerID {
		return reservationdomain.Reservation{}, reservationdomain.ErrForbidden
	}
	return *reservation, nil
}

func (s *Service) ListForListing(ctx context.Context, listingID string, ownerID snowflake.ID) ([]reservationdomain.Reservation, error) {
	id, err := parseID(listingID, reservationdomain.ErrInvalidListing)
	if err != nil {
		return nil, err
	}

	listing, err := s.listings.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, reservationdomain.ErrListingNotFound
	}
	if listing.SellerID != ownerID {
		return nil, reservationdomain.ErrForbidden
	}

	items, err := s.repo.ListByListing(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []reservationdomain.Reservation{}
	}
	return items, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID snowflake.ID) ([]reservationdomain.Reservation, error) {
	if buyerID == 0 {
		return nil, reservationdomain.ErrInvalidBuyer
	}
	items, err := s.repo.ListByBuyer(ctx, s.db, buyerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []reservationdomain.Reservation{}
	}
	return items, nil
}

func (s *Service) reservationInfo(ctx context.Context, r reservationdomain.Reservation) notification.ReservationInfo {
	buyer := r.BuyerID.String()
	if user, err := s.users.FindByID(ctx, s.db, r.BuyerID); err != nil {
		s.log.Warn("failed to load buyer for notification", zap.String("buyer_id", buyer), zap.Error(err))
	} else if user != nil {
		buyer = user.DisplayName()
	}

	return notification.ReservationInfo{
		ID:        r.ID,
		BuyerName: buyer,
		Kg:        r.KgRequested,
		Status:    r.Status,
	}
}

func (s *Service) recordRejection(ctx context.Context, err error) {
	if code := capacity.Code(err); code != "" {
		s.metrics.RecordCapacityRejection(ctx, code)
	}
}

func (s *Service) today() time.Time {
	y, m, d := s.clock.Now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func listingInfo(listing listingdomain.Listing, summary capacity.Summary) notification.ListingInfo {
	return notification.ListingInfo{
		ID:            listing.ID,
		Title:         listing.Title,
		DepartureCity: listing.DepartureCity,
		ArrivalCity:   listing.ArrivalCity,
		RemainingKg:   summary.RemainingKg,
	}
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
