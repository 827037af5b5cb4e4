package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/luggagehub/internal/capacity"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	"github.com/smallbiznis/luggagehub/pkg/db/option"
	"github.com/smallbiznis/luggagehub/pkg/db/pagination"
	"github.com/smallbiznis/luggagehub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	clock        clock.Clock
	location     *time.Location
	marketplace  *config.MarketplaceConfigHolder
	repo         listingdomain.Repository
	reservations reservationdomain.Repository
	listingStore repository.Repository[listingdomain.Listing]
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Config       config.Config
	Marketplace  *config.MarketplaceConfigHolder
	Repo         listingdomain.Repository
	Reservations reservationdomain.Repository
}

func NewService(p ServiceParam) listingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("listing.service"),

		genID:        p.GenID,
		clock:        p.Clock,
		location:     p.Config.Location(),
		marketplace:  p.Marketplace,
		repo:         p.Repo,
		reservations: p.Reservations,
		listingStore: repository.ProvideStore[listingdomain.Listing](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req listingdomain.CreateRequest) (listingdomain.Detail, error) {
	if req.SellerID == 0 {
		return listingdomain.Detail{}, listingdomain.ErrInvalidSeller
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 200 {
		return listingdomain.Detail{}, listingdomain.ErrInvalidTitle
	}
	if !req.TotalKg.IsPositive() || !capacity.HasKgPrecision(req.TotalKg) {
		return listingdomain.Detail{}, listingdomain.ErrInvalidTotalKg
	}
	if !req.PricePerKg.IsPositive() || !capacity.HasKgPrecision(req.PricePerKg) {
		return listingdomain.Detail{}, listingdomain.ErrInvalidPrice
	}

	market := s.marketplace.Get()
	currency := strings.ToUpper(strings.TrimSpace(req.PriceCurrency))
	if !market.AcceptsCurrency(currency) {
		return listingdomain.Detail{}, listingdomain.ErrInvalidCurrency
	}

	availableUntil, err := parseDate(req.AvailableUntil)
	if err != nil {
		return listingdomain.Detail{}, err
	}
	today := s.today()
	if availableUntil.Before(today) {
		return listingdomain.Detail{}, listingdomain.ErrInvalidAvailableUntil
	}

	departure := defaultString(req.DepartureCity, market.DefaultCities.Departure)
	arrival := defaultString(req.ArrivalCity, market.DefaultCities.Arrival)
	if departure == "" || arrival == "" {
		return listingdomain.Detail{}, listingdomain.ErrInvalidCity
	}

	now := s.clock.Now()
	listing := listingdomain.Listing{
		ID:              s.genID.Generate(),
		SellerID:        req.SellerID,
		Title:           title,
		Slug:            makeSlug(title),
		TotalKg:         req.TotalKg,
		PricePerKg:      req.PricePerKg,
		PriceCurrency:   currency,
		AvailableUntil:  availableUntil,
		ArrivalAt:       utcPtr(req.ArrivalAt),
		DepartureCity:   departure,
		ArrivalCity:     arrival,
		PickupLocation:  strings.TrimSpace(req.PickupLocation),
		DeliveryOptions: strings.TrimSpace(req.DeliveryOptions),
		AllowedItems:    strings.TrimSpace(req.AllowedItems),
		ProhibitedItems: strings.TrimSpace(req.ProhibitedItems),
		Description:     strings.TrimSpace(req.Description),
		Metadata:        toJSONMap(req.Metadata),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.listingStore.Create(ctx, &listing); err != nil {
		return listingdomain.Detail{}, err
	}

	s.log.Info("listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("seller_id", listing.SellerID.String()),
		zap.String("total_kg", listing.TotalKg.String()),
	)

	return listingdomain.Detail{
		Listing:  listing,
		Capacity: capacity.Summarize(listing.Ledger(), nil, today),
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (listingdomain.Detail, error) {
	listingID, err := parseID(id)
	if err != nil {
		return listingdomain.Detail{}, err
	}

	listing, err := s.repo.FindByID(ctx, s.db, listingID)
	if err != nil {
		return listingdomain.Detail{}, err
	}
	if listing == nil {
		return listingdomain.Detail{}, listingdomain.ErrListingNotFound
	}

	details, err := s.withCapacity(ctx, []listingdomain.Listing{*listing})
	if err != nil {
		return listingdomain.Detail{}, err
	}
	return details[0], nil
}

func (s *Service) Update(ctx context.Context, req listingdomain.UpdateRequest) (listingdomain.Detail, error) {
	listingID, err := parseID(req.ID)
	if err != nil {
		return listingdomain.Detail{}, err
	}

	market := s.marketplace.Get()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.repo.FindByIDForUpdate(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return listingdomain.ErrListingNotFound
		}
		if listing.SellerID != req.ActorID {
			return listingdomain.ErrForbidden
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" || len(title) > 200 {
				return listingdomain.ErrInvalidTitle
			}
			listing.Title = title
			listing.Slug = makeSlug(title)
		}
		if req.PricePerKg != nil {
			if !req.PricePerKg.IsPositive() || !capacity.HasKgPrecision(*req.PricePerKg) {
				return listingdomain.ErrInvalidPrice
			}
			listing.PricePerKg = *req.PricePerKg
		}
		if req.PriceCurrency != nil {
			currency := strings.ToUpper(strings.TrimSpace(*req.PriceCurrency))
			if !market.AcceptsCurrency(currency) {
				return listingdomain.ErrInvalidCurrency
			}
			listing.PriceCurrency = currency
		}
		if req.AvailableUntil != nil {
			availableUntil, err := parseDate(*req.AvailableUntil)
			if err != nil {
				return err
			}
			listing.AvailableUntil = availableUntil
		}
		if req.ArrivalAt != nil {
			listing.ArrivalAt = utcPtr(req.ArrivalAt)
		}
		if req.DepartureCity != nil {
			if listing.DepartureCity = strings.TrimSpace(*req.DepartureCity); listing.DepartureCity == "" {
				return listingdomain.ErrInvalidCity
			}
		}
		if req.ArrivalCity != nil {
			if listing.ArrivalCity = strings.TrimSpace(*req.ArrivalCity); listing.ArrivalCity == "" {
				return listingdomain.ErrInvalidCity
			}
		}
		applyText(&listing.PickupLocation, req.PickupLocation)
		applyText(&listing.DeliveryOptions, req.DeliveryOptions)
		applyText(&listing.AllowedItems, req.AllowedItems)
		applyText(&listing.ProhibitedItems, req.ProhibitedItems)
		applyText(&listing.Description, req.Description)
		if req.Metadata != nil {
			listing.Metadata = toJSONMap(req.Metadata)
		}
		listing.UpdatedAt = s.clock.Now()

		return s.repo.UpdateDetails(ctx, tx, listing)
	})
	if err != nil {
		return listingdomain.Detail{}, err
	}

	return s.Get(ctx, req.ID)
}

// SetActive toggles whether the listing accepts reservations.
// Reactivating does not revive an expired listing.
func (s *Service) SetActive(ctx context.Context, req listingdomain.SetActiveRequest) (listingdomain.Detail, error) {
	listingID, err := parseID(req.ID)
	if err != nil {
		return listingdomain.Detail{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.repo.FindByIDForUpdate(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return listingdomain.ErrListingNotFound
		}
		if listing.SellerID != req.ActorID {
			return listingdomain.ErrForbidden
		}
		if listing.IsActive == req.IsActive {
			return nil
		}
		return s.repo.SetActive(ctx, tx, listing.ID, req.IsActive, s.clock.Now())
	})
	if err != nil {
		return listingdomain.Detail{}, err
	}

	s.log.Info("listing active flag changed",
		zap.String("listing_id", listingID.String()),
		zap.Bool("is_active", req.IsActive),
	)
	return s.Get(ctx, req.ID)
}

// Delete removes a listing owned by the actor together with its subscriptions.
// Reservations are never deleted, so a listing that has any cannot be removed;
// its owner deactivates it instead.
func (s *Service) Delete(ctx context.Context, req listingdomain.DeleteRequest) error {
	listingID, err := parseID(req.ID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.repo.FindByIDForUpdate(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return listingdomain.ErrListingNotFound
		}
		if listing.SellerID != req.ActorID {
			return listingdomain.ErrForbidden
		}

		reservations, err := s.reservations.ListByListing(ctx, tx, listing.ID)
		if err != nil {
			return err
		}
		if len(reservations) > 0 {
			return listingdomain.ErrHasReservations
		}
		return s.repo.Delete(ctx, tx, listing.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("listing deleted", zap.String("listing_id", listingID.String()))
	return nil
}

// ListMarketplace returns active, unexpired listings that still have capacity,
// newest first. Sold out listings are excluded by the query itself.
func (s *Service) ListMarketplace(ctx context.Context, req listingdomain.ListRequest) (listingdomain.ListResponse, error) {
	page := req.Pagination
	if page.PageSize <= 0 {
		page.PageSize = 20
	}
	if page.PageSize > 100 {
		page.PageSize = 100
	}

	today := s.today().Format(dateLayout)
	items, err := s.listingStore.Find(ctx,
		&listingdomain.Listing{IsActive: true},
		option.QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
			// sold-out listings are dropped in SQL so every page is filled before the limit
			return db.Where("available_until >= ?", today).
				Where(`total_kg > COALESCE((
					SELECT SUM(r.kg_requested) FROM luggage_reservations r
					WHERE r.listing_id = luggage_listings.id AND r.status IN ?
				), 0)`, []string{string(capacity.StatusPending), string(capacity.StatusReserved)})
		}),
		option.WithSortBy("created_at", true),
		option.WithSortBy("id", true),
		option.ApplyPagination(page),
	)
	if err != nil {
		return listingdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(page.PageSize), func(l *listingdomain.Listing) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        l.ID.String(),
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > page.PageSize {
		items = items[:page.PageSize]
	}

	listings := make([]listingdomain.Listing, 0, len(items))
	for _, item := range items {
		listings = append(listings, *item)
	}
	details, err := s.withCapacity(ctx, listings)
	if err != nil {
		return listingdomain.ListResponse{}, err
	}

	sellable := make([]listingdomain.Detail, 0, len(details))
	for _, detail := range details {
		if detail.Capacity.IsSellable {
			sellable = append(sellable, detail)
		}
	}

	return listingdomain.ListResponse{
		PageInfo: *pageInfo,
		Listings: sellable,
	}, nil
}

func (s *Service) ListBySeller(ctx context.Context, sellerID snowflake.ID) ([]listingdomain.Detail, error) {
	if sellerID == 0 {
		return nil, listingdomain.ErrInvalidSeller
	}

	listings, err := s.repo.ListBySeller(ctx, s.db, sellerID)
	if err != nil {
		return nil, err
	}
	return s.withCapacity(ctx, listings)
}

func (s *Service) withCapacity(ctx context.Context, listings []listingdomain.Listing) ([]listingdomain.Detail, error) {
	if len(listings) == 0 {
		return []listingdomain.Detail{}, nil
	}

	ids := make([]snowflake.ID, 0, len(listings))
	for _, listing := range listings {
		ids = append(ids, listing.ID)
	}

	reservations, err := s.reservations.ListByListings(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	byListing := make(map[snowflake.ID][]capacity.Reservation, len(listings))
	for _, r := range reservations {
		byListing[r.ListingID] = append(byListing[r.ListingID], r.Ledger())
	}

	today := s.today()
	details := make([]listingdomain.Detail, 0, len(listings))
	for _, listing := range listings {
		details = append(details, listingdomain.Detail{
			Listing:  listing,
			Capacity: capacity.Summarize(listing.Ledger(), byListing[listing.ID], today),
		})
	}
	return details, nil
}

func (s *Service) today() time.Time {
	y, m, d := s.clock.Now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, listingdomain.ErrInvalidListing
	}
	return id, nil
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, listingdomain.ErrInvalidAvailableUntil
	}
	return parsed, nil
}

func makeSlug(title string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	return "listing"
}

func defaultString(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func applyText(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if len(m) == 0 {
		return nil
	}
	return datatypes.JSONMap(m)
}
