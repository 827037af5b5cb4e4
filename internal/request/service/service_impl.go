package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxConditionsLength = 2000

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	location *time.Location
	repo     requestdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   requestdomain.Repository
}

func NewService(p ServiceParam) requestdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("request.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		location: p.Config.Location(),
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req requestdomain.CreateRequest) (requestdomain.Detail, error) {
	if req.UserID == 0 {
		return requestdomain.Detail{}, requestdomain.ErrInvalidUser
	}
	if !req.Type.Valid() {
		return requestdomain.Detail{}, requestdomain.ErrInvalidType
	}
	if err := validateAmount(req.Amount); err != nil {
		return requestdomain.Detail{}, err
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return requestdomain.Detail{}, err
	}
	deadline, err := s.parseDeadline(req.Deadline)
	if err != nil {
		return requestdomain.Detail{}, err
	}
	conditions := strings.TrimSpace(req.Conditions)
	if len(conditions) > maxConditionsLength {
		return requestdomain.Detail{}, requestdomain.ErrConditionsTooLong
	}

	now := s.clock.Now()
	request := requestdomain.Request{
		ID:           s.genID.Generate(),
		UserID:       req.UserID,
		Type:         req.Type,
		Amount:       req.Amount,
		Currency:     currency,
		Deadline:     deadline,
		Urgent:       req.Urgent,
		HideContacts: req.HideContacts,
		Conditions:   conditions,
		Status:       requestdomain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &request); err != nil {
		return requestdomain.Detail{}, err
	}

	s.log.Info("exchange request created",
		zap.String("request_id", request.ID.String()),
		zap.String("type", string(request.Type)),
		zap.String("amount", request.Amount.String()),
		zap.String("currency", request.Currency),
	)
	return requestdomain.NewDetail(request), nil
}

func (s *Service) Get(ctx context.Context, id string) (requestdomain.Detail, error) {
	requestID, err := parseID(id)
	if err != nil {
		return requestdomain.Detail{}, err
	}
	request, err := s.repo.FindByID(ctx, s.db, requestID)
	if err != nil {
		return requestdomain.Detail{}, err
	}
	if request == nil {
		return requestdomain.Detail{}, requestdomain.ErrRequestNotFound
	}
	return requestdomain.NewDetail(*request), nil
}

func (s *Service) Update(ctx context.Context, req requestdomain.UpdateRequest) (requestdomain.Detail, error) {
	return s.modify(ctx, req.ActorID, req.ID, func(request *requestdomain.Request) error {
		if req.Type != nil {
			if !req.Type.Valid() {
				return requestdomain.ErrInvalidType
			}
			request.Type = *req.Type
		}
		if req.Amount != nil {
			if err := validateAmount(*req.Amount); err != nil {
				return err
			}
			request.Amount = *req.Amount
		}
		if req.Currency != nil {
			currency, err := normalizeCurrency(*req.Currency)
			if err != nil {
				return err
			}
			request.Currency = currency
		}
		if req.Deadline != nil {
			deadline, err := s.parseDeadline(*req.Deadline)
			if err != nil {
				return err
			}
			request.Deadline = deadline
		}
		if req.Urgent != nil {
			request.Urgent = *req.Urgent
		}
		if req.HideContacts != nil {
			request.HideContacts = *req.HideContacts
		}
		if req.Conditions != nil {
			conditions := strings.TrimSpace(*req.Conditions)
			if len(conditions) > maxConditionsLength {
				return requestdomain.ErrConditionsTooLong
			}
			request.Conditions = conditions
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return requestdomain.ErrInvalidStatus
			}
			request.Status = *req.Status
		}
		return nil
	})
}

// Complete closes an active request. Completing a completed request changes nothing.
func (s *Service) Complete(ctx context.Context, actorID snowflake.ID, id string) (requestdomain.Detail, error) {
	return s.modify(ctx, actorID, id, func(request *requestdomain.Request) error {
		request.Status = requestdomain.StatusCompleted
		return nil
	})
}

// Delete removes the request and every conversation started about it.
func (s *Service) Delete(ctx context.Context, actorID snowflake.ID, id string) error {
	requestID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := s.owned(ctx, tx, actorID, requestID)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, request.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("exchange request deleted", zap.String("request_id", requestID.String()))
	return nil
}

func (s *Service) ListMine(ctx context.Context, userID snowflake.ID) ([]requestdomain.Detail, error) {
	if userID == 0 {
		return nil, requestdomain.ErrInvalidUser
	}
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return details(items), nil
}

func (s *Service) ListActive(ctx context.Context, requestType requestdomain.Type) ([]requestdomain.Detail, error) {
	if !requestType.Valid() {
		return nil, requestdomain.ErrInvalidType
	}
	items, err := s.repo.ListActive(ctx, s.db, requestType)
	if err != nil {
		return nil, err
	}
	return details(items), nil
}

// modify applies change to the actor's request under a row lock and writes it
// back only when something differs.
func (s *Service) modify(ctx context.Context, actorID snowflake.ID, id string, change func(*requestdomain.Request) error) (requestdomain.Detail, error) {
	requestID, err := parseID(id)
	if err != nil {
		return requestdomain.Detail{}, err
	}

	var result requestdomain.Request
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := s.owned(ctx, tx, actorID, requestID)
		if err != nil {
			return err
		}
		before := *request
		if err := change(request); err != nil {
			return err
		}
		result = *request
		if sameContent(before, *request) {
			return nil
		}
		result.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, &result)
	})
	if err != nil {
		return requestdomain.Detail{}, err
	}
	return requestdomain.NewDetail(result), nil
}

func (s *Service) owned(ctx context.Context, tx *gorm.DB, actorID, requestID snowflake.ID) (*requestdomain.Request, error) {
	if actorID == 0 {
		return nil, requestdomain.ErrInvalidUser
	}
	request, err := s.repo.FindByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, requestdomain.ErrRequestNotFound
	}
	if request.UserID != actorID {
		return nil, requestdomain.ErrForbidden
	}
	return request, nil
}

func (s *Service) parseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, requestdomain.ErrInvalidDeadline
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(requestdomain.DeadlineLayout, value, s.location)
	if err != nil {
		return time.Time{}, requestdomain.ErrInvalidDeadline
	}
	return t.UTC(), nil
}

// amounts are whole currency units
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.IsInteger() {
		return requestdomain.ErrInvalidAmount
	}
	return nil
}

func normalizeCurrency(value string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(value))
	if !slices.Contains(requestdomain.Currencies, currency) {
		return "", requestdomain.ErrInvalidCurrency
	}
	return currency, nil
}

func sameContent(a, b requestdomain.Request) bool {
	return a.Type == b.Type &&
		a.Amount.Equal(b.Amount) &&
		a.Currency == b.Currency &&
		a.Deadline.Equal(b.Deadline) &&
		a.Urgent == b.Urgent &&
		a.HideContacts == b.HideContacts &&
		a.Conditions == b.Conditions &&
		a.Status == b.Status
}

func details(items []requestdomain.Request) []requestdomain.Detail {
	out := make([]requestdomain.Detail, 0, len(items))
	for _, item := range items {
		out = append(out, requestdomain.NewDetail(item))
	}
	return out
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, requestdomain.ErrInvalidRequest
	}
	return id, nil
}
