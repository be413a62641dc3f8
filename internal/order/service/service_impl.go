package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jubileu50/pedidos/internal/config"
	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	"github.com/jubileu50/pedidos/internal/observability/metrics"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	"github.com/jubileu50/pedidos/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength     = 6
	codeMaxRetries = 5
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Node     *snowflake.Node
	Cfg      config.Config
	Repo     orderdomain.Repository
	Ledgers  ledgerdomain.Repository
	Settings settingsdomain.Service
	Stats    statsdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	node     *snowflake.Node
	cfg      config.Config
	repo     orderdomain.Repository
	ledgers  ledgerdomain.Repository
	settings settingsdomain.Service
	stats    statsdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) orderdomain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		node:     p.Node,
		cfg:      p.Cfg,
		repo:     p.Repo,
		ledgers:  p.Ledgers,
		settings: p.Settings,
		stats:    p.Stats,
		metrics:  p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.Order, error) {
	req.LeaderName = strings.TrimSpace(req.LeaderName)
	req.SectorOrCity = strings.TrimSpace(req.SectorOrCity)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.OrdersOpen {
		return nil, orderdomain.ErrOrdersClosed
	}

	locationKey := ledgerdomain.NormalizeLocationKey(req.LocationType, req.SectorOrCity)

	// Advisory pre-checks. The composite unique indexes are the final
	// arbiter under concurrent submissions.
	if existing, err := s.repo.FindByLocationInBatch(ctx, s.db, locationKey, cfg.CurrentBatch); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, orderdomain.ErrDuplicateSector
	}
	if existing, err := s.repo.FindByEmailInBatch(ctx, s.db, req.Email, cfg.CurrentBatch); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, orderdomain.ErrDuplicateEmail
	}

	shirts := req.Breakdown.TotalShirts()
	now := time.Now().UTC()

	order := &orderdomain.Order{
		ID:            s.node.Generate(),
		Batch:         cfg.CurrentBatch,
		LeaderName:    req.LeaderName,
		LocationType:  req.LocationType,
		SectorOrCity:  req.SectorOrCity,
		LocationKey:   locationKey,
		Email:         req.Email,
		Phone:         strings.TrimSpace(req.Phone),
		Note:          strings.TrimSpace(req.Note),
		PaymentStatus: orderdomain.Pending,
		AmountPaid:    0,
		AmountDue:     int64(shirts) * cfg.UnitPrice,
		Breakdown:     req.Breakdown,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 0; ; attempt++ {
		code, err := generateOrderCode(s.cfg.OrderCodePrefix)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = code

		err = s.repo.Insert(ctx, s.db, order)
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}

		// Classify which unique constraint fired.
		if existing, ferr := s.repo.FindByLocationInBatch(ctx, s.db, locationKey, cfg.CurrentBatch); ferr == nil && existing != nil {
			return nil, orderdomain.ErrDuplicateSector
		}
		if existing, ferr := s.repo.FindByEmailInBatch(ctx, s.db, req.Email, cfg.CurrentBatch); ferr == nil && existing != nil {
			return nil, orderdomain.ErrDuplicateEmail
		}
		if attempt+1 >= codeMaxRetries {
			return nil, fmt.Errorf("generate order code: %w", err)
		}
	}

	s.resync(ctx, "order_create")
	s.metrics.RecordOrderCreated(ctx, string(order.LocationType))
	s.log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("location_key", order.LocationKey),
		zap.Int("batch", order.Batch),
		zap.Int("shirts", shirts),
	)
	return order, nil
}

func (s *service) Update(ctx context.Context, id string, req orderdomain.UpdateRequest) (*orderdomain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var updated *orderdomain.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, db.ForUpdate(tx), orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}

		if req.LeaderName != nil {
			name := strings.TrimSpace(*req.LeaderName)
			if name == "" {
				return orderdomain.ErrInvalidLeaderName
			}
			order.LeaderName = name
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if !emailPattern.MatchString(email) {
				return orderdomain.ErrInvalidEmail
			}
			if email != order.Email {
				existing, err := s.repo.FindByEmailInBatch(ctx, tx, email, order.Batch)
				if err != nil {
					return err
				}
				if existing != nil && existing.ID != order.ID {
					return orderdomain.ErrDuplicateEmail
				}
				order.Email = email
			}
		}
		if req.Phone != nil {
			order.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Note != nil {
			order.Note = strings.TrimSpace(*req.Note)
		}
		if req.Breakdown != nil {
			shirts := req.Breakdown.TotalShirts()
			if shirts <= 0 {
				return orderdomain.ErrNoShirts
			}
			cfg, err := s.settings.Get(ctx)
			if err != nil {
				return err
			}
			order.Breakdown = *req.Breakdown
			order.AmountDue = int64(shirts) * cfg.UnitPrice
			order.PaymentStatus = orderdomain.DeriveStatus(order.AmountPaid, order.AmountDue)
		}

		order.UpdatedAt = time.Now().UTC()
		if err := s.repo.Save(ctx, tx, order); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return orderdomain.ErrDuplicateEmail
			}
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.resync(ctx, "order_update")
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	orderID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, db.ForUpdate(tx), orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrNotFound
		}
		if err := s.ledgers.RemoveOrderEntries(ctx, tx, order.LocationKey, order.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, order.ID)
	})
	if err != nil {
		return err
	}

	s.resync(ctx, "order_delete")
	s.metrics.RecordOrderDeleted(ctx)
	s.log.Info("order deleted", zap.String("order_id", orderID.String()))
	return nil
}

func (s *service) Get(ctx context.Context, id string) (*orderdomain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]orderdomain.Order, error) {
	return s.repo.List(ctx, s.db)
}

func (s *service) ListByBatch(ctx context.Context, batch int) ([]orderdomain.Order, error) {
	return s.repo.ListByBatch(ctx, s.db, batch)
}

func (s *service) Search(ctx context.Context, term string) ([]orderdomain.Order, error) {
	return s.repo.Search(ctx, s.db, term)
}

func (s *service) FindByCode(ctx context.Context, code string) (*orderdomain.Order, error) {
	order, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	return order, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) ([]orderdomain.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, orderdomain.ErrInvalidEmail
	}
	return s.repo.FindByEmail(ctx, s.db, email)
}

func (s *service) CheckSector(ctx context.Context, locationType orderdomain.LocationType, sectorOrCity string) (orderdomain.Availability, error) {
	sectorOrCity = strings.TrimSpace(sectorOrCity)
	if locationType != orderdomain.Capital && locationType != orderdomain.Interior {
		return orderdomain.Availability{}, orderdomain.ErrInvalidLocationType
	}
	if sectorOrCity == "" {
		return orderdomain.Availability{}, orderdomain.ErrInvalidSector
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return orderdomain.Availability{}, err
	}

	locationKey := ledgerdomain.NormalizeLocationKey(locationType, sectorOrCity)
	existing, err := s.repo.FindByLocationInBatch(ctx, s.db, locationKey, cfg.CurrentBatch)
	if err != nil {
		return orderdomain.Availability{}, err
	}
	if existing != nil {
		return orderdomain.Availability{
			Exists:  true,
			Message: "já existe um pedido para este local no lote atual",
		}, nil
	}
	return orderdomain.Availability{}, nil
}

func (s *service) CheckEmail(ctx context.Context, email string) (orderdomain.Availability, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return orderdomain.Availability{}, orderdomain.ErrInvalidEmail
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return orderdomain.Availability{}, err
	}

	existing, err := s.repo.FindByEmailInBatch(ctx, s.db, email, cfg.CurrentBatch)
	if err != nil {
		return orderdomain.Availability{}, err
	}
	if existing != nil {
		return orderdomain.Availability{
			Exists:  true,
			Message: "já existe um pedido com este e-mail no lote atual",
		}, nil
	}
	return orderdomain.Availability{}, nil
}

// resync refreshes the aggregate document after a mutation. A failure here
// leaves stale counters until the next resync, never inconsistent orders.
func (s *service) resync(ctx context.Context, trigger string) {
	if _, err := s.stats.ResyncAll(ctx); err != nil {
		s.log.Warn("stats resync failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	s.metrics.RecordStatsResync(ctx, trigger)
}

func validateCreate(req orderdomain.CreateRequest) error {
	if req.LeaderName == "" {
		return orderdomain.ErrInvalidLeaderName
	}
	if req.LocationType != orderdomain.Capital && req.LocationType != orderdomain.Interior {
		return orderdomain.ErrInvalidLocationType
	}
	if req.SectorOrCity == "" {
		return orderdomain.ErrInvalidSector
	}
	if !emailPattern.MatchString(req.Email) {
		return orderdomain.ErrInvalidEmail
	}
	if req.Breakdown.TotalShirts() <= 0 {
		return orderdomain.ErrNoShirts
	}
	return nil
}

func generateOrderCode(prefix string) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return prefix + "-" + string(buf), nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return 0, orderdomain.ErrInvalidID
	}
	return parsed, nil
}
