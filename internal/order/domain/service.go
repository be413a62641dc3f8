package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Order, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByBatch(ctx context.Context, batch int) ([]Order, error)
	Search(ctx context.Context, term string) ([]Order, error)
	FindByCode(ctx context.Context, code string) (*Order, error)
	FindByEmail(ctx context.Context, email string) ([]Order, error)
	CheckSector(ctx context.Context, locationType LocationType, sectorOrCity string) (Availability, error)
	CheckEmail(ctx context.Context, email string) (Availability, error)
}

type CreateRequest struct {
	LeaderName   string       `json:"leader_name"`
	LocationType LocationType `json:"location_type"`
	SectorOrCity string       `json:"sector_or_city"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Note         string       `json:"note"`
	Breakdown    Breakdown    `json:"breakdown"`
}

type UpdateRequest struct {
	LeaderName *string    `json:"leader_name"`
	Email      *string    `json:"email"`
	Phone      *string    `json:"phone"`
	Note       *string    `json:"note"`
	Breakdown  *Breakdown `json:"breakdown"`
}

// Availability is the result of a pre-submission duplicate check. The check
// is advisory: the database unique indexes remain the final arbiter under
// concurrent submissions.
type Availability struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}

var (
	ErrNotFound            = errors.New("order_not_found")
	ErrOrdersClosed        = errors.New("orders_closed")
	ErrDuplicateSector     = errors.New("duplicate_sector_in_batch")
	ErrDuplicateEmail      = errors.New("duplicate_email_in_batch")
	ErrInvalidID           = errors.New("invalid_order_id")
	ErrInvalidLocationType = errors.New("invalid_location_type")
	ErrInvalidLeaderName   = errors.New("invalid_leader_name")
	ErrInvalidSector       = errors.New("invalid_sector")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrNoShirts            = errors.New("no_shirts_in_order")
)
