package workflow

import (
	"context"

	"github.com/mmdatafocus/eorder_backend/models"
	"gorm.io/gorm"
)

// OrderStore is the persistence surface the commitment flow needs. The
// engine never touches gorm directly; tests swap in an in-memory fake.
type OrderStore interface {
	GetOrderWithLines(ctx context.Context, id int) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, order *models.Order, status models.OrderStatus) error
	SaveLines(ctx context.Context, lines []*models.OrderLine) error
	SaveAllocations(ctx context.Context, allocs []*models.OrderLineIplan) error
	AdvanceLatestItemNo(ctx context.Context, order *models.Order, count int) (int, error)
	DeleteDuplicateOrders(ctx context.Context, soNo string, keepId int) error
}

// MasterDataStore answers the contract and substitution lookups used by
// alternate-material resolution.
type MasterDataStore interface {
	ContractMaterial(ctx context.Context, contractNo string, materialCode string) (*models.ContractMaterial, error)
	AlternateCandidates(ctx context.Context, soldTo string, materialCode string) ([]models.AlternateCandidate, error)
	HasMaterialDetermination(ctx context.Context, soldTo string, materialCode string) (bool, error)
}

// GormStore backs both store interfaces with the shared MySQL connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetOrderWithLines(ctx context.Context, id int) (*models.Order, error) {
	return models.GetOrderWithLines(ctx, s.db, id)
}

func (s *GormStore) SaveOrder(ctx context.Context, order *models.Order) error {
	return models.SaveOrder(ctx, s.db, order)
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, order *models.Order, status models.OrderStatus) error {
	return models.UpdateOrderStatus(ctx, s.db, order, status)
}

func (s *GormStore) SaveLines(ctx context.Context, lines []*models.OrderLine) error {
	return models.SaveOrderLines(ctx, s.db, lines)
}

func (s *GormStore) SaveAllocations(ctx context.Context, allocs []*models.OrderLineIplan) error {
	return models.SaveOrderLineIplans(ctx, s.db, allocs)
}

func (s *GormStore) AdvanceLatestItemNo(ctx context.Context, order *models.Order, count int) (int, error) {
	return order.AdvanceLatestItemNo(ctx, s.db, count)
}

func (s *GormStore) DeleteDuplicateOrders(ctx context.Context, soNo string, keepId int) error {
	return models.DeleteDuplicateOrders(ctx, s.db, soNo, keepId)
}

func (s *GormStore) ContractMaterial(ctx context.Context, contractNo string, materialCode string) (*models.ContractMaterial, error) {
	return models.GetContractMaterial(ctx, s.db, contractNo, materialCode)
}

func (s *GormStore) AlternateCandidates(ctx context.Context, soldTo string, materialCode string) ([]models.AlternateCandidate, error) {
	return models.FindAlternateCandidates(ctx, s.db, soldTo, materialCode)
}

func (s *GormStore) HasMaterialDetermination(ctx context.Context, soldTo string, materialCode string) (bool, error) {
	return models.HasMaterialDetermination(ctx, s.db, soldTo, materialCode)
}
