package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TableService handles table administration
type TableService struct {
	scope          TransactionScope
	locker         EntityLocker
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTableService creates a new TableService
func NewTableService(scope TransactionScope, locker EntityLocker, clock shared.Clock, logger *zap.Logger) *TableService {
	return &TableService{
		scope:  scope,
		locker: locker,
		clock:  clock,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for post-commit notifications
func (s *TableService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateTable creates an available table
func (s *TableService) CreateTable(ctx context.Context, input CreateTableInput) (*TableResponse, error) {
	table, err := occupancy.NewTable(input.Name, input.HourlyRate, s.clock.Now())
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Tables().Create(ctx, table)
	})
	if err != nil {
		s.logger.Error("Failed to create table", zap.String("name", table.Name), zap.Error(err))
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, shared.CollectEvents(table))
	s.logger.Info("Table created",
		zap.String("table_id", table.ID.String()),
		zap.String("name", table.Name),
		zap.String("hourly_rate", table.HourlyRate.StringFixed(2)))

	resp := ToTableResponse(table)
	return &resp, nil
}

// GetTable returns a table by ID
func (s *TableService) GetTable(ctx context.Context, id uuid.UUID) (*TableResponse, error) {
	var table *occupancy.Table
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		table, err = repos.Tables().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToTableResponse(table)
	return &resp, nil
}

// ListTables lists tables matching the filter
func (s *TableService) ListTables(ctx context.Context, filter occupancy.TableFilter) (shared.Paginated[TableResponse], error) {
	normalizeFilter(&filter.Filter)
	var (
		tables []occupancy.Table
		total  int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tables, total, err = repos.Tables().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return shared.Paginated[TableResponse]{}, err
	}
	return paginate(tables, total, filter.Filter, ToTableResponse), nil
}

// UpdateRate changes a table's hourly rate. Open sessions keep the rate they
// started with, and the rate cannot change while the table is held.
func (s *TableService) UpdateRate(ctx context.Context, id uuid.UUID, rate decimal.Decimal) (*TableResponse, error) {
	release, err := s.locker.Lock(ctx, TableKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	var table *occupancy.Table
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		table, err = repos.Tables().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := table.ChangeRate(rate, s.clock.Now()); err != nil {
			return err
		}
		return repos.Tables().Save(ctx, table)
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, shared.CollectEvents(table))
	s.logger.Info("Table rate changed",
		zap.String("table_id", table.ID.String()),
		zap.String("hourly_rate", table.HourlyRate.StringFixed(2)))

	resp := ToTableResponse(table)
	return &resp, nil
}
