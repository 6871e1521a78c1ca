package occupancy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/domain/shared"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestTable(t *testing.T, rate string) *Table {
	t.Helper()
	table, err := NewTable("Window 1", decimal.RequireFromString(rate), t0)
	require.NoError(t, err)
	table.ClearDomainEvents()
	return table
}

func TestNewTable(t *testing.T) {
	t.Run("creates available table", func(t *testing.T) {
		table, err := NewTable("  Window 1 ", decimal.NewFromInt(20), t0)
		require.NoError(t, err)
		assert.Equal(t, "Window 1", table.Name)
		assert.Equal(t, TableStatusAvailable, table.Status)
		assert.Nil(t, table.CurrentSessionID)
		assert.Equal(t, 1, table.Version)
		require.Len(t, table.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeTableCreated, table.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTable(" ", decimal.NewFromInt(20), t0)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		_, err := NewTable("A", decimal.NewFromInt(-1), t0)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})

	t.Run("rejects sub-cent rate", func(t *testing.T) {
		_, err := NewTable("A", decimal.RequireFromString("20.125"), t0)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})
}

func TestTable_Lifecycle(t *testing.T) {
	sessionID := uuid.New()
	other := uuid.New()

	t.Run("reserve then occupy by same session", func(t *testing.T) {
		table := newTestTable(t, "20")
		require.NoError(t, table.Reserve(sessionID, t0))
		assert.Equal(t, TableStatusReserved, table.Status)

		err := table.Occupy(other, t0)
		assert.True(t, shared.IsCode(err, shared.CodeConflict))

		require.NoError(t, table.Occupy(sessionID, t0))
		assert.Equal(t, TableStatusOccupied, table.Status)
		assert.True(t, table.IsHeldBy(sessionID))
	})

	t.Run("occupied table cannot be occupied again", func(t *testing.T) {
		table := newTestTable(t, "20")
		require.NoError(t, table.Occupy(sessionID, t0))
		assert.True(t, shared.IsCode(table.Occupy(other, t0), shared.CodeConflict))
		assert.True(t, shared.IsCode(table.Reserve(other, t0), shared.CodeConflict))
	})

	t.Run("release only by holder", func(t *testing.T) {
		table := newTestTable(t, "20")
		require.NoError(t, table.Occupy(sessionID, t0))

		assert.True(t, shared.IsCode(table.Release(other, t0), shared.CodeInvalidState))
		require.NoError(t, table.Release(sessionID, t0))
		assert.True(t, table.IsAvailable())
		assert.Nil(t, table.CurrentSessionID)
	})

	t.Run("emits status change events", func(t *testing.T) {
		table := newTestTable(t, "20")
		require.NoError(t, table.Occupy(sessionID, t0))
		require.NoError(t, table.Release(sessionID, t0))

		events := table.GetDomainEvents()
		require.Len(t, events, 2)
		changed := events[1].(*TableStatusChangedEvent)
		assert.Equal(t, TableStatusOccupied, changed.OldStatus)
		assert.Equal(t, TableStatusAvailable, changed.NewStatus)
	})
}

func TestTable_ChangeRate(t *testing.T) {
	t.Run("allowed while available", func(t *testing.T) {
		table := newTestTable(t, "20")
		require.NoError(t, table.ChangeRate(decimal.NewFromInt(25), t0))
		assert.True(t, table.HourlyRate.Equal(decimal.NewFromInt(25)))
	})

	t.Run("rejected while occupied", func(t *testing.T) {
		table := newTestTable(t, "20")
		require.NoError(t, table.Occupy(uuid.New(), t0))
		err := table.ChangeRate(decimal.NewFromInt(25), t0)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState))
	})
}
