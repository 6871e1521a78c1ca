package billing

import (
	"context"
	"time"

	"github.com/thehub/backend/internal/domain/occupancy"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ArchivedSession is the document written to the archive for one settled session
type ArchivedSession struct {
	Session            SessionResponse             `json:"session"`
	WalletTransactions []WalletTransactionResponse `json:"wallet_transactions"`
	ArchivedAt         time.Time                   `json:"archived_at"`
}

// SessionArchive stores archived session documents outside the database
type SessionArchive interface {
	Put(ctx context.Context, record ArchivedSession) error
}

const defaultArchiveBatchSize = 100

// ArchiveService moves old settled sessions to the archive and removes them
// from the database. Settled sessions are immutable, so no entity lock is taken.
type ArchiveService struct {
	scope     TransactionScope
	archive   SessionArchive
	clock     shared.Clock
	batchSize int
	logger    *zap.Logger
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(scope TransactionScope, archive SessionArchive, clock shared.Clock, batchSize int, logger *zap.Logger) *ArchiveService {
	if batchSize <= 0 {
		batchSize = defaultArchiveBatchSize
	}
	return &ArchiveService{
		scope:     scope,
		archive:   archive,
		clock:     clock,
		batchSize: batchSize,
		logger:    logger,
	}
}

// ArchiveOlderThan archives sessions settled more than retention ago
func (s *ArchiveService) ArchiveOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	return s.ArchiveSettledSessions(ctx, s.clock.Now().Add(-retention))
}

// ArchiveSettledSessions archives every settled session that ended before
// the cutoff. A session is deleted only after its document was stored. It
// returns the number of sessions archived, which is accurate even on error.
func (s *ArchiveService) ArchiveSettledSessions(ctx context.Context, before time.Time) (int, error) {
	archived := 0
	for {
		if err := ctx.Err(); err != nil {
			return archived, err
		}

		var batch []occupancy.Session
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			batch, err = repos.Sessions().FindSettledBefore(ctx, before, s.batchSize)
			return err
		})
		if err != nil {
			return archived, err
		}

		for i := range batch {
			if err := s.archiveOne(ctx, &batch[i]); err != nil {
				s.logger.Error("Failed to archive session",
					zap.String("session_id", batch[i].ID.String()),
					zap.Error(err))
				return archived, err
			}
			archived++
		}

		if len(batch) < s.batchSize {
			break
		}
	}

	if archived > 0 {
		s.logger.Info("Settled sessions archived",
			zap.Int("count", archived),
			zap.Time("before", before))
	}
	return archived, nil
}

func (s *ArchiveService) archiveOne(ctx context.Context, session *occupancy.Session) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ledger, err := repos.WalletTransactions().FindBySessionID(ctx, session.ID)
		if err != nil {
			return err
		}
		record := ArchivedSession{
			Session:            ToSessionResponse(session, s.clock.Now()),
			WalletTransactions: mapSlice(ledger, ToWalletTransactionResponse),
			ArchivedAt:         s.clock.Now(),
		}
		if err := s.archive.Put(ctx, record); err != nil {
			return err
		}
		return repos.Sessions().Delete(ctx, session.ID)
	})
}

// ArchiveKey is the object key for an archived session, grouped by the
// year and month the session ended
func ArchiveKey(record ArchivedSession) string {
	t := record.Session.CreatedAt
	if record.Session.EndTime != nil {
		t = *record.Session.EndTime
	}
	return "sessions/" + t.UTC().Format("2006/01") + "/" + record.Session.ID.String() + ".json"
}
