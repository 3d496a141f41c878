package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bank-sync/internal/aggregator"
	"github.com/dvloznov/bank-sync/internal/blobstore"
	"github.com/dvloznov/bank-sync/internal/config"
	"github.com/dvloznov/bank-sync/internal/logger"
	"github.com/dvloznov/bank-sync/internal/normalize"
	"github.com/dvloznov/bank-sync/internal/partition"
	"github.com/dvloznov/bank-sync/internal/session"
)

// checkpointKey is the blob holding the exclusive lower bound of the next
// sync window, as a plain ISO date string.
const checkpointKey = "enable-banking/checkpoint.txt"

const dateLayout = "2006-01-02"

// ErrNoCheckpoint means the checkpoint blob is absent. There is no implicit
// start date; a missing checkpoint is a configuration error.
var ErrNoCheckpoint = errors.New("sync: checkpoint not found in storage")

// ErrMissingAccountUID means a session account carries no stable identifier,
// so per-account processing cannot proceed.
var ErrMissingAccountUID = errors.New("sync: account UID not found in session")

// SessionResolver resolves a usable session for one institution.
type SessionResolver interface {
	Obtain(ctx context.Context, inst config.Institution, persisted *aggregator.Session) (*aggregator.Session, error)
}

// TransactionFetcher retrieves all transactions for one account over a
// date range.
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, accountUID, dateFrom, dateTo string) ([]aggregator.RawTransaction, error)
}

// PartitionWriter persists normalized transactions for one account.
type PartitionWriter interface {
	Persist(ctx context.Context, iban string, txs []normalize.Transaction) error
}

// Runner drives one checkpointed sync run across all configured
// institutions, strictly sequentially.
type Runner struct {
	store        blobstore.Store
	sessions     SessionResolver
	fetcher      TransactionFetcher
	writer       PartitionWriter
	institutions []config.Institution
	now          func() time.Time
}

// NewRunner wires a sync runner.
func NewRunner(store blobstore.Store, sessions SessionResolver, fetcher TransactionFetcher, writer PartitionWriter, institutions []config.Institution) *Runner {
	return &Runner{
		store:        store,
		sessions:     sessions,
		fetcher:      fetcher,
		writer:       writer,
		institutions: institutions,
		now:          time.Now,
	}
}

// Run reads the checkpoint, syncs the [checkpoint, yesterday) window for
// every institution, and advances the checkpoint only after all of them
// succeeded. Any fatal error aborts the run with the checkpoint untouched,
// so a rerun re-covers the whole window.
func (r *Runner) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	dateFrom, err := r.readCheckpoint(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("checkpoint", dateFrom).Msg("Checkpoint found")

	// Yesterday in the local calendar; the run date itself is excluded
	// because it is not yet a finalized day.
	dateTo := r.now().AddDate(0, 0, -1).Format(dateLayout)

	// ISO dates compare correctly as strings.
	if dateFrom >= dateTo {
		log.Info().Str("checkpoint", dateFrom).Msg("Checkpoint is up to date, no transactions to fetch")
		return nil
	}

	for _, inst := range r.institutions {
		if err := r.syncInstitution(ctx, inst, dateFrom, dateTo); err != nil {
			return fmt.Errorf("institution %q: %w", inst.Name, err)
		}
	}

	if err := r.store.Put(ctx, checkpointKey, []byte(dateTo)); err != nil {
		return fmt.Errorf("Run: updating checkpoint: %w", err)
	}
	log.Info().Str("checkpoint", dateTo).Msg("Checkpoint updated")
	return nil
}

// readCheckpoint loads and validates the checkpoint date.
func (r *Runner) readCheckpoint(ctx context.Context) (string, error) {
	data, err := r.store.Get(ctx, checkpointKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoCheckpoint
		}
		return "", fmt.Errorf("Run: reading checkpoint: %w", err)
	}

	checkpoint := strings.TrimSpace(string(data))
	if _, err := time.Parse(dateLayout, checkpoint); err != nil {
		return "", fmt.Errorf("Run: malformed checkpoint %q: %w", checkpoint, err)
	}
	return checkpoint, nil
}

// syncInstitution processes one institution: resolve a session, then fetch,
// normalize, and persist each account's window.
func (r *Runner) syncInstitution(ctx context.Context, inst config.Institution, dateFrom, dateTo string) error {
	log := logger.FromContext(ctx)
	log.Info().Str("institution", inst.Name).Msg("Processing institution")

	persisted, err := r.loadSession(ctx, inst)
	if err != nil {
		return err
	}

	sess, err := r.sessions.Obtain(ctx, inst, persisted)
	if err != nil {
		return err
	}

	for _, acc := range sess.Accounts {
		if acc.UID == "" {
			return ErrMissingAccountUID
		}
		iban := acc.AccountID.IBAN
		accLog := log.With().Str("account", partition.MaskIBAN(iban)).Logger()

		raw, err := r.fetcher.FetchTransactions(ctx, acc.UID, dateFrom, dateTo)
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			accLog.Info().Msg("No transactions found")
			continue
		}

		normalized := make([]normalize.Transaction, 0, len(raw))
		for _, tx := range raw {
			normalized = append(normalized, normalize.Normalize(tx))
		}

		if err := r.writer.Persist(ctx, iban, normalized); err != nil {
			return err
		}
	}

	return nil
}

// loadSession reads the persisted session blob for the institution, if any.
func (r *Runner) loadSession(ctx context.Context, inst config.Institution) (*aggregator.Session, error) {
	data, err := r.store.Get(ctx, session.BlobKey(inst.Name))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading persisted session: %w", err)
	}

	var sess aggregator.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing persisted session: %w", err)
	}
	return &sess, nil
}
