package partition

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/bank-sync/internal/blobstore"
	"github.com/dvloznov/bank-sync/internal/logger"
	"github.com/dvloznov/bank-sync/internal/normalize"
)

// Writer persists normalized transactions as one CSV blob per
// (iban, booking date). Keys are deterministic, so reruns over the same
// window replace blobs in place instead of accumulating duplicates.
type Writer struct {
	store blobstore.Store
}

// NewWriter creates a partition writer over the given store.
func NewWriter(store blobstore.Store) *Writer {
	return &Writer{store: store}
}

// BlobKey returns the storage key of the partition for one account and day.
func BlobKey(iban, date string) string {
	return fmt.Sprintf("enable-banking/transactions/%s/transactions_%s_%s.csv", iban, iban, date)
}

// Persist groups the transactions by booking date and writes one CSV blob
// per group. Input order is preserved within each group.
func (w *Writer) Persist(ctx context.Context, iban string, txs []normalize.Transaction) error {
	log := logger.FromContext(ctx)

	groups := make(map[string][]normalize.Transaction)
	for _, tx := range txs {
		groups[tx.BookingDate] = append(groups[tx.BookingDate], tx)
	}

	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		group := groups[date]
		blob, err := encodeCSV(group)
		if err != nil {
			return fmt.Errorf("Persist: encoding partition for %s: %w", date, err)
		}

		key := BlobKey(iban, date)
		if err := w.store.Put(ctx, key, blob); err != nil {
			return fmt.Errorf("Persist: writing partition for %s: %w", date, err)
		}

		// Keys carry the full IBAN; logs must not.
		maskedKey := strings.ReplaceAll(key, iban, MaskIBAN(iban))
		log.Info().
			Int("transactions", len(group)).
			Str("date", date).
			Str("key", maskedKey).
			Msg("Saved transaction partition")
	}

	return nil
}

// encodeCSV serializes one partition group in column order
// booking_date, total_amount, remittance_information.
func encodeCSV(txs []normalize.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write([]string{"booking_date", "total_amount", "remittance_information"}); err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := cw.Write([]string{tx.BookingDate, tx.TotalAmount, tx.RemittanceInformation}); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MaskIBAN hides an account identifier down to its last four characters.
// Short or empty values are returned as-is.
func MaskIBAN(iban string) string {
	if len(iban) < 4 {
		return iban
	}
	return "IBAN ending in " + iban[len(iban)-4:]
}
