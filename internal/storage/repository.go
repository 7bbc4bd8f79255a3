// Package storage persists donations and donor identities in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"donorboard/internal/core"
	"donorboard/internal/log"
	"donorboard/internal/source"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ source.Fetcher        = (*SQLiteRepository)(nil)
	_ source.DonationWriter = (*SQLiteRepository)(nil)
	_ source.IdentityWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const upsertDonation = `
INSERT INTO donations (id, donor_id, org_id, amount, method, donation_date, raw_date, is_anonymous, donor_message, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    donor_id = excluded.donor_id,
    org_id = excluded.org_id,
    amount = excluded.amount,
    method = excluded.method,
    donation_date = excluded.donation_date,
    raw_date = excluded.raw_date,
    is_anonymous = excluded.is_anonymous,
    donor_message = excluded.donor_message,
    status = excluded.status,
    updated_at = CURRENT_TIMESTAMP`

// SaveDonation inserts d or replaces the stored donation with the same id,
// so redelivered events are idempotent.
func (r *SQLiteRepository) SaveDonation(ctx context.Context, d core.DonationRecord) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validate donation: %w", err)
	}
	_, err := r.db.ExecContext(ctx, upsertDonation,
		d.ID, d.DonorID, d.OrgID, d.Amount.Decimal.String(), d.Method,
		d.Date.String(), d.RawDate, d.IsAnonymous, nullString(d.DonorMessage), string(d.Status))
	if err != nil {
		return fmt.Errorf("save donation %s: %w", d.ID, err)
	}

	log.FromContext(ctx).DebugContext(ctx, "Donation saved to SQLite",
		log.FieldDonationID, d.ID,
		log.FieldDonorID, d.DonorID,
		log.FieldOrgID, d.OrgID)
	return nil
}

const selectDonations = `
SELECT id, donor_id, org_id, amount, method, donation_date, raw_date, is_anonymous, donor_message, status
FROM donations`

// ListDonations returns donations in insertion order.
func (r *SQLiteRepository) ListDonations(ctx context.Context, filter source.DonationFilter) ([]core.DonationRecord, error) {
	query := selectDonations
	var args []any
	if filter.OrgID != "" {
		query += " WHERE org_id = ?"
		args = append(args, filter.OrgID)
	}
	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &source.TransportError{Op: "list donations", Err: err}
	}
	defer rows.Close()

	var payloads []source.DonationPayload
	for rows.Next() {
		var (
			p         source.DonationPayload
			id, donor string
			org       string
			amount    string
			isoDate   string
			message   sql.NullString
		)
		if err := rows.Scan(&id, &donor, &org, &amount, &p.Method, &isoDate, &p.Date, &p.IsAnonymous, &message, &p.Status); err != nil {
			return nil, &source.TransportError{Op: "scan donation", Err: err}
		}
		p.ID, p.DonorID, p.OrgID = source.FlexID(id), source.FlexID(donor), source.FlexID(org)
		p.Amount = source.FlexAmount(amount)
		if isoDate != "" {
			p.Date = isoDate
		}
		if message.Valid {
			p.DonorMessage = &message.String
		}
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &source.TransportError{Op: "list donations", Err: err}
	}

	donations, err := source.DecodeDonations(ctx, payloads)
	if err != nil {
		return nil, &source.TransportError{Op: "decode donations", Err: err}
	}
	return donations, nil
}

func (r *SQLiteRepository) GetDonorIdentity(ctx context.Context, donorID string) (core.DonorIdentity, error) {
	const q = `SELECT donor_id, display_name, email, document_number, phone, image_url FROM donors WHERE donor_id = ?`
	var (
		id                core.DonorIdentity
		doc, phone, image sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, donorID).Scan(&id.DonorID, &id.DisplayName, &id.Email, &doc, &phone, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DonorIdentity{}, source.ErrNotFound
	}
	if err != nil {
		return core.DonorIdentity{}, fmt.Errorf("get donor %s: %w", donorID, err)
	}
	id.DocumentNumber = ptr(doc)
	id.Phone = ptr(phone)
	id.ImageURL = ptr(image)
	return id, nil
}

const upsertDonor = `
INSERT INTO donors (donor_id, display_name, email, document_number, phone, image_url)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (donor_id) DO UPDATE SET
    display_name = excluded.display_name,
    email = excluded.email,
    document_number = excluded.document_number,
    phone = excluded.phone,
    image_url = excluded.image_url,
    updated_at = CURRENT_TIMESTAMP`

func (r *SQLiteRepository) SaveIdentity(ctx context.Context, id core.DonorIdentity) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("validate identity: %w", err)
	}
	_, err := r.db.ExecContext(ctx, upsertDonor,
		id.DonorID, id.DisplayName, id.Email,
		nullString(id.DocumentNumber), nullString(id.Phone), nullString(id.ImageURL))
	if err != nil {
		return fmt.Errorf("save donor %s: %w", id.DonorID, err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
