package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/padimoney/padimoney-backend/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same query set
// runs inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// --- profiles ---

const profileColumns = `id, full_name, email, phone, balance_kobo, kyc_tier, bvn, status, role, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.BalanceKobo, &p.KYCTier, &p.BVN, &p.Status, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) CreateProfile(ctx context.Context, p *models.Profile) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO profiles (id, full_name, email, phone, balance_kobo, kyc_tier, status, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`,
		p.ID, p.FullName, p.Email, p.Phone, p.Status, p.Role,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (q *Queries) GetProfileForUpdate(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) DebitProfileBalance(ctx context.Context, id uuid.UUID, amountKobo int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE profiles SET balance_kobo = balance_kobo - $1, updated_at = NOW()
		WHERE id = $2 AND balance_kobo >= $1`,
		amountKobo, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CreditProfileBalance(ctx context.Context, id uuid.UUID, amountKobo int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE profiles SET balance_kobo = balance_kobo + $1, updated_at = NOW()
		WHERE id = $2`,
		amountKobo, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) IncrementKYCTier(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE profiles SET kyc_tier = kyc_tier + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) SetProfileBVN(ctx context.Context, id uuid.UUID, bvn string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE profiles SET bvn = $1, updated_at = NOW() WHERE id = $2`, bvn, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) SetProfileStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE profiles SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListProfiles(ctx context.Context, limit, offset int32) ([]models.Profile, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+profileColumns+` FROM profiles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListContacts resolves recipients holding a non-empty contact field for the
// channel. adminsOnly narrows to admin and super_admin roles.
func (q *Queries) ListContacts(ctx context.Context, channel string, adminsOnly bool) ([]models.Contact, error) {
	field := "email"
	if channel == "sms" {
		field = "phone"
	}
	sql := `SELECT id, full_name, ` + field + ` FROM profiles WHERE status = 'active' AND ` + field + ` <> ''`
	if adminsOnly {
		sql += ` AND role IN ('admin', 'super_admin')`
	}
	sql += ` ORDER BY created_at`

	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.UserID, &c.Name, &c.Address); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// --- transactions ---

const transactionColumns = `id, user_id, type, amount_kobo, status, description, reference, metadata, created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.AmountKobo, &t.Status, &t.Description, &t.Reference, &t.Metadata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *Queries) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_kobo, status, description, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`,
		t.ID, t.UserID, t.Type, t.AmountKobo, t.Status, t.Description, t.Metadata,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

func (q *Queries) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetTransactionByReference(ctx context.Context, txType, reference string) (*models.Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE type = $1 AND reference = $2`, txType, reference))
}

// FinalizeTransaction moves a pending transaction to a terminal status. The
// status guard makes a second finalize affect zero rows.
func (q *Queries) FinalizeTransaction(ctx context.Context, id uuid.UUID, status string, reference *string, description string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE transactions
		SET status = $1, reference = $2, description = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'PENDING'`,
		status, reference, description, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetStalePendingTransactions claims purchase transactions stuck in PENDING
// past the cutoff. SKIP LOCKED keeps concurrent sweepers from colliding.
func (q *Queries) GetStalePendingTransactions(ctx context.Context, cutoff time.Time, limit int32) ([]models.Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE status = 'PENDING' AND type <> 'deposit' AND created_at < $1
		ORDER BY created_at LIMIT $2 FOR UPDATE SKIP LOCKED`,
		cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// --- kyc requests ---

const kycColumns = `id, user_id, document_type, status, admin_note, created_at, reviewed_at`

func scanKYCRequest(row pgx.Row) (*models.KYCRequest, error) {
	var k models.KYCRequest
	err := row.Scan(&k.ID, &k.UserID, &k.DocumentType, &k.Status, &k.AdminNote, &k.CreatedAt, &k.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (q *Queries) CreateKYCRequest(ctx context.Context, k *models.KYCRequest) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO kyc_requests (id, user_id, document_type, status, admin_note, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		k.ID, k.UserID, k.DocumentType, k.Status, k.AdminNote,
	).Scan(&k.CreatedAt)
}

func (q *Queries) GetKYCRequest(ctx context.Context, id uuid.UUID) (*models.KYCRequest, error) {
	return scanKYCRequest(q.db.QueryRow(ctx, `SELECT `+kycColumns+` FROM kyc_requests WHERE id = $1`, id))
}

func (q *Queries) GetKYCRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.KYCRequest, error) {
	return scanKYCRequest(q.db.QueryRow(ctx, `SELECT `+kycColumns+` FROM kyc_requests WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) UpdateKYCRequestStatus(ctx context.Context, id uuid.UUID, status, adminNote string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE kyc_requests SET status = $1, admin_note = $2, reviewed_at = NOW()
		WHERE id = $3 AND status = 'pending'`,
		status, adminNote, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListKYCRequestsByStatus(ctx context.Context, status string, limit, offset int32) ([]models.KYCRequest, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+kycColumns+` FROM kyc_requests
		WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KYCRequest
	for rows.Next() {
		k, err := scanKYCRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

// GetLatestKYCNoteByDocType returns the admin note of the user's most recent
// request for the document type. Used by the BVN recovery path.
func (q *Queries) GetLatestKYCNoteByDocType(ctx context.Context, userID uuid.UUID, documentType string) (string, error) {
	var note string
	err := q.db.QueryRow(ctx, `
		SELECT admin_note FROM kyc_requests
		WHERE user_id = $1 AND document_type = $2
		ORDER BY created_at DESC LIMIT 1`,
		userID, documentType).Scan(&note)
	return note, err
}

// --- virtual accounts ---

const virtualAccountColumns = `id, user_id, provider, bank_name, account_number, account_name, currency, metadata, created_at`

func scanVirtualAccount(row pgx.Row) (*models.VirtualAccount, error) {
	var va models.VirtualAccount
	err := row.Scan(&va.ID, &va.UserID, &va.Provider, &va.BankName, &va.AccountNumber, &va.AccountName, &va.Currency, &va.Metadata, &va.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &va, nil
}

func (q *Queries) GetVirtualAccountByUser(ctx context.Context, userID uuid.UUID) (*models.VirtualAccount, error) {
	return scanVirtualAccount(q.db.QueryRow(ctx,
		`SELECT `+virtualAccountColumns+` FROM virtual_accounts WHERE user_id = $1`, userID))
}

func (q *Queries) GetVirtualAccountByNumber(ctx context.Context, accountNumber string) (*models.VirtualAccount, error) {
	return scanVirtualAccount(q.db.QueryRow(ctx,
		`SELECT `+virtualAccountColumns+` FROM virtual_accounts WHERE account_number = $1`, accountNumber))
}

// InsertVirtualAccount relies on the UNIQUE(user_id) constraint: a concurrent
// insert for the same user affects zero rows instead of racing.
func (q *Queries) InsertVirtualAccount(ctx context.Context, va *models.VirtualAccount) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO virtual_accounts (id, user_id, provider, bank_name, account_number, account_name, currency, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO NOTHING`,
		va.ID, va.UserID, va.Provider, va.BankName, va.AccountNumber, va.AccountName, va.Currency, va.Metadata)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- outbox ---

const outboxColumns = `id, event_type, payload, status, attempts, next_attempt_at, claimed_at, last_error, created_at`

func scanOutboxEvent(row pgx.Row) (*models.OutboxEvent, error) {
	var e models.OutboxEvent
	err := row.Scan(&e.ID, &e.EventType, &e.Payload, &e.Status, &e.Attempts, &e.NextAttemptAt, &e.ClaimedAt, &e.LastError, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *Queries) InsertOutboxEvent(ctx context.Context, eventType string, payload json.RawMessage) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO outbox_events (event_type, payload, status, attempts, next_attempt_at, created_at)
		VALUES ($1, $2, 'pending', 0, NOW(), NOW())`,
		eventType, payload)
	return err
}

// ClaimOutboxEvents atomically claims due pending events plus any processing
// events whose claim went stale (a crashed consumer).
func (q *Queries) ClaimOutboxEvents(ctx context.Context, batchSize int32, staleAfter time.Duration) ([]models.OutboxEvent, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE outbox_events
		SET status = 'processing', claimed_at = NOW(), attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE (status = 'pending' AND next_attempt_at <= NOW())
			   OR (status = 'processing' AND claimed_at < NOW() - make_interval(secs => $2))
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+outboxColumns,
		batchSize, staleAfter.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OutboxEvent
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (q *Queries) MarkOutboxDispatched(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `UPDATE outbox_events SET status = 'dispatched', last_error = '' WHERE id = $1`, id)
	return err
}

func (q *Queries) MarkOutboxFailed(ctx context.Context, id int64, retryAfter time.Duration, lastError string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'pending', next_attempt_at = NOW() + make_interval(secs => $2), last_error = $3
		WHERE id = $1`,
		id, retryAfter.Seconds(), lastError)
	return err
}

// MarkOutboxParked shelves an event that cannot progress until external input
// arrives (e.g. the user has no BVN on file).
func (q *Queries) MarkOutboxParked(ctx context.Context, id int64, reason string) error {
	_, err := q.db.Exec(ctx, `UPDATE outbox_events SET status = 'parked', last_error = $2 WHERE id = $1`, id, reason)
	return err
}

// --- communication logs ---

func (q *Queries) InsertCommunicationLog(ctx context.Context, l *models.CommunicationLog) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO communication_logs (id, channel, recipient, subject, body, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`,
		l.ID, l.Channel, l.Recipient, l.Subject, l.Body, l.Status, l.Error,
	).Scan(&l.CreatedAt)
}

// --- beneficiaries ---

func (q *Queries) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO beneficiaries (id, user_id, name, phone, network, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		b.ID, b.UserID, b.Name, b.Phone, b.Network,
	).Scan(&b.CreatedAt)
}

func (q *Queries) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]models.Beneficiary, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, name, phone, network, created_at
		FROM beneficiaries WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Beneficiary
	for rows.Next() {
		var b models.Beneficiary
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Phone, &b.Network, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- idempotency keys ---

type IdempotencyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
}

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyRow, error) {
	var row IdempotencyRow
	err := q.db.QueryRow(ctx, `
		SELECT idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress
		FROM idempotency_keys WHERE idempotency_key = $1`,
		key).Scan(&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path, &row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress)
	return row, err
}

// ReserveIdempotencyKey claims a key for first-time processing; a concurrent
// duplicate sees zero rows via the conflict clause.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at)
		VALUES ($1, $2, $3, $4, 0, ''::bytea, '', TRUE, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING`,
		key, requestHash, method, path)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int32, body []byte, contentType string) (IdempotencyRow, error) {
	var row IdempotencyRow
	err := q.db.QueryRow(ctx, `
		UPDATE idempotency_keys
		SET response_status = $3, response_body = $4, content_type = $5, in_progress = FALSE
		WHERE idempotency_key = $1 AND request_hash = $2
		RETURNING idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress`,
		key, requestHash, status, body, contentType,
	).Scan(&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path, &row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress)
	return row, err
}
