package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"urithi/internal/estate/models"
	id "urithi/pkg/domain"
	"urithi/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Schema creates the estate tables. The composite primary key on
// estate_members is what enforces exclusive ownership across estates.
const Schema = `
CREATE TABLE IF NOT EXISTS estates (
	id            UUID PRIMARY KEY,
	deceased_id   UUID NOT NULL,
	status        TEXT NOT NULL,
	currency      TEXT NOT NULL,
	date_of_death TIMESTAMPTZ,
	revision      BIGINT NOT NULL DEFAULT 0,
	audit_log     JSONB NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS estate_members (
	kind           TEXT NOT NULL,
	ref_id         TEXT NOT NULL,
	estate_id      UUID NOT NULL REFERENCES estates(id) ON DELETE CASCADE,
	declared_value JSONB,
	seq            BIGSERIAL,
	PRIMARY KEY (kind, ref_id)
);

CREATE INDEX IF NOT EXISTS idx_estate_members_estate ON estate_members (estate_id);
`

// Postgres persists estate aggregates in PostgreSQL. Execute, AddMember and
// RemoveMember serialize on the estate row with SELECT FOR UPDATE, so all
// mutation against one estate is sequential.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed estate store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("ensure estate schema: %w", err)
	}
	return nil
}

// Create stores a new estate. Returns ErrConflict if the ID is taken.
func (s *Postgres) Create(ctx context.Context, estate *models.Estate) error {
	auditJSON, err := json.Marshal(estate.AuditLog)
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO estates (id, deceased_id, status, currency, date_of_death, revision, audit_log, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		estate.ID.String(), estate.DeceasedID.String(), string(estate.Status), estate.Currency,
		estate.DateOfDeath, estate.Revision, auditJSON, estate.CreatedAt, estate.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert estate: %w", err)
	}
	return nil
}

// FindByID loads the estate and its membership or returns ErrNotFound.
func (s *Postgres) FindByID(ctx context.Context, estateID id.EstateID) (*models.Estate, error) {
	return s.load(ctx, s.pool, estateID, false)
}

// Execute runs validate then mutate against the estate inside one
// transaction, holding a row lock across both.
func (s *Postgres) Execute(ctx context.Context, estateID id.EstateID,
	validate func(*models.Estate) error,
	mutate func(*models.Estate)) (*models.Estate, error) {
	var out *models.Estate
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		estate, err := s.load(ctx, tx, estateID, true)
		if err != nil {
			return err
		}
		if err := validate(estate); err != nil {
			return err
		}
		mutate(estate)
		if err := s.updateRow(ctx, tx, estate); err != nil {
			return err
		}
		out = estate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember claims the reference and appends it to the estate. A unique
// violation on (kind, ref_id) means another estate owns the reference.
func (s *Postgres) AddMember(ctx context.Context, estateID id.EstateID, member models.Member, actor string, now time.Time) (*models.Estate, error) {
	var out *models.Estate
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		estate, err := s.load(ctx, tx, estateID, true)
		if err != nil {
			return err
		}
		if err := estate.CanAddMember(member); err != nil {
			return err
		}

		var valueJSON []byte
		if member.DeclaredValue != nil {
			valueJSON, err = json.Marshal(member.DeclaredValue)
			if err != nil {
				return fmt.Errorf("marshal declared value: %w", err)
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO estate_members (kind, ref_id, estate_id, declared_value)
			VALUES ($1, $2, $3, $4)`,
			string(member.Kind), member.RefID, estateID.String(), valueJSON,
		)
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyOwned
		}
		if err != nil {
			return fmt.Errorf("insert estate member: %w", err)
		}

		estate.ApplyAddMember(member, actor, now)
		if err := s.updateRow(ctx, tx, estate); err != nil {
			return err
		}
		out = estate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveMember drops the reference and releases the ownership claim.
func (s *Postgres) RemoveMember(ctx context.Context, estateID id.EstateID, kind models.MemberKind, refID string, actor string, now time.Time) (*models.Estate, error) {
	var out *models.Estate
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		estate, err := s.load(ctx, tx, estateID, true)
		if err != nil {
			return err
		}
		if err := estate.CanRemoveMember(kind, refID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM estate_members WHERE kind = $1 AND ref_id = $2 AND estate_id = $3`,
			string(kind), refID, estateID.String(),
		); err != nil {
			return fmt.Errorf("delete estate member: %w", err)
		}

		estate.ApplyRemoveMember(kind, refID, actor, now)
		if err := s.updateRow(ctx, tx, estate); err != nil {
			return err
		}
		out = estate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Postgres) load(ctx context.Context, q querier, estateID id.EstateID, forUpdate bool) (*models.Estate, error) {
	query := `
		SELECT id, deceased_id, status, currency, date_of_death, revision, audit_log, created_at, updated_at
		FROM estates WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		estate      models.Estate
		rawID       string
		rawDeceased string
		rawStatus   string
		auditJSON   []byte
	)
	err := q.QueryRow(ctx, query, estateID.String()).Scan(
		&rawID, &rawDeceased, &rawStatus, &estate.Currency, &estate.DateOfDeath,
		&estate.Revision, &auditJSON, &estate.CreatedAt, &estate.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select estate: %w", err)
	}

	if estate.ID, err = id.ParseEstateID(rawID); err != nil {
		return nil, fmt.Errorf("parse estate id: %w", err)
	}
	if estate.DeceasedID, err = id.ParsePersonID(rawDeceased); err != nil {
		return nil, fmt.Errorf("parse deceased id: %w", err)
	}
	estate.Status = models.EstateStatus(rawStatus)
	if len(auditJSON) > 0 {
		if err := json.Unmarshal(auditJSON, &estate.AuditLog); err != nil {
			return nil, fmt.Errorf("unmarshal audit log: %w", err)
		}
	}

	rows, err := q.Query(ctx, `
		SELECT kind, ref_id, declared_value
		FROM estate_members WHERE estate_id = $1 ORDER BY seq`,
		estateID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("select estate members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			member    models.Member
			rawKind   string
			valueJSON []byte
		)
		if err := rows.Scan(&rawKind, &member.RefID, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan estate member: %w", err)
		}
		member.Kind = models.MemberKind(rawKind)
		if len(valueJSON) > 0 {
			if err := json.Unmarshal(valueJSON, &member.DeclaredValue); err != nil {
				return nil, fmt.Errorf("unmarshal declared value: %w", err)
			}
		}
		estate.Members = append(estate.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estate members: %w", err)
	}
	return &estate, nil
}

func (s *Postgres) updateRow(ctx context.Context, tx pgx.Tx, estate *models.Estate) error {
	auditJSON, err := json.Marshal(estate.AuditLog)
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE estates
		SET status = $2, date_of_death = $3, revision = $4, audit_log = $5, updated_at = $6
		WHERE id = $1`,
		estate.ID.String(), string(estate.Status), estate.DateOfDeath,
		estate.Revision, auditJSON, estate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update estate: %w", err)
	}
	return nil
}

func (s *Postgres) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
