package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/dbx"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/google/uuid"
)

const accountColumns = `id, email, password_hash, role, is_active, name, avatar_url,
		 email_verification_token, reset_password_token, reset_password_expires,
		 created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a                       models.Account
		role                    string
		name, avatar            sql.NullString
		verifyToken, resetToken sql.NullString
		resetExpires            sql.NullTime
	)

	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.IsActive, &name, &avatar,
		&verifyToken, &resetToken, &resetExpires, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Role = models.Role(role)
	a.Name = name.String
	a.AvatarURL = avatar.String
	if verifyToken.Valid {
		a.EmailVerificationToken = &verifyToken.String
	}
	if resetToken.Valid {
		a.ResetPasswordToken = &resetToken.String
	}
	if resetExpires.Valid {
		a.ResetPasswordExpires = &resetExpires.Time
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password_hash, role, is_active, name, avatar_url, email_verification_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`

	var verifyToken sql.NullString
	if a.EmailVerificationToken != nil {
		verifyToken = sql.NullString{String: *a.EmailVerificationToken, Valid: true}
	}

	created := *a
	err := r.db.QueryRowContext(ctx, query,
		a.Email, a.PasswordHash, string(a.Role), a.IsActive, nullString(a.Name), nullString(a.AvatarURL), verifyToken,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &created, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE email = $1`

	return r.one(ctx, query, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE id = $1`

	return r.one(ctx, query, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE id = $1
		 FOR UPDATE`

	return r.one(ctx, query, id)
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.AccountPatch) error {
	if patch.Empty() {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.Role != nil {
		set("role", string(*patch.Role))
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}
	if patch.Name != nil {
		set("name", nullString(*patch.Name))
	}
	if patch.AvatarURL != nil {
		set("avatar_url", nullString(*patch.AvatarURL))
	}
	switch {
	case patch.ClearReset:
		sets = append(sets, "reset_password_token = NULL", "reset_password_expires = NULL")
	case patch.ResetPasswordToken != nil && patch.ResetPasswordExpires != nil:
		set("reset_password_token", *patch.ResetPasswordToken)
		set("reset_password_expires", *patch.ResetPasswordExpires)
	case patch.ResetPasswordToken != nil || patch.ResetPasswordExpires != nil:
		return errors.New("reset token and expiry must be set together")
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ConsumeResetTicket(ctx context.Context, token, passwordHash string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET password_hash = $1, reset_password_token = NULL, reset_password_expires = NULL, updated_at = now()
		 WHERE reset_password_token = $2 AND reset_password_expires > $3
		 RETURNING ` + accountColumns

	return r.one(ctx, query, passwordHash, token, now)
}

func (r *PostgresRepository) ListByRole(ctx context.Context, role models.Role, f models.AdminFilter) ([]*models.Account, int, error) {
	f = f.Normalize()

	where := []string{"role = $1"}
	args := []any{string(role)}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("email ILIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	pageArgs := append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(`SELECT %s
		 FROM accounts
		 WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, accountColumns, cond, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return out, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
