package accounts

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/google/uuid"
)

// MemoryStore is a process-local Repository. It enforces the same email
// uniqueness and single-use ticket rules as the PostgreSQL schema. Records
// are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]*models.Account
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]*models.Account{}, now: time.Now}
}

func clone(a *models.Account) *models.Account {
	cp := *a
	if a.EmailVerificationToken != nil {
		v := *a.EmailVerificationToken
		cp.EmailVerificationToken = &v
	}
	if a.ResetPasswordToken != nil {
		v := *a.ResetPasswordToken
		cp.ResetPasswordToken = &v
	}
	if a.ResetPasswordExpires != nil {
		v := *a.ResetPasswordExpires
		cp.ResetPasswordExpires = &v
	}
	return &cp
}

func (m *MemoryStore) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return nil, common.ErrorAlreadyExists
		}
	}

	created := clone(a)
	created.ID = uuid.NewString()
	created.CreatedAt = m.now()
	created.UpdatedAt = created.CreatedAt
	m.byID[created.ID] = created

	return clone(created), nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(a), nil
}

// LockByID is FindByID; the store mutex already serialises writers.
func (m *MemoryStore) LockByID(ctx context.Context, id string) (*models.Account, error) {
	return m.FindByID(ctx, id)
}

func (m *MemoryStore) Update(ctx context.Context, id string, patch models.AccountPatch) error {
	if patch.Empty() {
		return nil
	}
	if (patch.ResetPasswordToken == nil) != (patch.ResetPasswordExpires == nil) && !patch.ClearReset {
		return errors.New("reset token and expiry must be set together")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}

	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		a.Role = *patch.Role
	}
	if patch.IsActive != nil {
		a.IsActive = *patch.IsActive
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.AvatarURL != nil {
		a.AvatarURL = *patch.AvatarURL
	}
	switch {
	case patch.ClearReset:
		a.ResetPasswordToken, a.ResetPasswordExpires = nil, nil
	case patch.ResetPasswordToken != nil:
		token, expires := *patch.ResetPasswordToken, *patch.ResetPasswordExpires
		a.ResetPasswordToken, a.ResetPasswordExpires = &token, &expires
	}
	a.UpdatedAt = m.now()

	return nil
}

func (m *MemoryStore) ConsumeResetTicket(ctx context.Context, token, passwordHash string, now time.Time) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if a.ResetPasswordToken == nil || *a.ResetPasswordToken != token {
			continue
		}
		if a.ResetPasswordExpires == nil || !a.ResetPasswordExpires.After(now) {
			return nil, common.ErrorNotFound
		}
		a.PasswordHash = passwordHash
		a.ResetPasswordToken, a.ResetPasswordExpires = nil, nil
		a.UpdatedAt = m.now()
		return clone(a), nil
	}
	return nil, common.ErrorNotFound
}

func (m *MemoryStore) ListByRole(ctx context.Context, role models.Role, f models.AdminFilter) ([]*models.Account, int, error) {
	f = f.Normalize()
	search := strings.ToLower(strings.TrimSpace(f.Search))

	m.mu.Lock()
	var matched []*models.Account
	for _, a := range m.byID {
		if a.Role != role {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		matched = append(matched, clone(a))
	}
	m.mu.Unlock()

	slices.SortFunc(matched, func(x, y *models.Account) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})

	total := len(matched)
	start := max(0, min(f.Offset(), total))
	end := min(start+f.Limit, total)

	return matched[start:end], total, nil
}
