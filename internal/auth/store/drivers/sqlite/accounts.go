package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/logiscore/authcore/internal/auth/domain"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/internal/auth/store/drivers/sqlite/gen"
)

type accountsRepo struct {
	q *gen.Queries
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row, err := r.q.GetAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByExternalID(ctx context.Context, provider, subject string) (domain.Account, error) {
	row, err := r.q.GetAccountByExternalID(ctx, gen.GetAccountByExternalIDParams{
		Provider: provider,
		Subject:  subject,
	})
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	if !a.Status.Valid() {
		return fmt.Errorf("sqlite: invalid account status %q", a.Status)
	}
	err := r.q.CreateAccount(ctx, gen.CreateAccountParams{
		ID:          a.ID,
		Provider:    a.Provider,
		Subject:     a.Subject,
		Email:       a.Email,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		AvatarUrl:   a.AvatarURL,
		Status:      string(a.Status),
		CreatedAt:   toMillis(a.CreatedAt),
		UpdatedAt:   toMillis(a.UpdatedAt),
	})
	return mapUniqueViolation(err)
}

func (r *accountsRepo) UpdateAccountProfile(ctx context.Context, id string, p domain.Profile, now time.Time) error {
	n, err := r.q.UpdateAccountProfile(ctx, gen.UpdateAccountProfileParams{
		Email:       p.Email,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarUrl:   p.AvatarURL,
		UpdatedAt:   toMillis(now),
		ID:          id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) TransitionAccountStatus(
	ctx context.Context,
	id string,
	from, to domain.AccountStatus,
	now time.Time,
) (bool, error) {
	n, err := r.q.TransitionAccountStatus(ctx, gen.TransitionAccountStatusParams{
		ToStatus:   string(to),
		UpdatedAt:  toMillis(now),
		ID:         id,
		FromStatus: string(from),
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
