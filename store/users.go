package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun backed account store
type Users interface {
	membership.UserStore
	membership.Warmer

	Create(ctx context.Context, user *membership.User) (*membership.User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *membership.User) (*membership.User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *membership.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*membership.User, error)
	Count(ctx context.Context) (int, error)
}

type users struct {
	repository.Repository[*membership.User]
	db *bun.DB
}

var (
	_ Users                = (*users)(nil)
	_ membership.UserStore = (*users)(nil)
	_ membership.Warmer    = (*users)(nil)
)

// NewUsersRepository creates the users store over db
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*membership.User](db, repository.ModelHandlers[*membership.User]{
		NewRecord: func() *membership.User { return &membership.User{} },
		GetID: func(u *membership.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *membership.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByName(ctx context.Context, name string) (*membership.User, error) {
	return a.findBy(ctx, "name", name)
}

func (a *users) FindByEmail(ctx context.Context, email string) (*membership.User, error) {
	return a.findBy(ctx, "email", email)
}

func (a *users) FindByMobile(ctx context.Context, mobile string) (*membership.User, error) {
	return a.findBy(ctx, "mobile", mobile)
}

func (a *users) FindByCode(ctx context.Context, code string) (*membership.User, error) {
	return a.findBy(ctx, "code", code)
}

// findBy returns nil without an error when no row matches
func (a *users) findBy(ctx context.Context, column, value string) (*membership.User, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	record := &membership.User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query users").
			WithMetadata(map[string]any{
				"column": column,
			})
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*membership.User, error) {
	record := &membership.User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, user *membership.User) (*membership.User, error) {
	return a.CreateTx(ctx, a.db, user)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *membership.User) (*membership.User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

// Update persists the whole record, login bookkeeping included
func (a *users) Update(ctx context.Context, user *membership.User) error {
	return a.UpdateTx(ctx, a.db, user)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *membership.User) error {
	if user == nil || user.ID == uuid.Nil {
		return errors.New("user id is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	now := time.Now()
	user.UpdatedAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String()))
	return err
}

func (a *users) Count(ctx context.Context) (int, error) {
	return a.db.NewSelect().
		Model((*membership.User)(nil)).
		Count(ctx)
}

// Warmup checks the users table is reachable
func (a *users) Warmup(ctx context.Context) error {
	if _, err := a.Count(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "users table unavailable")
	}
	return nil
}

func prepareUserDefaults(user *membership.User) {
	if user == nil {
		return
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if user.Roles == nil {
		user.Roles = []string{membership.RoleUser}
	}

	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
}
