package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// Directory is the identity provider port: the accounts that can sign in.
type Directory interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, email string, admin bool) (*User, error)
	SetAdmin(ctx context.Context, uid string, admin bool) error
	Delete(ctx context.Context, uid string) error
}

func newUser(email string, admin bool) User {
	email = NormalizeEmail(email)
	id := UserID(email)
	return User{
		ID:        id,
		UID:       id.String(),
		Email:     email,
		Admin:     admin,
		CreatedAt: time.Now().UTC(),
	}
}

// MemoryDirectory is an in-memory Directory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: map[string]User{}}
}

func (d *MemoryDirectory) ListUsers(context.Context) ([]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]User, 0, len(d.users))
	for _, user := range d.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (d *MemoryDirectory) GetByEmail(_ context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, user := range d.users {
		if user.Email == NormalizeEmail(email) {
			return &user, nil
		}
	}
	return nil, &UserNotFoundError{Key: email}
}

func (d *MemoryDirectory) Create(_ context.Context, email string, admin bool) (*User, error) {
	if NormalizeEmail(email) == "" {
		return nil, ErrEmailRequired
	}
	user := newUser(email, admin)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[user.UID]; ok {
		return nil, ErrUserExists
	}
	d.users[user.UID] = user
	return &user, nil
}

func (d *MemoryDirectory) SetAdmin(_ context.Context, uid string, admin bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[uid]
	if !ok {
		return &UserNotFoundError{Key: uid}
	}
	user.Admin = admin
	d.users[uid] = user
	return nil
}

func (d *MemoryDirectory) Delete(_ context.Context, uid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[uid]; !ok {
		return &UserNotFoundError{Key: uid}
	}
	delete(d.users, uid)
	return nil
}

// BunDirectory keeps accounts in the users table.
type BunDirectory struct {
	db *bun.DB
}

func NewBunDirectory(db *bun.DB) *BunDirectory {
	return &BunDirectory{db: db}
}

func (d *BunDirectory) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := d.db.NewSelect().Model(&users).OrderExpr("?TableAlias.email ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (d *BunDirectory) GetByEmail(ctx context.Context, email string) (*User, error) {
	user := new(User)
	err := d.db.NewSelect().Model(user).Where("?TableAlias.email = ?", NormalizeEmail(email)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &UserNotFoundError{Key: email}
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (d *BunDirectory) Create(ctx context.Context, email string, admin bool) (*User, error) {
	if NormalizeEmail(email) == "" {
		return nil, ErrEmailRequired
	}
	user := newUser(email, admin)
	if _, err := d.GetByEmail(ctx, user.Email); err == nil {
		return nil, ErrUserExists
	}
	if _, err := d.db.NewInsert().Model(&user).Exec(ctx); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (d *BunDirectory) SetAdmin(ctx context.Context, uid string, admin bool) error {
	result, err := d.db.NewUpdate().
		Model((*User)(nil)).
		Set("admin = ?", admin).
		Where("?TableAlias.uid = ?", uid).
		Exec(ctx)
	return checkAffected(result, err, uid)
}

func (d *BunDirectory) Delete(ctx context.Context, uid string) error {
	result, err := d.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.uid = ?", uid).
		Exec(ctx)
	return checkAffected(result, err, uid)
}

func checkAffected(result sql.Result, err error, uid string) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &UserNotFoundError{Key: uid}
	}
	return nil
}
