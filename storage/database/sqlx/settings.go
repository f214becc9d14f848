package sqlxrepos

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/settings"
)

type settingsRepository struct {
	baseRepository
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(exec core.DBExecutor) *settingsRepository {
	return &settingsRepository{baseRepository: newBaseRepository(exec)}
}

func (repo settingsRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var val string
	if err := repo.exec.GetContext(ctx, &val, repo.rebind("SELECT value FROM settings WHERE key = ?"), key); err != nil {
		return "", trapNoRowsErr(err, settings.ErrNotFound, "selecting setting")
	}
	return val, nil
}

func (repo settingsRepository) SetSetting(ctx context.Context, key, value string) error {
	return repo.set(ctx, repo.exec, key, value)
}

// SetSettings writes every value in a single transaction, in key order.
// When the repository already runs inside a transaction it joins it.
func (repo settingsRepository) SetSettings(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	db, ok := repo.exec.(core.DB)
	if !ok {
		return repo.setAll(ctx, repo.exec, keys, values)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning settings transaction")
	}
	if err = repo.setAll(ctx, tx, keys, values); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing settings")
}

func (repo settingsRepository) setAll(ctx context.Context, exec core.DBExecutor, keys []string, values map[string]string) error {
	for _, key := range keys {
		if err := repo.set(ctx, exec, key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

func (repo settingsRepository) set(ctx context.Context, exec core.DBExecutor, key, value string) error {
	q := repo.rebind("INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value")
	if _, err := exec.ExecContext(ctx, q, key, value); err != nil {
		return errors.Wrapf(err, "saving setting %s", key)
	}
	return nil
}
