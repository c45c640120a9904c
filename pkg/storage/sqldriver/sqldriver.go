// Package sqldriver implements storage.Driver over a database/sql
// connection. The SQL it issues is restricted to the dialect both
// SQLite and PostgreSQL accept, so the sqlite and postgres packages
// share this one implementation.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	provider          TEXT NOT NULL,
	id                TEXT NOT NULL,
	family            TEXT NOT NULL DEFAULT '',
	type              TEXT NOT NULL DEFAULT '',
	version           TEXT NOT NULL DEFAULT '',
	capabilities      TEXT NOT NULL DEFAULT '[]',
	context_window    INTEGER NOT NULL DEFAULT 0,
	max_output_tokens INTEGER NOT NULL DEFAULT 0,
	experimental      BOOLEAN NOT NULL DEFAULT FALSE,
	input_price       DOUBLE PRECISION NOT NULL DEFAULT 0,
	output_price      DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (provider, id)
)`

// SQLDriver implements storage.Driver over *sql.DB.
type SQLDriver struct {
	DB *sql.DB
}

// Migrate creates the models table if it does not exist.
func (d *SQLDriver) Migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// PutModel upserts a model. Returns true if the model was newly inserted.
func (d *SQLDriver) PutModel(ctx context.Context, model catalog.Model) (bool, error) {
	if model.ID == "" {
		return false, errors.New("cannot store model without an ID")
	}

	capabilities, err := json.Marshal(model.Capabilities)
	if err != nil {
		return false, fmt.Errorf("failed to encode capabilities: %w", err)
	}

	res, err := d.DB.ExecContext(ctx, `
		INSERT INTO models (provider, id, family, type, version, capabilities,
			context_window, max_output_tokens, experimental, input_price, output_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (provider, id) DO NOTHING`,
		model.Provider, model.ID, model.Family, model.Type, model.Version,
		string(capabilities), model.ContextWindow, model.MaxOutputTokens,
		model.IsExperimental, model.InputPricePerToken, model.OutputPricePerToken,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert model: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if inserted > 0 {
		return true, nil
	}

	_, err = d.DB.ExecContext(ctx, `
		UPDATE models
		SET family = $3, type = $4, version = $5, capabilities = $6,
			context_window = $7, max_output_tokens = $8, experimental = $9,
			input_price = $10, output_price = $11
		WHERE provider = $1 AND id = $2`,
		model.Provider, model.ID, model.Family, model.Type, model.Version,
		string(capabilities), model.ContextWindow, model.MaxOutputTokens,
		model.IsExperimental, model.InputPricePerToken, model.OutputPricePerToken,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update model: %w", err)
	}
	return false, nil
}

// GetModel retrieves a model by provider and ID.
func (d *SQLDriver) GetModel(ctx context.Context, provider, id string) (catalog.Model, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT provider, id, family, type, version, capabilities,
			context_window, max_output_tokens, experimental, input_price, output_price
		FROM models
		WHERE provider = $1 AND id = $2`,
		provider, id,
	)

	model, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Model{}, storage.NotFoundError{Provider: provider, ID: id}
	}
	if err != nil {
		return catalog.Model{}, fmt.Errorf("failed to get model: %w", err)
	}
	return model, nil
}

// ListModels returns all models for a provider, sorted by ID.
func (d *SQLDriver) ListModels(ctx context.Context, provider string) ([]catalog.Model, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT provider, id, family, type, version, capabilities,
			context_window, max_output_tokens, experimental, input_price, output_price
		FROM models
		WHERE provider = $1
		ORDER BY id`,
		provider,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []catalog.Model
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, model)
	}
	return models, rows.Err()
}

// ListProviders returns all providers with at least one model, sorted.
func (d *SQLDriver) ListProviders(ctx context.Context) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx,
		`SELECT DISTINCT provider FROM models ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []string
	for rows.Next() {
		var provider string
		if err := rows.Scan(&provider); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

// DeleteModel removes a model by provider and ID.
func (d *SQLDriver) DeleteModel(ctx context.Context, provider, id string) error {
	res, err := d.DB.ExecContext(ctx,
		`DELETE FROM models WHERE provider = $1 AND id = $2`, provider, id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if deleted == 0 {
		return storage.NotFoundError{Provider: provider, ID: id}
	}
	return nil
}

// Close closes the underlying database connection.
func (d *SQLDriver) Close() error {
	return d.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner) (catalog.Model, error) {
	var (
		model        catalog.Model
		capabilities string
	)
	err := row.Scan(
		&model.Provider, &model.ID, &model.Family, &model.Type, &model.Version,
		&capabilities, &model.ContextWindow, &model.MaxOutputTokens,
		&model.IsExperimental, &model.InputPricePerToken, &model.OutputPricePerToken,
	)
	if err != nil {
		return catalog.Model{}, err
	}

	if err := json.Unmarshal([]byte(capabilities), &model.Capabilities); err != nil {
		return catalog.Model{}, fmt.Errorf("failed to decode capabilities: %w", err)
	}
	return model, nil
}
