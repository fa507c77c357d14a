package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/odegen/internal/ir"
)

// Emission is one cached source text.
type Emission struct {
	Key            string   `json:"key"`
	ModelHash      string   `json:"model_hash"`
	Backend        string   `json:"backend"`
	Params         []string `json:"params"`
	EmitterVersion string   `json:"emitter_version"`
	Source         string   `json:"source"`
	Seq            int64    `json:"seq"`
}

// WriteModel stores a model spec under its content hash.
// Uses ON CONFLICT(hash) DO NOTHING - rewriting the same model is a no-op.
func (s *Store) WriteModel(ctx context.Context, hash string, spec ir.ModelSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models (hash, name, spec, ir_version, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM models))
		ON CONFLICT(hash) DO NOTHING
	`, hash, spec.Name, string(data), ir.IRVersion)
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// ReadModel retrieves a model spec by hash.
// Returns ErrNotFound if absent.
func (s *Store) ReadModel(ctx context.Context, hash string) (ir.ModelSpec, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT spec FROM models WHERE hash = ?`, hash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ModelSpec{}, fmt.Errorf("read model %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return ir.ModelSpec{}, fmt.Errorf("read model %s: %w", hash, err)
	}

	var spec ir.ModelSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return ir.ModelSpec{}, fmt.Errorf("read model %s: %w", hash, err)
	}
	return spec, nil
}

// WriteEmission stores compressed source text. The model must already be
// written (foreign key). Duplicate keys are silently ignored.
func (s *Store) WriteEmission(ctx context.Context, e Emission) error {
	params, err := json.Marshal(paramsOrEmpty(e.Params))
	if err != nil {
		return fmt.Errorf("write emission: %w", err)
	}
	source, err := compress([]byte(e.Source))
	if err != nil {
		return fmt.Errorf("write emission: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emissions
		(key, model_hash, backend, params, emitter_version, source, size, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM emissions))
		ON CONFLICT(key) DO NOTHING
	`,
		e.Key,
		e.ModelHash,
		e.Backend,
		string(params),
		e.EmitterVersion,
		source,
		len(e.Source),
	)
	if err != nil {
		return fmt.Errorf("write emission: %w", err)
	}
	return nil
}

// ReadEmission retrieves a cached emission by key.
// Returns ErrNotFound if absent.
func (s *Store) ReadEmission(ctx context.Context, key string) (Emission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, model_hash, backend, params, emitter_version, source, seq
		FROM emissions
		WHERE key = ?
	`, key)

	e, err := scanEmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Emission{}, fmt.Errorf("read emission %s: %w", key, ErrNotFound)
	}
	return e, err
}

// ListEmissions returns every cached emission of a model in write order.
func (s *Store) ListEmissions(ctx context.Context, modelHash string) ([]Emission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, model_hash, backend, params, emitter_version, source, seq
		FROM emissions
		WHERE model_hash = ?
		ORDER BY seq ASC, key COLLATE BINARY ASC
	`, modelHash)
	if err != nil {
		return nil, fmt.Errorf("list emissions: %w", err)
	}
	defer rows.Close()

	var out []Emission
	for rows.Next() {
		e, err := scanEmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list emissions: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEmission(row scanner) (Emission, error) {
	var (
		e      Emission
		params string
		source []byte
	)
	if err := row.Scan(&e.Key, &e.ModelHash, &e.Backend, &params, &e.EmitterVersion, &source, &e.Seq); err != nil {
		return Emission{}, err
	}
	if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
		return Emission{}, fmt.Errorf("scan emission %s: params: %w", e.Key, err)
	}
	text, err := decompress(source)
	if err != nil {
		return Emission{}, fmt.Errorf("scan emission %s: %w", e.Key, err)
	}
	e.Source = string(text)
	return e, nil
}

func paramsOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
