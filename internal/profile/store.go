// Package profile reads subscriber profiles from postgres. Profiles default
// a query's location when the text carries none, and drive the alert digest
// recipient list.
package profile

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
)

// querier is the subset of the postgres client the store needs.
type querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	db     querier
	logger logger.Logger
}

func NewStore(db querier, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

const selectColumns = `id, name, phone, email, pincode, state, land_acres, commodities`

// Get returns one profile by ID. A missing row surfaces as a
// PROFILE_NOT_FOUND StandardError.
func (s *Store) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM user_profiles WHERE id = $1`, userID)

	p, err := scanProfile(row.Scan)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewProfileNotFoundError(userID)
		}
		return nil, errors.NewQueryExecutionFailedError("profile_get", err)
	}
	return p, nil
}

// GetBatch returns profiles for the given IDs, skipping unknown ones. The
// result order follows the database, not the input.
func (s *Store) GetBatch(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+selectColumns+` FROM user_profiles WHERE id = ANY($1)`,
		pq.Array(userIDs))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("profile_batch", err)
	}
	defer rows.Close()

	profiles, err := collect(rows)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("profile_batch", err)
	}

	if len(profiles) < len(userIDs) {
		s.logger.Debug("some profile IDs were unknown", map[string]interface{}{
			"requested": len(userIDs), "found": len(profiles),
		})
	}
	return profiles, nil
}

// ListAlertSubscribers returns every profile that opted into weather alerts
// and has at least one delivery channel.
func (s *Store) ListAlertSubscribers(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+selectColumns+` FROM user_profiles
		 WHERE alerts_enabled = TRUE
		   AND (phone <> '' OR email <> '')
		 ORDER BY id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("alert_subscribers", err)
	}
	defer rows.Close()

	profiles, err := collect(rows)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("alert_subscribers", err)
	}
	return profiles, nil
}

func collect(rows *sql.Rows) ([]*models.UserProfile, error) {
	var out []*models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(scan func(dest ...interface{}) error) (*models.UserProfile, error) {
	var (
		p           models.UserProfile
		phone       sql.NullString
		email       sql.NullString
		pincode     sql.NullString
		state       sql.NullString
		landAcres   sql.NullFloat64
		commodities pq.StringArray
	)

	if err := scan(&p.ID, &p.Name, &phone, &email, &pincode, &state, &landAcres, &commodities); err != nil {
		return nil, err
	}

	p.Phone = phone.String
	p.Email = email.String
	p.Pincode = pincode.String
	p.State = state.String
	p.LandAcres = landAcres.Float64
	p.Commodities = []string(commodities)
	return &p, nil
}
