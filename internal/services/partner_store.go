package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/matching"
	"github.com/temcen/fitpair/pkg/models"
)

const profileColumns = `id, COALESCE(name, ''), age, COALESCE(fitness_level, ''), COALESCE(goals, ''),
	COALESCE(preferred_workout_time, ''), COALESCE(availability_schedule, ''),
	COALESCE(location, ''), COALESCE(bio, ''), last_active`

const maxStoredAge = 120

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PartnerStore reads and writes users, interactions and partner connections in PostgreSQL.
type PartnerStore struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewPartnerStore(db DatabaseQuerier, logger *logrus.Logger) *PartnerStore {
	return &PartnerStore{
		db:     db,
		logger: logger,
	}
}

// GetProfile loads an active user.
func (s *PartnerStore) GetProfile(ctx context.Context, userID string) (*matching.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1 AND is_active = true`

	profile, err := s.scanProfile(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return profile, nil
}

// ListCandidates returns active users that could partner with userID, most recently
// active first. Users already connected, pending or blocked in either direction are
// left out.
func (s *PartnerStore) ListCandidates(ctx context.Context, userID string, poolSize int, activeSince time.Time) ([]matching.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id != $1
			AND is_active = true
			AND id NOT IN (
				SELECT partner_id FROM partners
				WHERE user_id = $1 AND status IN ('accepted', 'pending', 'blocked')
			)
			AND id NOT IN (
				SELECT user_id FROM partners
				WHERE partner_id = $1 AND status = 'blocked'
			)
			AND last_active >= $2
		ORDER BY last_active DESC
		LIMIT $3`

	return s.queryProfiles(ctx, query, userID, activeSince, poolSize)
}

// SearchCandidates applies explicit filters instead of the activity window.
func (s *PartnerStore) SearchCandidates(ctx context.Context, userID string, filters models.SearchFilters, limit int) ([]matching.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id != $1 AND is_active = true`
	args := []interface{}{userID}

	if filters.Location != "" {
		args = append(args, "%"+filters.Location+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if filters.FitnessLevel != "" {
		args = append(args, filters.FitnessLevel)
		query += fmt.Sprintf(" AND fitness_level = $%d", len(args))
	}
	if filters.MinAge != nil {
		args = append(args, *filters.MinAge)
		query += fmt.Sprintf(" AND age >= $%d", len(args))
	}
	if filters.MaxAge != nil {
		args = append(args, *filters.MaxAge)
		query += fmt.Sprintf(" AND age <= $%d", len(args))
	}
	if filters.PreferredWorkoutTime != "" {
		args = append(args, filters.PreferredWorkoutTime)
		query += fmt.Sprintf(" AND (preferred_workout_time = $%d OR preferred_workout_time = 'flexible')", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY last_active DESC NULLS LAST LIMIT $%d", len(args))

	return s.queryProfiles(ctx, query, args...)
}

// ListInteractions returns the newest interactions authored by actorID.
func (s *PartnerStore) ListInteractions(ctx context.Context, actorID string, limit int) ([]matching.InteractionRecord, error) {
	query := `
		SELECT user_id, target_user_id, interaction_type, COALESCE(interaction_value, 0), created_at
		FROM user_interactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var records []matching.InteractionRecord
	for rows.Next() {
		var rec matching.InteractionRecord
		var kind string
		if err := rows.Scan(&rec.ActorID, &rec.TargetID, &kind, &rec.Weight, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		rec.Kind = matching.InteractionKind(kind)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interactions: %w", err)
	}

	return records, nil
}

// RecordInteraction stores rec and returns its id. A block also marks the pair as
// blocked so the target leaves the requester's candidate pool.
func (s *PartnerStore) RecordInteraction(ctx context.Context, rec matching.InteractionRecord) (string, error) {
	if rec.Kind != matching.InteractionBlock {
		return insertInteraction(ctx, s.db, rec)
	}

	var id string
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO partners (user_id, partner_id, status, created_at, updated_at)
			VALUES ($1, $2, 'blocked', NOW(), NOW())
			ON CONFLICT (user_id, partner_id) DO UPDATE SET status = 'blocked', updated_at = NOW()`,
			rec.ActorID, rec.TargetID)
		if err != nil {
			return fmt.Errorf("failed to block partner: %w", err)
		}
		id, err = insertInteraction(ctx, tx, rec)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetConnectionStatus returns the status of the userID -> partnerID row, or "" when
// there is none.
func (s *PartnerStore) GetConnectionStatus(ctx context.Context, userID, partnerID string) (string, error) {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM partners WHERE user_id = $1 AND partner_id = $2`, userID, partnerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to check connection: %w", err)
	}
	return status, nil
}

// CreateConnection stores a pending request, its optional opening message and the
// connection_request interaction in one transaction.
func (s *PartnerStore) CreateConnection(ctx context.Context, conn models.NewConnection) error {
	factors, err := json.Marshal(nonNilStrings(conn.MatchFactors))
	if err != nil {
		return fmt.Errorf("failed to encode match factors: %w", err)
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO partners (user_id, partner_id, status, compatibility_score, match_factors, created_at, updated_at)
			VALUES ($1, $2, 'pending', $3, $4, NOW(), NOW())`,
			conn.UserID, conn.PartnerID, conn.Score, string(factors))
		if err != nil {
			return fmt.Errorf("failed to create connection: %w", err)
		}

		if conn.Message != "" {
			_, err = tx.Exec(ctx, `
				INSERT INTO messages (sender_id, receiver_id, message, message_type)
				VALUES ($1, $2, $3, 'connection_request')`,
				conn.UserID, conn.PartnerID, conn.Message)
			if err != nil {
				return fmt.Errorf("failed to store connection message: %w", err)
			}
		}

		_, err = insertInteraction(ctx, tx, matching.InteractionRecord{
			ActorID:  conn.UserID,
			TargetID: conn.PartnerID,
			Kind:     matching.InteractionConnectionRequest,
			Weight:   1.0,
		})
		return err
	})
}

// RespondToConnection answers the request partnerID sent to userID. Accepting also
// creates the reverse accepted row. It returns the stored compatibility score.
func (s *PartnerStore) RespondToConnection(ctx context.Context, userID, partnerID, response string) (float64, error) {
	weight := -1.0
	kind := matching.InteractionDeclined
	if response == models.StatusAccepted {
		weight = 2.0
		kind = matching.InteractionAccepted
	}

	var score float64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE partners
			SET status = $1, updated_at = NOW(), last_interaction = NOW()
			WHERE user_id = $2 AND partner_id = $3
			RETURNING COALESCE(compatibility_score, 0)`,
			response, partnerID, userID).Scan(&score)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrConnectionNotFound
			}
			return fmt.Errorf("failed to update connection: %w", err)
		}

		if response == models.StatusAccepted {
			_, err = tx.Exec(ctx, `
				INSERT INTO partners (user_id, partner_id, status, compatibility_score, match_factors, created_at, updated_at, last_interaction)
				SELECT $1, $2, 'accepted', compatibility_score, match_factors, NOW(), NOW(), NOW()
				FROM partners WHERE user_id = $2 AND partner_id = $1
				ON CONFLICT (user_id, partner_id) DO UPDATE SET status = 'accepted', updated_at = NOW(), last_interaction = NOW()`,
				userID, partnerID)
			if err != nil {
				return fmt.Errorf("failed to create reverse connection: %w", err)
			}
		}

		_, err = insertInteraction(ctx, tx, matching.InteractionRecord{
			ActorID:  userID,
			TargetID: partnerID,
			Kind:     kind,
			Weight:   weight,
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

// ListMatches returns accepted partners, most recent interaction first.
func (s *PartnerStore) ListMatches(ctx context.Context, userID string) ([]models.Match, error) {
	query := `
		SELECT u.id, COALESCE(u.name, ''), u.age, COALESCE(u.location, ''), COALESCE(u.fitness_level, ''),
			COALESCE(u.goals, ''), COALESCE(u.bio, ''), COALESCE(p.compatibility_score, 0),
			COALESCE(p.match_factors, ''), p.last_interaction
		FROM partners p
		JOIN users u ON p.partner_id = u.id
		WHERE p.user_id = $1 AND p.status = 'accepted'
		ORDER BY p.last_interaction DESC NULLS LAST, p.compatibility_score DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var m models.Match
		var level, goals, factors string
		if err := rows.Scan(&m.ID, &m.Name, &m.Age, &m.Location, &level, &goals, &m.Bio,
			&m.CompatibilityScore, &factors, &m.LastInteraction); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.FitnessLevel = level
		m.Age = s.plausibleAge(m.ID, m.Age)
		m.Goals = nonNilStrings(s.decodeStrings(m.ID, "goals", goals))
		m.MatchFactors = nonNilStrings(s.decodeStrings(m.ID, "match_factors", factors))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	return matches, nil
}

func (s *PartnerStore) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]matching.UserProfile, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	profiles := []matching.UserProfile{}
	for rows.Next() {
		profile, err := s.scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	return profiles, nil
}

// scanProfile reads one profileColumns row. Malformed optional fields are dropped
// with a warning rather than failing the row.
func (s *PartnerStore) scanProfile(row rowScanner) (*matching.UserProfile, error) {
	var p matching.UserProfile
	var level, goals, schedule string
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &level, &goals, &p.PreferredWorkoutTime,
		&schedule, &p.Location, &p.Bio, &p.LastActive); err != nil {
		return nil, err
	}

	p.FitnessLevel = matching.FitnessLevel(level)
	p.Age = s.plausibleAge(p.ID, p.Age)
	p.Goals = s.decodeStrings(p.ID, "goals", goals)

	if schedule != "" {
		if err := json.Unmarshal([]byte(schedule), &p.AvailabilitySchedule); err != nil {
			s.logger.WithError(err).WithField("user_id", p.ID).Warn("Ignoring malformed availability schedule")
			p.AvailabilitySchedule = nil
		}
	}

	return &p, nil
}

func (s *PartnerStore) plausibleAge(userID string, age *int) *int {
	if age == nil || (*age > 0 && *age <= maxStoredAge) {
		return age
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"age":     *age,
	}).Warn("Ignoring out of range age")
	return nil
}

func (s *PartnerStore) decodeStrings(userID, field, raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"field":   field,
		}).Warn("Ignoring malformed JSON list")
		return nil
	}
	return values
}

func (s *PartnerStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.WithError(rbErr).Warn("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertInteraction(ctx context.Context, db execer, rec matching.InteractionRecord) (string, error) {
	id := uuid.NewString()
	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := db.Exec(ctx, `
		INSERT INTO user_interactions (id, user_id, target_user_id, interaction_type, interaction_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, rec.ActorID, rec.TargetID, string(rec.Kind), rec.Weight, timestamp)
	if err != nil {
		return "", fmt.Errorf("failed to store interaction: %w", err)
	}
	return id, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
