package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"forum-bot/internal/models"
)

// ErrNoConsent rejects records that must never reach the store.
var ErrNoConsent = errors.New("registration without consent")

const registrationColumns = `user_id, full_name, birth_date, email, phone, university, course,
	interested_in_internship, consent_given, consent_datetime, registration_datetime, telegram_username`

func scanRegistration(scanner interface{ Scan(...any) error }) (*models.Registration, error) {
	var r models.Registration
	var consentAt, regAt string
	err := scanner.Scan(
		&r.UserID, &r.FullName, &r.BirthDate, &r.Email, &r.Phone, &r.University, &r.Course,
		&r.InterestedInInternship, &r.ConsentGiven, &consentAt, &regAt, &r.TelegramUsername,
	)
	if err != nil {
		return nil, err
	}
	if r.ConsentAt, err = parseTime(consentAt); err != nil {
		return nil, fmt.Errorf("consent_datetime: %w", err)
	}
	if r.RegisteredAt, err = parseTime(regAt); err != nil {
		return nil, fmt.Errorf("registration_datetime: %w", err)
	}
	return &r, nil
}

// UpsertRegistration inserts or fully replaces the row of r.UserID.
func (s *Store) UpsertRegistration(ctx context.Context, r models.Registration) error {
	if !r.ConsentGiven {
		return ErrNoConsent
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name,
			birth_date = excluded.birth_date,
			email = excluded.email,
			phone = excluded.phone,
			university = excluded.university,
			course = excluded.course,
			interested_in_internship = excluded.interested_in_internship,
			consent_given = excluded.consent_given,
			consent_datetime = excluded.consent_datetime,
			registration_datetime = excluded.registration_datetime,
			telegram_username = excluded.telegram_username`,
		r.UserID, r.FullName, r.BirthDate, r.Email, r.Phone, r.University, r.Course,
		r.InterestedInInternship, r.ConsentGiven, formatTime(r.ConsentAt), formatTime(r.RegisteredAt),
		r.TelegramUsername,
	)
	if err != nil {
		return fmt.Errorf("upsert registration %d: %w", r.UserID, err)
	}
	return nil
}

// GetRegistration returns nil, nil when the user has no registration.
func (s *Store) GetRegistration(ctx context.Context, userID int64) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE user_id = ?`, userID)
	r, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registration %d: %w", userID, err)
	}
	return r, nil
}

// ListRegistrations returns every registration, most recent first.
func (s *Store) ListRegistrations(ctx context.Context) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		ORDER BY registration_datetime DESC, user_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := []models.Registration{}
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

// ComputeStatistics reads the total and both group-by counts inside one
// transaction so they agree with each other.
func (s *Store) ComputeStatistics(ctx context.Context) (models.Statistics, error) {
	var st models.Statistics
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&st.Total); err != nil {
			return err
		}
		var err error
		if st.ByUniversity, err = groupCount(ctx, tx, "university"); err != nil {
			return err
		}
		st.ByCourse, err = groupCount(ctx, tx, "course")
		return err
	})
	if err != nil {
		return models.Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	return st, nil
}

// groupCount only accepts the fixed column names above.
func groupCount(ctx context.Context, tx *sql.Tx, column string) ([]models.Count, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+column+`, COUNT(*) AS n FROM registrations
		GROUP BY `+column+` ORDER BY n DESC, `+column+` ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Count{}
	for rows.Next() {
		var c models.Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
