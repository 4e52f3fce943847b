package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/roster"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// SaveParticipants adds the entries to the roster of an instance in a single
// transaction. Usernames already on the roster get their names and password
// replaced.
func (s *Store) SaveParticipants(ctx context.Context, instanceID int64, source string, entries []roster.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "db.save_participants.begin_tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range entries {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.Password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrap(err, "db.save_participants.hash")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO participant (instance_id, username, first_name, last_name, password_hash, source, created)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (instance_id, username) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				password_hash = excluded.password_hash,
				source = excluded.source`,
			instanceID,
			e.Username,
			e.FirstName,
			e.LastName,
			hash,
			source,
			now,
		)
		if err != nil {
			return errors.Wrap(err, "db.save_participants")
		}
	}
	return errors.Wrap(tx.Commit(), "db.save_participants.commit")
}

func (s *Store) Participants(ctx context.Context, instanceID int64) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, username, first_name, last_name, source, created
		FROM participant
		WHERE instance_id = ?
		ORDER BY id`,
		instanceID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_participants")
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		p := model.Participant{}
		err = rows.Scan(&p.ID, &p.InstanceID, &p.Username, &p.FirstName, &p.LastName, &p.Source, &p.Created)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_participants.scan")
		}
		participants = append(participants, p)
	}
	return participants, errors.Wrap(rows.Err(), "db.get_participants.next")
}

func (s *Store) Participant(ctx context.Context, instanceID int64, username string) (model.Participant, error) {
	p := model.Participant{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, instance_id, username, first_name, last_name, source, created
		FROM participant
		WHERE instance_id = ? AND username = ?`,
		instanceID,
		username,
	).Scan(&p.ID, &p.InstanceID, &p.Username, &p.FirstName, &p.LastName, &p.Source, &p.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, errors.Wrap(err, "db.get_participant")
}
