package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mbolis/quick-forms/form"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQL side of the form aggregate and of the admin listings.
type Store struct {
	db *sql.DB
}

var _ form.Repository = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

func (s *Store) Skeleton(ctx context.Context, id int64) (model.Skeleton, error) {
	return loadSkeleton(ctx, s.db, id)
}

func (s *Store) Atomically(ctx context.Context, fn func(tx form.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	if err := fn(storeTx{tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "db.commit")
}

type storeTx struct {
	q querier
}

func (t storeTx) Skeleton(ctx context.Context, id int64) (model.Skeleton, error) {
	return loadSkeleton(ctx, t.q, id)
}

func (t storeTx) SaveSkeleton(ctx context.Context, sk *model.Skeleton) error {
	if sk.ID == 0 {
		err := t.q.QueryRowContext(ctx, `
			INSERT INTO skeleton (instance_id, title, description, end_message)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			sk.InstanceID,
			sk.Title,
			sk.Description,
			sk.EndMessage,
		).Scan(&sk.ID)
		return errors.Wrap(err, "db.insert_skeleton")
	}

	res, err := t.q.ExecContext(ctx, `
		UPDATE skeleton
		SET title = ?, description = ?, end_message = ?
		WHERE id = ?`,
		sk.Title,
		sk.Description,
		sk.EndMessage,
		sk.ID,
	)
	return checkAffected(res, err, "db.update_skeleton")
}

func (t storeTx) DeleteSkeleton(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM skeleton WHERE id = ?`, id)
	return checkAffected(res, err, "db.delete_skeleton")
}

func (t storeTx) SaveField(ctx context.Context, f *model.Field) error {
	options, err := encodeList(f.Options)
	if err != nil {
		return errors.Wrap(err, "db.save_field.options")
	}
	accepted, err := encodeList(f.Accepted)
	if err != nil {
		return errors.Wrap(err, "db.save_field.accepted")
	}

	if f.ID == 0 {
		err = t.q.QueryRowContext(ctx, `
			INSERT INTO field (skeleton_id, position, title, type, required, options, accepted)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			f.SkeletonID, f.Position, f.Title, f.Type, f.Required, options, accepted,
		).Scan(&f.ID)
		return errors.Wrap(err, "db.insert_field")
	}

	res, err := t.q.ExecContext(ctx, `
		UPDATE field
		SET position = ?, title = ?, type = ?, required = ?, options = ?, accepted = ?
		WHERE id = ?
			AND skeleton_id = ?`,
		f.Position, f.Title, f.Type, f.Required, options, accepted,
		f.ID, f.SkeletonID,
	)
	return checkAffected(res, err, "db.update_field")
}

func (t storeTx) DeleteField(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM field WHERE id = ?`, id)
	return checkAffected(res, err, "db.delete_field")
}

func (t storeTx) DeleteFields(ctx context.Context, skeletonID int64) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM field WHERE skeleton_id = ?`, skeletonID)
	return errors.Wrap(err, "db.delete_fields")
}

func (t storeTx) CountAnswers(ctx context.Context, fieldID int64) (n int, err error) {
	err = t.q.QueryRowContext(ctx, `SELECT count(*) FROM answer WHERE field_id = ?`, fieldID).Scan(&n)
	return n, errors.Wrap(err, "db.count_answers")
}

func (t storeTx) SaveResponse(ctx context.Context, r *model.Response) error {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO response (skeleton_id, time) VALUES (?, ?)
		RETURNING id`,
		r.SkeletonID,
		r.Time,
	).Scan(&r.ID)
	if err != nil {
		return errors.Wrap(err, "db.insert_response")
	}

	for _, a := range r.Answers {
		value, err := json.Marshal(a.Value)
		if err != nil {
			return errors.Wrap(err, "db.insert_response.answers.encode")
		}
		_, err = t.q.ExecContext(ctx, `
			INSERT INTO answer (response_id, field_id, value) VALUES (?, ?, ?)`,
			r.ID, a.FieldID, string(value),
		)
		if err != nil {
			return errors.Wrap(err, "db.insert_response.answers")
		}
	}
	return nil
}

func loadSkeleton(ctx context.Context, q querier, id int64) (model.Skeleton, error) {
	sk := model.Skeleton{}
	err := q.QueryRowContext(ctx, `
		SELECT id, instance_id, title, description, end_message
		FROM skeleton
		WHERE id = ?`,
		id,
	).Scan(&sk.ID, &sk.InstanceID, &sk.Title, &sk.Description, &sk.EndMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return sk, ErrNotFound
	}
	if err != nil {
		return sk, errors.Wrap(err, "db.get_skeleton")
	}

	sk.Fields, err = loadFields(ctx, q, `WHERE skeleton_id = ?`, id)
	return sk, err
}

func loadFields(ctx context.Context, q querier, where string, args ...any) ([]model.Field, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, skeleton_id, position, title, type, required, options, accepted
		FROM field `+where+`
		ORDER BY skeleton_id, position`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_fields")
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		f := model.Field{}
		var options, accepted string
		err = rows.Scan(&f.ID, &f.SkeletonID, &f.Position, &f.Title, &f.Type, &f.Required, &options, &accepted)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_fields.scan")
		}
		if f.Options, err = decodeList(options); err != nil {
			return nil, errors.Wrap(err, "db.get_fields.parse_options")
		}
		if f.Accepted, err = decodeList(accepted); err != nil {
			return nil, errors.Wrap(err, "db.get_fields.parse_accepted")
		}
		fields = append(fields, f)
	}
	return fields, errors.Wrap(rows.Err(), "db.get_fields.next")
}

func encodeList(list []string) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	b, err := json.Marshal(list)
	return string(b), err
}

func decodeList(s string) (list []string, err error) {
	if s != "" {
		err = json.Unmarshal([]byte(s), &list)
	}
	return
}

func checkAffected(res sql.Result, err error, code string) error {
	if err != nil {
		return errors.Wrap(err, code)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, code+".verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
