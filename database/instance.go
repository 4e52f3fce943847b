package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

// CreateInstance stores a new instance, assigning its id, hash and creation
// time.
func (s *Store) CreateInstance(ctx context.Context, inst *model.Instance) error {
	hash, err := uuid.NewV4()
	if err != nil {
		return errors.Wrap(err, "db.insert_instance.hash")
	}
	inst.Hash = hash.String()
	inst.Created = time.Now().UTC()
	if inst.Status == "" {
		inst.Status = model.Open
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO instance (hash, name, description, owner, status, created)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		inst.Hash,
		inst.Name,
		inst.Description,
		inst.Owner,
		inst.Status,
		inst.Created,
	).Scan(&inst.ID)
	return errors.Wrap(err, "db.insert_instance")
}

func (s *Store) Instances(ctx context.Context) ([]model.Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, name, description, owner, status, created
		FROM instance
		ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_instances")
	}
	defer rows.Close()

	instances := []model.Instance{}
	for rows.Next() {
		i := model.Instance{}
		err = rows.Scan(&i.ID, &i.Hash, &i.Name, &i.Description, &i.Owner, &i.Status, &i.Created)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_instances.scan")
		}
		instances = append(instances, i)
	}
	return instances, errors.Wrap(rows.Err(), "db.get_instances.next")
}

func (s *Store) Instance(ctx context.Context, hash string) (model.Instance, error) {
	i := model.Instance{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, hash, name, description, owner, status, created
		FROM instance
		WHERE hash = ?`,
		hash,
	).Scan(&i.ID, &i.Hash, &i.Name, &i.Description, &i.Owner, &i.Status, &i.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return i, ErrNotFound
	}
	return i, errors.Wrap(err, "db.get_instance")
}

func (s *Store) UpdateInstance(ctx context.Context, inst model.Instance) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE instance
		SET name = ?, description = ?, status = ?
		WHERE hash = ?`,
		inst.Name,
		inst.Description,
		inst.Status,
		inst.Hash,
	)
	return checkAffected(res, err, "db.update_instance")
}

// DeleteInstance removes an instance; its forms and responses go with it.
func (s *Store) DeleteInstance(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM instance WHERE hash = ?`, hash)
	return checkAffected(res, err, "db.delete_instance")
}

// Skeletons lists the forms of an instance with their fields.
func (s *Store) Skeletons(ctx context.Context, instanceID int64) ([]model.Skeleton, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, title, description, end_message
		FROM skeleton
		WHERE instance_id = ?
		ORDER BY id`,
		instanceID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_skeletons")
	}
	defer rows.Close()

	skeletons := []model.Skeleton{}
	index := map[int64]int{}
	for rows.Next() {
		sk := model.Skeleton{Fields: []model.Field{}}
		err = rows.Scan(&sk.ID, &sk.InstanceID, &sk.Title, &sk.Description, &sk.EndMessage)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_skeletons.scan")
		}
		index[sk.ID] = len(skeletons)
		skeletons = append(skeletons, sk)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.get_skeletons.next")
	}

	fields, err := loadFields(ctx, s.db, `
		WHERE skeleton_id IN (SELECT id FROM skeleton WHERE instance_id = ?)`,
		instanceID,
	)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if i, ok := index[f.SkeletonID]; ok {
			skeletons[i].Fields = append(skeletons[i].Fields, f)
		}
	}
	return skeletons, nil
}
