package form

import (
	"context"
	"errors"
	"strings"

	"github.com/mbolis/quick-forms/model"
)

// Repository is the persistence side of the skeleton aggregate. Atomically
// runs fn inside a single transaction: if fn fails nothing it did is kept.
type Repository interface {
	Skeleton(ctx context.Context, id int64) (model.Skeleton, error)
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes available inside Repository.Atomically. Save
// inserts entities with a zero ID (and sets it) and updates the others.
type Tx interface {
	Skeleton(ctx context.Context, id int64) (model.Skeleton, error)
	SaveSkeleton(ctx context.Context, s *model.Skeleton) error
	DeleteSkeleton(ctx context.Context, id int64) error
	SaveField(ctx context.Context, f *model.Field) error
	DeleteField(ctx context.Context, id int64) error
	DeleteFields(ctx context.Context, skeletonID int64) error
	CountAnswers(ctx context.Context, fieldID int64) (int, error)
	SaveResponse(ctx context.Context, r *model.Response) error
}

type SkeletonInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	EndMessage  string       `json:"endMessage"`
	Fields      []Definition `json:"fields"`
}

// SkeletonPatch holds a partial update; nil members are left untouched.
type SkeletonPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	EndMessage  *string `json:"endMessage"`
}

type Skeletons struct {
	repo Repository
}

func NewSkeletons(repo Repository) *Skeletons {
	return &Skeletons{repo}
}

// ValidateFields validates every definition, stopping at the first failure,
// whose error carries the index of the failing definition.
func ValidateFields(defs []Definition) ([]model.Field, error) {
	fields := make([]model.Field, len(defs))
	for i, d := range defs {
		f, err := ValidateField(d)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.at(i)
			}
			return nil, err
		}
		f.Position = i
		fields[i] = f
	}
	return fields, nil
}

func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid(ErrInvalidPayload, "form title must not be empty")
	}
	return nil
}

func (s *Skeletons) Get(ctx context.Context, id int64) (model.Skeleton, error) {
	return s.repo.Skeleton(ctx, id)
}

func (s *Skeletons) Create(ctx context.Context, instanceID int64, in SkeletonInput) (model.Skeleton, error) {
	if err := checkTitle(in.Title); err != nil {
		return model.Skeleton{}, err
	}
	fields, err := ValidateFields(in.Fields)
	if err != nil {
		return model.Skeleton{}, err
	}

	sk := model.Skeleton{
		InstanceID:  instanceID,
		Title:       in.Title,
		Description: in.Description,
		EndMessage:  in.EndMessage,
	}
	err = s.repo.Atomically(ctx, func(tx Tx) error {
		if err := tx.SaveSkeleton(ctx, &sk); err != nil {
			return err
		}
		return saveFields(ctx, tx, sk.ID, fields)
	})
	if err != nil {
		return model.Skeleton{}, err
	}
	sk.Fields = fields
	return sk, nil
}

func (s *Skeletons) Update(ctx context.Context, id int64, patch SkeletonPatch) (model.Skeleton, error) {
	if patch.Title != nil {
		if err := checkTitle(*patch.Title); err != nil {
			return model.Skeleton{}, err
		}
	}

	var sk model.Skeleton
	err := s.repo.Atomically(ctx, func(tx Tx) (err error) {
		sk, err = tx.Skeleton(ctx, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			sk.Title = *patch.Title
		}
		if patch.Description != nil {
			sk.Description = *patch.Description
		}
		if patch.EndMessage != nil {
			sk.EndMessage = *patch.EndMessage
		}
		return tx.SaveSkeleton(ctx, &sk)
	})
	return sk, err
}

// Delete removes the skeleton with its fields and their answers.
func (s *Skeletons) Delete(ctx context.Context, id int64) error {
	return s.repo.Atomically(ctx, func(tx Tx) error {
		if _, err := tx.Skeleton(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteFields(ctx, id); err != nil {
			return err
		}
		return tx.DeleteSkeleton(ctx, id)
	})
}

// ReplaceFields swaps the whole field list of a skeleton. All definitions
// are validated before anything is written. A skeleton whose fields already
// hold answers cannot be replaced wholesale, as its answers would be lost;
// such fields are edited one at a time.
func (s *Skeletons) ReplaceFields(ctx context.Context, id int64, defs []Definition) (model.Skeleton, error) {
	fields, err := ValidateFields(defs)
	if err != nil {
		return model.Skeleton{}, err
	}

	var sk model.Skeleton
	err = s.repo.Atomically(ctx, func(tx Tx) (err error) {
		sk, err = tx.Skeleton(ctx, id)
		if err != nil {
			return err
		}
		for _, f := range sk.Fields {
			n, err := tx.CountAnswers(ctx, f.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return invalid(ErrInvalidPayload, "fields are locked once answers exist (%d answers)", n).
					about(fieldRef{id: f.ID, title: f.Title})
			}
		}
		if err = tx.DeleteFields(ctx, id); err != nil {
			return err
		}
		return saveFields(ctx, tx, id, fields)
	})
	if err != nil {
		return model.Skeleton{}, err
	}
	sk.Fields = fields
	return sk, nil
}

func saveFields(ctx context.Context, tx Tx, skeletonID int64, fields []model.Field) error {
	for i := range fields {
		fields[i].SkeletonID = skeletonID
		fields[i].Position = i
		if err := tx.SaveField(ctx, &fields[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddField appends a field at the end of the skeleton.
func (s *Skeletons) AddField(ctx context.Context, id int64, d Definition) (model.Field, error) {
	f, err := ValidateField(d)
	if err != nil {
		return model.Field{}, err
	}

	err = s.repo.Atomically(ctx, func(tx Tx) error {
		sk, err := tx.Skeleton(ctx, id)
		if err != nil {
			return err
		}
		f.SkeletonID = id
		f.Position = len(sk.Fields)
		return tx.SaveField(ctx, &f)
	})
	return f, err
}

// UpdateField replaces the definition of a field in place. The type of a
// field cannot change once answers reference it.
func (s *Skeletons) UpdateField(ctx context.Context, id, fieldID int64, d Definition) (model.Field, error) {
	f, err := ValidateField(d)
	if err != nil {
		return model.Field{}, err
	}

	err = s.repo.Atomically(ctx, func(tx Tx) error {
		sk, err := tx.Skeleton(ctx, id)
		if err != nil {
			return err
		}
		i := indexOf(sk, fieldID)
		if i < 0 {
			return notFound(fieldID)
		}
		current := sk.Fields[i]

		if current.Type != f.Type {
			n, err := tx.CountAnswers(ctx, fieldID)
			if err != nil {
				return err
			}
			if n > 0 {
				return invalid(ErrInvalidPayload, "type is locked once answers exist (%d answers)", n).
					about(fieldRef{id: fieldID, title: current.Title})
			}
		}

		f.ID = current.ID
		f.SkeletonID = id
		f.Position = current.Position
		return tx.SaveField(ctx, &f)
	})
	return f, err
}

func (s *Skeletons) DeleteField(ctx context.Context, id, fieldID int64) error {
	return s.repo.Atomically(ctx, func(tx Tx) error {
		sk, err := tx.Skeleton(ctx, id)
		if err != nil {
			return err
		}
		i := indexOf(sk, fieldID)
		if i < 0 {
			return notFound(fieldID)
		}
		if err := tx.DeleteField(ctx, fieldID); err != nil {
			return err
		}
		return renumber(ctx, tx, append(sk.Fields[:i:i], sk.Fields[i+1:]...))
	})
}

// ReorderField moves a field to position, clamped to the bounds of the list.
func (s *Skeletons) ReorderField(ctx context.Context, id, fieldID int64, position int) (model.Skeleton, error) {
	var sk model.Skeleton
	err := s.repo.Atomically(ctx, func(tx Tx) (err error) {
		sk, err = tx.Skeleton(ctx, id)
		if err != nil {
			return err
		}
		i := indexOf(sk, fieldID)
		if i < 0 {
			return notFound(fieldID)
		}

		if position < 0 {
			position = 0
		}
		if position >= len(sk.Fields) {
			position = len(sk.Fields) - 1
		}

		moved := sk.Fields[i]
		rest := append(sk.Fields[:i:i], sk.Fields[i+1:]...)
		fields := make([]model.Field, 0, len(sk.Fields))
		fields = append(fields, rest[:position]...)
		fields = append(fields, moved)
		fields = append(fields, rest[position:]...)

		sk.Fields = fields
		return renumber(ctx, tx, sk.Fields)
	})
	return sk, err
}

// renumber saves the fields whose position differs from their index.
func renumber(ctx context.Context, tx Tx, fields []model.Field) error {
	for i := range fields {
		if fields[i].Position == i {
			continue
		}
		fields[i].Position = i
		if err := tx.SaveField(ctx, &fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(sk model.Skeleton, fieldID int64) int {
	for i, f := range sk.Fields {
		if f.ID == fieldID {
			return i
		}
	}
	return -1
}

func notFound(fieldID int64) *ValidationError {
	return invalid(ErrFieldNotFound, "field does not belong to this form").about(fieldRef{id: fieldID})
}
