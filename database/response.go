package database

import (
	"context"
	"encoding/json"

	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

// Responses lists the responses to a form, oldest first, with their answers.
// Answer values come back as decoded JSON.
func (s *Store) Responses(ctx context.Context, skeletonID int64) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.id, r.time,
			a.field_id, a.value
		FROM response r
		LEFT OUTER JOIN answer a ON (r.id = a.response_id)
		LEFT OUTER JOIN field f ON (f.id = a.field_id)
		WHERE r.skeleton_id = ?
		ORDER BY r.id, f.position`,
		skeletonID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		r := model.Response{SkeletonID: skeletonID}
		var fieldID *int64
		var value *string
		err = rows.Scan(&r.ID, &r.Time, &fieldID, &value)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_responses.scan")
		}

		last := len(responses) - 1
		if last < 0 || responses[last].ID != r.ID {
			r.Answers = []model.Answer{}
			responses = append(responses, r)
			last++
		}
		if fieldID == nil {
			// response without answers
			continue
		}

		a := model.Answer{FieldID: *fieldID}
		if err = json.Unmarshal([]byte(*value), &a.Value); err != nil {
			return nil, errors.Wrap(err, "db.get_responses.parse_value")
		}
		responses[last].Answers = append(responses[last].Answers, a)
	}
	return responses, errors.Wrap(rows.Err(), "db.get_responses.next")
}
