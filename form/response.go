package form

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/model"
)

type Responses struct {
	repo    Repository
	answers *AnswerValidator
}

func NewResponses(repo Repository, answers *AnswerValidator) *Responses {
	return &Responses{repo: repo, answers: answers}
}

// ValidateSubmission checks the submitted answers against every field of the
// skeleton. Errors about the submitted list itself (unknown or repeated
// ids) carry the index of the offending answer; errors about a field carry
// its id and title. All failures are collected; the error is a *multierror.Error
// whose members are *ValidationError, unless a collaborator failed, in which
// case that error is returned alone.
func (v *AnswerValidator) ValidateSubmission(ctx context.Context, sk model.Skeleton, submitted []model.Answer) ([]model.Answer, error) {
	var errs *multierror.Error

	values := make(map[int64]any, len(submitted))
	for i, a := range submitted {
		if indexOf(sk, a.FieldID) < 0 {
			errs = multierror.Append(errs, notFound(a.FieldID).at(i))
			continue
		}
		if _, dup := values[a.FieldID]; dup {
			errs = multierror.Append(errs, invalid(ErrInvalidAnswerValue, "answered more than once").
				about(fieldRef{id: a.FieldID}).at(i))
			continue
		}
		values[a.FieldID] = a.Value
	}

	answers := make([]model.Answer, 0, len(sk.Fields))
	for _, f := range sk.Fields {
		answer, err := v.ValidateAnswer(ctx, f, values[f.ID])
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			errs = multierror.Append(errs, ve)
		case err != nil:
			return nil, err
		case answer != nil:
			answers = append(answers, *answer)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return answers, nil
}

// Submit validates a submission and stores it as a new response. Nothing is
// stored unless every answer is valid.
func (r *Responses) Submit(ctx context.Context, skeletonID int64, submitted []model.Answer) (model.Response, error) {
	sk, err := r.repo.Skeleton(ctx, skeletonID)
	if err != nil {
		return model.Response{}, err
	}

	answers, err := r.answers.ValidateSubmission(ctx, sk, submitted)
	if err != nil {
		return model.Response{}, err
	}

	resp := model.Response{
		SkeletonID: skeletonID,
		Time:       time.Now().UTC(),
		Answers:    answers,
	}
	err = r.repo.Atomically(ctx, func(tx Tx) error {
		return tx.SaveResponse(ctx, &resp)
	})
	if err != nil {
		return model.Response{}, err
	}
	return resp, nil
}

// ValidationErrors flattens err into its validation errors. It returns nil if
// err holds anything else.
func ValidationErrors(err error) []*ValidationError {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*ValidationError
		for _, e := range merr.Errors {
			ve, ok := e.(*ValidationError)
			if !ok {
				return nil
			}
			out = append(out, ve)
		}
		return out
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}
