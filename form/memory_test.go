package form

import (
	"context"
	"errors"
	"sort"

	"github.com/mbolis/quick-forms/model"
)

var errNoRow = errors.New("no row")

// memRepo keeps the aggregate in maps. Atomically works on a copy that is
// swapped in only when fn succeeds.
type memRepo struct {
	state   memState
	failAt  int // fail the n-th SaveField of the next transaction, 0 to disable
	commits int
}

type memState struct {
	nextID    int64
	skeletons map[int64]model.Skeleton
	fields    map[int64]model.Field
	responses map[int64]model.Response
}

func newMemRepo() *memRepo {
	return &memRepo{state: memState{
		skeletons: map[int64]model.Skeleton{},
		fields:    map[int64]model.Field{},
		responses: map[int64]model.Response{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		nextID:    s.nextID,
		skeletons: make(map[int64]model.Skeleton, len(s.skeletons)),
		fields:    make(map[int64]model.Field, len(s.fields)),
		responses: make(map[int64]model.Response, len(s.responses)),
	}
	for k, v := range s.skeletons {
		c.skeletons[k] = v
	}
	for k, v := range s.fields {
		c.fields[k] = v
	}
	for k, v := range s.responses {
		c.responses[k] = v
	}
	return c
}

func (s memState) skeleton(id int64) (model.Skeleton, error) {
	sk, ok := s.skeletons[id]
	if !ok {
		return model.Skeleton{}, errNoRow
	}
	sk.Fields = nil
	for _, f := range s.fields {
		if f.SkeletonID == id {
			sk.Fields = append(sk.Fields, f)
		}
	}
	sort.Slice(sk.Fields, func(i, j int) bool { return sk.Fields[i].Position < sk.Fields[j].Position })
	return sk, nil
}

func (r *memRepo) Skeleton(_ context.Context, id int64) (model.Skeleton, error) {
	return r.state.skeleton(id)
}

func (r *memRepo) Atomically(_ context.Context, fn func(Tx) error) error {
	tx := &memTx{state: r.state.clone(), failAt: r.failAt}
	r.failAt = 0
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx.state
	r.commits++
	return nil
}

type memTx struct {
	state  memState
	failAt int
	saves  int
}

func (tx *memTx) id() int64 {
	tx.state.nextID++
	return tx.state.nextID
}

func (tx *memTx) Skeleton(_ context.Context, id int64) (model.Skeleton, error) {
	return tx.state.skeleton(id)
}

func (tx *memTx) SaveSkeleton(_ context.Context, s *model.Skeleton) error {
	if s.ID == 0 {
		s.ID = tx.id()
	} else if _, ok := tx.state.skeletons[s.ID]; !ok {
		return errNoRow
	}
	stored := *s
	stored.Fields = nil
	tx.state.skeletons[s.ID] = stored
	return nil
}

func (tx *memTx) DeleteSkeleton(_ context.Context, id int64) error {
	if _, ok := tx.state.skeletons[id]; !ok {
		return errNoRow
	}
	delete(tx.state.skeletons, id)
	return nil
}

func (tx *memTx) SaveField(_ context.Context, f *model.Field) error {
	tx.saves++
	if tx.saves == tx.failAt {
		return errors.New("disk full")
	}
	if f.ID == 0 {
		f.ID = tx.id()
	}
	tx.state.fields[f.ID] = *f
	return nil
}

func (tx *memTx) DeleteField(_ context.Context, id int64) error {
	delete(tx.state.fields, id)
	for rid, resp := range tx.state.responses {
		kept := resp.Answers[:0:0]
		for _, a := range resp.Answers {
			if a.FieldID != id {
				kept = append(kept, a)
			}
		}
		resp.Answers = kept
		tx.state.responses[rid] = resp
	}
	return nil
}

func (tx *memTx) DeleteFields(ctx context.Context, skeletonID int64) error {
	for id, f := range tx.state.fields {
		if f.SkeletonID == skeletonID {
			tx.DeleteField(ctx, id)
		}
	}
	return nil
}

func (tx *memTx) CountAnswers(_ context.Context, fieldID int64) (int, error) {
	n := 0
	for _, resp := range tx.state.responses {
		for _, a := range resp.Answers {
			if a.FieldID == fieldID {
				n++
			}
		}
	}
	return n, nil
}

func (tx *memTx) SaveResponse(_ context.Context, r *model.Response) error {
	r.ID = tx.id()
	tx.state.responses[r.ID] = *r
	return nil
}
