package model

import "time"

type FieldType string

const (
	ShortText               FieldType = "short-text"
	LongText                FieldType = "long-text"
	Number                  FieldType = "number"
	MultiOptionSingleAnswer FieldType = "multioption-singleanswer"
	MultiOptionMultiAnswer  FieldType = "multioption-multianswer"
	File                    FieldType = "file"
)

type InstanceStatus string

const (
	Open   InstanceStatus = "open"
	Closed InstanceStatus = "closed"
)

type Instance struct {
	ID          int64          `json:"-"`
	Hash        string         `json:"hash"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       string         `json:"owner,omitempty"`
	Status      InstanceStatus `json:"status"`
	Created     time.Time      `json:"created"`
}

// Participant is a member of an instance roster. The password is only kept
// as a hash and never leaves the store.
type Participant struct {
	ID         int64     `json:"-"`
	InstanceID int64     `json:"-"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Source     string    `json:"source"`
	Created    time.Time `json:"created"`
}

// Skeleton is a form definition. Fields are kept in presentation order.
type Skeleton struct {
	ID          int64   `json:"id,omitempty"`
	InstanceID  int64   `json:"-"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	EndMessage  string  `json:"endMessage"`
	Fields      []Field `json:"fields"`
}

type Field struct {
	ID         int64     `json:"id,omitempty"`
	SkeletonID int64     `json:"-"`
	Position   int       `json:"-"`
	Title      string    `json:"title"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	Options    []string  `json:"options,omitempty"`
	Accepted   []string  `json:"accepted,omitempty"`
}

// Answer is a validated value bound to a field. Value is a string for text
// fields, a float64 for numbers, a string or []string for choice fields and
// a FileRef for file fields.
type Answer struct {
	FieldID int64 `json:"id"`
	Value   any   `json:"value"`
}

type FileRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

type Response struct {
	ID         int64     `json:"id"`
	SkeletonID int64     `json:"-"`
	Time       time.Time `json:"time"`
	Answers    []Answer  `json:"answers"`
}
