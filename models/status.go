package models

// Status is the publication state shared by posts and comments.
type Status int

const (
	StatusDraft Status = iota
	StatusPublished
	StatusDeleted
)

func (s Status) Valid() bool {
	return s >= StatusDraft && s <= StatusDeleted
}

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPublished:
		return "published"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
