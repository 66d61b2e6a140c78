package domain

import "time"

// UnsavedID marks a record the server has not assigned an id to yet.
const UnsavedID int64 = -1

// Entity is implemented by every record managed through the admin API.
type Entity interface {
	EntityID() int64
	DisplayName() string
}

// Timestamped records carry server-assigned creation and update times.
type Timestamped interface {
	Times() (created, updated time.Time)
}
