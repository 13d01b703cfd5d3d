package models

import "time"

type Document struct {
	ID         string
	OwnerID    string
	FileName   string
	StorageKey string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
