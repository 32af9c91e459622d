package types

import (
	"context"
	"time"
)

// BaseModel is a base model for all domain models that need to be persisted
// in the database. Any changes to this model should be reflected in the
// database schema.
type BaseModel struct {
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      GetUserID(ctx),
		LastModifiedBy: GetUserID(ctx),
	}
}
