package domain

import (
	"slices"

	"github.com/uptrace/bun"
)

const RoleTrainer = "trainer"

type TrainingType struct {
	bun.BaseModel `bun:"table:training_types"`

	ID          string `bun:"id,pk" yaml:"id"`
	Name        string `bun:"name,notnull" yaml:"name"`
	Description string `bun:"description" yaml:"description"`
}

// Trainer is any staff identity that may be assigned to a session. Only
// identities holding the trainer role can lead one.
type Trainer struct {
	bun.BaseModel `bun:"table:trainers"`

	ID       string   `bun:"id,pk" yaml:"id"`
	FullName string   `bun:"full_name,notnull" yaml:"full_name"`
	Roles    []string `bun:"roles,array,notnull" yaml:"roles"`
}

func (t Trainer) IsTrainer() bool {
	return slices.Contains(t.Roles, RoleTrainer)
}

type Location struct {
	bun.BaseModel `bun:"table:locations"`

	ID       string `bun:"id,pk" yaml:"id"`
	Name     string `bun:"name,notnull" yaml:"name"`
	Capacity int    `bun:"capacity" yaml:"capacity"`
}
