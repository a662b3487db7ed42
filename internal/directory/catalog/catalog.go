// Package catalog serves the resource directory from a YAML file, for
// deployments that keep staff and rooms outside the database.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gymflow/backend/internal/domain"
	"gymflow/backend/internal/store"
)

type File struct {
	TrainingTypes []domain.TrainingType `yaml:"training_types"`
	Trainers      []domain.Trainer      `yaml:"trainers"`
	Locations     []domain.Location     `yaml:"locations"`
}

// Directory is an immutable in-memory ResourceDirectory.
type Directory struct {
	trainingTypes map[string]domain.TrainingType
	trainers      map[string]domain.Trainer
	locations     map[string]domain.Location
}

func Load(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Directory, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f)
}

func New(f File) (*Directory, error) {
	d := &Directory{
		trainingTypes: make(map[string]domain.TrainingType, len(f.TrainingTypes)),
		trainers:      make(map[string]domain.Trainer, len(f.Trainers)),
		locations:     make(map[string]domain.Location, len(f.Locations)),
	}
	for _, tt := range f.TrainingTypes {
		id := strings.TrimSpace(tt.ID)
		if id == "" {
			return nil, fmt.Errorf("training type %q: id is required", tt.Name)
		}
		if _, ok := d.trainingTypes[id]; ok {
			return nil, fmt.Errorf("duplicate training type %q", id)
		}
		tt.ID = id
		d.trainingTypes[id] = tt
	}
	for _, t := range f.Trainers {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, fmt.Errorf("trainer %q: id is required", t.FullName)
		}
		if _, ok := d.trainers[id]; ok {
			return nil, fmt.Errorf("duplicate trainer %q", id)
		}
		t.ID = id
		d.trainers[id] = t
	}
	for _, l := range f.Locations {
		id := strings.TrimSpace(l.ID)
		if id == "" {
			return nil, fmt.Errorf("location %q: id is required", l.Name)
		}
		if _, ok := d.locations[id]; ok {
			return nil, fmt.Errorf("duplicate location %q", id)
		}
		l.ID = id
		d.locations[id] = l
	}
	return d, nil
}

func (d *Directory) ResolveTrainingType(_ context.Context, id string) (domain.TrainingType, error) {
	tt, ok := d.trainingTypes[id]
	if !ok {
		return domain.TrainingType{}, store.ErrNotFound
	}
	return tt, nil
}

func (d *Directory) ResolveTrainer(_ context.Context, id string) (domain.Trainer, error) {
	t, ok := d.trainers[id]
	if !ok {
		return domain.Trainer{}, store.ErrNotFound
	}
	return t, nil
}

func (d *Directory) ResolveLocation(_ context.Context, id string) (domain.Location, error) {
	l, ok := d.locations[id]
	if !ok {
		return domain.Location{}, store.ErrNotFound
	}
	return l, nil
}
