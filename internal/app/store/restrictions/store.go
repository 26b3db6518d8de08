// Package restrictionstore persists each family's submitted member slots as
// <family_id>/member_restrictions.json in a storage.Store, the input the
// refresh worker uses to rebuild prompts.
package restrictionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
)

// FileName is the restriction document inside each family folder.
const FileName = "member_restrictions.json"

// PlanIndex answers whether a family already has a stored plan. LoadAll
// uses it to skip families whose provisioning never produced one.
type PlanIndex interface {
	HasVersions(ctx context.Context, familyID string) (bool, error)
}

// Store reads and writes restriction records in one object store, shared
// with the plan documents.
type Store struct {
	objects storage.Store
}

// New returns a Store over objects.
func New(objects storage.Store) *Store {
	return &Store{objects: objects}
}

func key(familyID string) string {
	return familyID + "/" + FileName
}

// Save writes rec as the restriction record of familyID, replacing any
// previous record. rec.FamilyID is set to familyID.
func (s *Store) Save(ctx context.Context, familyID string, rec models.RestrictionRecord) error {
	const op = "restrictions.save"

	if !models.ValidFamilyID(familyID) {
		return apperr.Validation(op, "invalid family_id")
	}
	rec.FamilyID = familyID

	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	opts := &storage.PutOptions{ContentType: "application/json"}
	if err := s.objects.PutBytes(ctx, key(familyID), data, opts); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	return nil
}

// Load returns the restriction record of familyID.
func (s *Store) Load(ctx context.Context, familyID string) (models.RestrictionRecord, error) {
	const op = "restrictions.load"

	if !models.ValidFamilyID(familyID) {
		return models.RestrictionRecord{}, apperr.New(apperr.KindNotFound, op, "restrictions not found")
	}
	data, err := s.objects.GetBytes(ctx, key(familyID))
	if errors.Is(err, storage.ErrNotFound) {
		return models.RestrictionRecord{}, apperr.New(apperr.KindNotFound, op, "restrictions not found")
	}
	if err != nil {
		return models.RestrictionRecord{}, apperr.Wrap(apperr.KindPersistence, op, err)
	}

	var rec models.RestrictionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.RestrictionRecord{}, apperr.Wrap(apperr.KindPersistence, op, err)
	}
	rec.FamilyID = familyID
	return rec, nil
}

// LoadAll returns the record of every family prefix that holds both a
// restriction record and at least one plan version, ordered by family id.
// Families missing either are skipped silently. Records that cannot be read
// are skipped too; their failures come back joined in the error alongside
// the records that did load.
func (s *Store) LoadAll(ctx context.Context, plans PlanIndex) ([]models.RestrictionRecord, error) {
	const op = "restrictions.loadall"

	res, err := s.objects.List(ctx, "", &storage.ListOptions{Delimiter: "/"})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, op, err)
	}

	ids := make([]string, 0, len(res.CommonPrefixes))
	for _, p := range res.CommonPrefixes {
		id := strings.TrimSuffix(p, "/")
		if models.ValidFamilyID(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var (
		out  []models.RestrictionRecord
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		rec, err := s.Load(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("family %s: %w", id, err))
			continue
		}

		ok, err := plans.HasVersions(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("family %s: %w", id, err))
			continue
		}
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}
