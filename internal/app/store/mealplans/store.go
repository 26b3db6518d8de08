// Package mealplanstore persists generated meal plans as numbered JSON
// documents keyed <family_id>/<N>.json in a storage.Store.
//
// Version numbers are chosen by probing from 1 upward for the first free
// slot, so a deleted version is reused before the sequence grows. Existing
// documents are never overwritten. Readers are pinned to slot 1.
package mealplanstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/fsutil"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
)

// PrimaryVersion is the slot served to readers.
const PrimaryVersion = 1

// maxProbe caps the version search so a corrupted namespace cannot loop forever.
const maxProbe = 100000

// Store reads and writes plan documents in one object store (the
// meal_plans directory in production).
type Store struct {
	objects storage.Store
	mu      sync.Mutex // serializes Save within the process
}

// New returns a Store over objects.
func New(objects storage.Store) *Store {
	return &Store{objects: objects}
}

func key(familyID string, version int) string {
	return familyID + "/" + strconv.Itoa(version) + ".json"
}

// Save writes doc, byte for byte, as the lowest unused version for familyID
// and returns where it landed.
func (s *Store) Save(ctx context.Context, familyID string, doc []byte) (models.PlanVersion, error) {
	const op = "planstore.save"

	if !models.ValidFamilyID(familyID) {
		return models.PlanVersion{}, apperr.Validation(op, "invalid family_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for v := PrimaryVersion; v <= maxProbe; v++ {
		if err := ctx.Err(); err != nil {
			return models.PlanVersion{}, apperr.Wrap(apperr.KindPersistence, op, err)
		}
		k := key(familyID, v)
		where, err := s.create(ctx, k, doc)
		if err == nil {
			return models.PlanVersion{FamilyID: familyID, Version: v, Path: where}, nil
		}
		if errors.Is(err, storage.ErrAlreadyExists) {
			continue
		}
		return models.PlanVersion{}, apperr.Wrap(apperr.KindPersistence, op, err)
	}
	return models.PlanVersion{}, apperr.New(apperr.KindPersistence, op, "no free plan version")
}

// create stores doc under k only if k is free and returns where it landed.
// On local disk the file is opened with O_EXCL so another process writing
// the same slot cannot be overwritten; Local.Put checks existence with a
// stat before renaming, which leaves a window.
func (s *Store) create(ctx context.Context, k string, doc []byte) (string, error) {
	local, ok := s.objects.(*storage.Local)
	if !ok {
		err := s.objects.PutBytes(ctx, k, doc, &storage.PutOptions{
			ContentType: "application/json",
			IfNotExists: true,
		})
		return k, err
	}

	full, err := local.GetFullPath(k)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	err = fsutil.CreateExclusive(full, doc, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", storage.ErrAlreadyExists
	}
	return full, err
}

// Load returns the raw document stored at version.
func (s *Store) Load(ctx context.Context, familyID string, version int) ([]byte, error) {
	const op = "planstore.load"

	if !models.ValidFamilyID(familyID) {
		// An id that cannot name a folder cannot have a plan either.
		return nil, apperr.New(apperr.KindNotFound, op, "Meal plan not found for the given family ID.")
	}
	data, err := s.objects.GetBytes(ctx, key(familyID, version))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, op, "Meal plan not found for the given family ID.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, op, err)
	}
	return data, nil
}

// LoadPrimary returns the document in slot 1.
func (s *Store) LoadPrimary(ctx context.Context, familyID string) ([]byte, error) {
	return s.Load(ctx, familyID, PrimaryVersion)
}

// Versions lists the version numbers present for familyID in ascending order.
// A family with no documents has no versions.
func (s *Store) Versions(ctx context.Context, familyID string) ([]int, error) {
	const op = "planstore.versions"

	if !models.ValidFamilyID(familyID) {
		return nil, apperr.Validation(op, "invalid family_id")
	}
	res, err := s.objects.List(ctx, familyID+"/", &storage.ListOptions{Delimiter: "/"})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, op, err)
	}

	var out []int
	for _, obj := range res.Objects {
		if path.Dir(obj.Path) != familyID {
			continue
		}
		stem, ok := strings.CutSuffix(path.Base(obj.Path), ".json")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(stem)
		if err != nil || v < PrimaryVersion || strconv.Itoa(v) != stem {
			continue
		}
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}

// HasVersions reports whether at least one plan version exists for familyID.
func (s *Store) HasVersions(ctx context.Context, familyID string) (bool, error) {
	vs, err := s.Versions(ctx, familyID)
	if err != nil {
		return false, err
	}
	return len(vs) > 0, nil
}
