package credentialstore

import (
	"context"
	"errors"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/indexes"
	"github.com/dalemusser/mealplanner/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection is the Mongo collection holding accounts.
const Collection = "accounts"

// MongoStore keeps one document per account. The unique index on email
// created by EnsureIndexes makes Create safe across processes.
type MongoStore struct {
	c *mongo.Collection
}

// NewMongoStore returns a store over db.accounts.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection(Collection)}
}

// EnsureIndexes creates the unique email index and the family lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context, logger *zap.Logger) error {
	return indexes.Ensure(ctx, s.c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "family_id", Value: 1}},
			Options: options.Index().SetName("idx_family_id"),
		},
	}, logger)
}

// ExistsDuplicate implements Store.
func (s *MongoStore) ExistsDuplicate(ctx context.Context, candidates []string) (bool, string, error) {
	lookup := make([]string, 0, len(candidates))
	for _, email := range candidates {
		if email != "" {
			lookup = append(lookup, email)
		}
	}
	if len(lookup) == 0 {
		return true, "", nil
	}

	cur, err := s.c.Find(ctx, bson.M{"email": bson.M{"$in": lookup}},
		options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return false, "", apperr.Wrap(apperr.KindPersistence, "credentials.exists", err)
	}
	defer cur.Close(ctx)

	taken := make(map[string]bool, len(lookup))
	for cur.Next(ctx) {
		var doc struct {
			Email string `bson:"email"`
		}
		if err := cur.Decode(&doc); err != nil {
			return false, "", apperr.Wrap(apperr.KindPersistence, "credentials.exists", err)
		}
		taken[doc.Email] = true
	}
	if err := cur.Err(); err != nil {
		return false, "", apperr.Wrap(apperr.KindPersistence, "credentials.exists", err)
	}

	// Report in submission order, not cursor order.
	for _, email := range lookup {
		if taken[email] {
			return false, email, nil
		}
	}
	return true, "", nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, email string) (models.Account, error) {
	var acct models.Account
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&acct)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, apperr.New(apperr.KindNotFound, "credentials.get", "account not found")
	}
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.KindPersistence, "credentials.get", err)
	}
	return acct, nil
}

// Create implements Store.
func (s *MongoStore) Create(ctx context.Context, acct models.Account) error {
	if acct.Email == "" {
		return apperr.Validation("credentials.create", "email is required")
	}
	if _, err := s.c.InsertOne(ctx, acct); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Duplicate("credentials.create", acct.Email)
		}
		return apperr.Wrap(apperr.KindPersistence, "credentials.create", err)
	}
	return nil
}

// FamilyMembers implements Store.
func (s *MongoStore) FamilyMembers(ctx context.Context, familyID string) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, bson.M{"family_id": familyID},
		options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "credentials.family", err)
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "credentials.family", err)
	}
	return out, nil
}
