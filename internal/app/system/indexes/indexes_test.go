package indexes

import (
	"errors"
	"testing"

	"github.com/dalemusser/mealplanner/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func TestKeySig(t *testing.T) {
	got := keySig(bson.D{{Key: "family_id", Value: 1}, {Key: "email", Value: -1}})
	if got != "family_id:1, email:-1" {
		t.Errorf("keySig = %q", got)
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	if !isDuplicateKeyErr(mongo.CommandError{Code: 11000}) {
		t.Error("expected code 11000 to be a duplicate")
	}
	if !isDuplicateKeyErr(errors.New("E11000 duplicate key error collection")) {
		t.Error("expected E11000 text to be a duplicate")
	}
	if isDuplicateKeyErr(errors.New("connection refused")) || isDuplicateKeyErr(nil) {
		t.Error("unexpected duplicate")
	}
}

func emailIndex(name string, unique bool) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(name).SetUnique(unique),
	}
}

func indexByName(t *testing.T, coll *mongo.Collection, name string) bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err == nil && idx["name"] == name {
			return idx
		}
	}
	return nil
}

func TestEnsure_IdempotentAndRebuilds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("things")

	if err := Ensure(ctx, coll, []mongo.IndexModel{emailIndex("idx_email", false)}, zap.NewNop()); err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	if err := Ensure(ctx, coll, []mongo.IndexModel{emailIndex("idx_email", false)}, zap.NewNop()); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}

	// Upgrading to unique under a new name replaces the old index.
	if err := Ensure(ctx, coll, []mongo.IndexModel{emailIndex("uniq_email", true)}, zap.NewNop()); err != nil {
		t.Fatalf("upgrade Ensure: %v", err)
	}
	if indexByName(t, coll, "idx_email") != nil {
		t.Error("expected old index to be dropped")
	}
	idx := indexByName(t, coll, "uniq_email")
	if idx == nil || idx["unique"] != true {
		t.Errorf("expected unique index, got %v", idx)
	}
}

func TestEnsure_UniqueWithDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	coll := db.Collection("things")

	for i := 0; i < 2; i++ {
		if _, err := coll.InsertOne(ctx, bson.M{"email": "same@example.com"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := Ensure(ctx, coll, []mongo.IndexModel{emailIndex("uniq_email", true)}, nil); err == nil {
		t.Error("expected error when duplicates block a unique index")
	}
}
