// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"os"

	credentialstore "github.com/dalemusser/mealplanner/internal/app/store/credentials"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"github.com/dalemusser/mealplanner/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client when accounts live in Mongo. The file
// backend needs no connection and gets empty DBDeps.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	if appCfg.CredentialBackend != BackendMongo {
		return DBDeps{}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the storage roots and, for Mongo, the accounts
// collection with its validator and indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	for _, dir := range []string{appCfg.DataDir, appCfg.MealPlansDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("create storage directory failed", zap.String("dir", dir), zap.Error(err))
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if deps.MongoDatabase != nil {
		if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
			logger.Error("account validator setup failed", zap.Error(err))
			return fmt.Errorf("ensure account validator: %w", err)
		}
		if err := credentialstore.NewMongoStore(deps.MongoDatabase).EnsureIndexes(ctx, logger); err != nil {
			logger.Error("account index creation failed", zap.Error(err))
			return fmt.Errorf("ensure account indexes: %w", err)
		}
	}
	return nil
}
