package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/infrastructure/repository/entity"
	"whatsapp-launcher-core/internal/ports"
)

// MongoRepository implements Repository and StateRepository using MongoDB.
// Per-tenant serialization comes from single-document atomic operators;
// no extra locking is required.
type MongoRepository struct {
	installations *mongo.Collection
	configs       *mongo.Collection
	analytics     *mongo.Collection
	states        *mongo.Collection
}

// NewMongoRepository creates a MongoDB-backed store and ensures the
// supporting indexes.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	r := &MongoRepository{
		installations: db.Collection("installations"),
		configs:       db.Collection("whatsapp_configs"),
		analytics:     db.Collection("analytics"),
		states:        db.Collection("oauth_states"),
	}

	shopIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{r.installations, r.configs, r.analytics} {
		if _, err := coll.Indexes().CreateOne(ctx, shopIndex); err != nil {
			return nil, fmt.Errorf("%w: create shop index on %s: %v", domain.ErrPersistence, coll.Name(), err)
		}
	}

	stateIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nonce", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Let Mongo reap expired states on its own.
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := r.states.Indexes().CreateMany(ctx, stateIndexes); err != nil {
		return nil, fmt.Errorf("%w: create state indexes: %v", domain.ErrPersistence, err)
	}

	return r, nil
}

// SaveInstallation upserts the installation keyed by shop.
func (r *MongoRepository) SaveInstallation(ctx context.Context, inst *domain.Installation) error {
	doc := entity.MongoInstallationDocFromDomain(inst)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": inst.Shop}
	update := bson.M{"$set": doc}

	if _, err := r.installations.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("%w: save installation: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetInstallation returns (nil, nil) when the shop is not installed.
func (r *MongoRepository) GetInstallation(ctx context.Context, shop string) (*domain.Installation, error) {
	var doc entity.MongoInstallationDoc
	err := r.installations.FindOne(ctx, bson.M{"shop": shop}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get installation: %v", domain.ErrPersistence, err)
	}
	return doc.ToDomain(), nil
}

// DeleteInstallation removes the installation and cascade-deletes the
// shop's config and analytics. Idempotent: absent documents are fine.
func (r *MongoRepository) DeleteInstallation(ctx context.Context, shop string) error {
	filter := bson.M{"shop": shop}
	for _, coll := range []*mongo.Collection{r.installations, r.configs, r.analytics} {
		if _, err := coll.DeleteOne(ctx, filter); err != nil {
			return fmt.Errorf("%w: cascade delete %s: %v", domain.ErrPersistence, coll.Name(), err)
		}
	}
	return nil
}

// SaveWidgetConfig upserts the config after confirming an installation
// exists for the shop.
func (r *MongoRepository) SaveWidgetConfig(ctx context.Context, cfg *domain.WidgetConfig) error {
	if err := r.requireInstallation(ctx, cfg.Shop); err != nil {
		return err
	}

	doc := entity.MongoWidgetConfigDocFromDomain(cfg)
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": cfg.Shop}
	update := bson.M{"$set": doc}

	if _, err := r.configs.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("%w: save widget config: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetWidgetConfig returns (nil, nil) when the shop has no config.
func (r *MongoRepository) GetWidgetConfig(ctx context.Context, shop string) (*domain.WidgetConfig, error) {
	var doc entity.MongoWidgetConfigDoc
	err := r.configs.FindOne(ctx, bson.M{"shop": shop}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get widget config: %v", domain.ErrPersistence, err)
	}
	return doc.ToDomain(), nil
}

// IncrementWidgetClick bumps the counter in a single atomic update;
// first_click is set only when the document is created.
func (r *MongoRepository) IncrementWidgetClick(ctx context.Context, shop string) error {
	if err := r.requireInstallation(ctx, shop); err != nil {
		return err
	}

	now := time.Now().UTC()
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": shop}
	update := bson.M{
		"$inc":         bson.M{"widget_clicks": 1},
		"$set":         bson.M{"last_click": now},
		"$setOnInsert": bson.M{"shop": shop, "first_click": now},
	}

	if _, err := r.analytics.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("%w: increment widget click: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetAnalytics returns (nil, nil) when no clicks have been recorded.
func (r *MongoRepository) GetAnalytics(ctx context.Context, shop string) (*domain.Analytics, error) {
	var doc entity.MongoAnalyticsDoc
	err := r.analytics.FindOne(ctx, bson.M{"shop": shop}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get analytics: %v", domain.ErrPersistence, err)
	}
	return doc.ToDomain(), nil
}

// SaveState stores an OAuth state; the TTL index reaps it if never
// consumed.
func (r *MongoRepository) SaveState(ctx context.Context, state *domain.OAuthState) error {
	doc := entity.MongoOAuthStateDocFromDomain(state)
	if _, err := r.states.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: save oauth state: %v", domain.ErrPersistence, err)
	}
	return nil
}

// ConsumeState fetches and deletes the state in one FindOneAndDelete, so a
// replayed nonce finds nothing. Expired-but-unreaped states count as
// absent.
func (r *MongoRepository) ConsumeState(ctx context.Context, nonce string) (*domain.OAuthState, error) {
	var doc entity.MongoOAuthStateDoc
	err := r.states.FindOneAndDelete(ctx, bson.M{"nonce": nonce}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: consume oauth state: %v", domain.ErrPersistence, err)
	}

	state := doc.ToDomain()
	if state.Expired(time.Now()) {
		return nil, nil
	}
	return state, nil
}

// Close is a no-op; the mongo client lifecycle belongs to the caller.
func (r *MongoRepository) Close(_ context.Context) error {
	return nil
}

func (r *MongoRepository) requireInstallation(ctx context.Context, shop string) error {
	count, err := r.installations.CountDocuments(ctx, bson.M{"shop": shop}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("%w: check installation: %v", domain.ErrPersistence, err)
	}
	if count == 0 {
		return domain.ErrUnknownTenant
	}
	return nil
}

var (
	_ ports.Repository      = (*MongoRepository)(nil)
	_ ports.StateRepository = (*MongoRepository)(nil)
)
