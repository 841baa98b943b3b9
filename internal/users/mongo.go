package users

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository using a MongoDB collection.
// Every write is a single FindOneAndUpdate/UpdateOne so concurrent writers to
// the same uid can interleave but never expose a partial document.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a repository for the given collection and
// ensures the unique uid index exists.
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepository{col: col}
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// insertDefaults builds the $setOnInsert document for lazy record creation.
func insertDefaults(uid string, seed Seed, now time.Time) bson.M {
	return bson.M{
		"uid":         uid,
		"email":       seed.Email,
		"displayName": seed.DisplayName,
		"preferences": DefaultPreferences(),
		"readHistory": []HistoryEntry{},
		"lastLogin":   now,
		"createdAt":   now,
		"updatedAt":   now,
	}
}

func (r *MongoRepository) FindByUID(ctx context.Context, uid string) (*User, error) {
	var u User
	if err := r.col.FindOne(ctx, bson.M{"uid": uid}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *MongoRepository) FindOrCreate(ctx context.Context, uid string, seed Seed) (*User, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": insertDefaults(uid, seed, now)}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"uid": uid}, update, opts).Decode(&u); err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *MongoRepository) TouchLogin(ctx context.Context, uid string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"uid": uid}, bson.M{"$set": bson.M{"lastLogin": time.Now().UTC()}})
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *MongoRepository) UpsertProfileFields(ctx context.Context, uid string, seed Seed, fields ProfileUpdate) (*User, error) {
	now := time.Now().UTC()
	set := bson.M{"lastLogin": now, "updatedAt": now}
	if fields.DisplayName != nil {
		set["displayName"] = *fields.DisplayName
	}
	if fields.PhotoURL != nil {
		set["photoURL"] = *fields.PhotoURL
	}
	soi := insertDefaults(uid, seed, now)
	// $set and $setOnInsert must not share a path
	for k := range set {
		delete(soi, k)
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"uid": uid}, bson.M{"$set": set, "$setOnInsert": soi}, opts).Decode(&u); err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *MongoRepository) ReplacePreferences(ctx context.Context, uid string, email string, prefs Preferences) (*User, error) {
	now := time.Now().UTC()
	set := bson.M{
		"preferences": prefs,
		"email":       email,
		"lastLogin":   now,
		"updatedAt":   now,
	}
	soi := insertDefaults(uid, Seed{Email: email}, now)
	for k := range set {
		delete(soi, k)
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"uid": uid}, bson.M{"$set": set, "$setOnInsert": soi}, opts).Decode(&u); err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *MongoRepository) PatchPreferences(ctx context.Context, uid string, patch PreferencesPatch) (*User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Categories != nil {
		set["preferences.categories"] = *patch.Categories
	}
	if patch.DigestFrequency != nil {
		set["preferences.digestFrequency"] = *patch.DigestFrequency
	}
	if patch.NotificationsEnabled != nil {
		set["preferences.notificationsEnabled"] = *patch.NotificationsEnabled
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"uid": uid}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *MongoRepository) AppendHistory(ctx context.Context, uid string, seed Seed, digestID string) ([]HistoryEntry, error) {
	now := time.Now().UTC()
	entry := HistoryEntry{DigestID: digestID, ReadAt: now}

	// Guarded push: matches only when the digest is not yet in the history,
	// so the duplicate check and the append are one atomic update.
	filter := bson.M{"uid": uid, "readHistory.digestId": bson.M{"$ne": digestID}}
	update := bson.M{"$push": bson.M{"readHistory": entry}, "$set": bson.M{"updatedAt": now}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, storeErr(err)
	}
	if res.ModifiedCount > 0 {
		return r.GetHistory(ctx, uid)
	}

	// No match: either the record is absent (create it with the entry) or the
	// digest was already read (return the history unchanged).
	soi := insertDefaults(uid, seed, now)
	soi["readHistory"] = []HistoryEntry{entry}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"uid": uid}, bson.M{"$setOnInsert": soi}, opts).Decode(&u); err != nil {
		return nil, storeErr(err)
	}
	return u.ReadHistory, nil
}

func (r *MongoRepository) GetHistory(ctx context.Context, uid string) ([]HistoryEntry, error) {
	opts := options.FindOne().SetProjection(bson.M{"readHistory": 1})
	var u User
	if err := r.col.FindOne(ctx, bson.M{"uid": uid}, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return []HistoryEntry{}, nil
		}
		return nil, storeErr(err)
	}
	if u.ReadHistory == nil {
		return []HistoryEntry{}, nil
	}
	return u.ReadHistory, nil
}
