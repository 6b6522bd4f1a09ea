package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// CollectionName is the MongoDB collection holding user documents.
const CollectionName = "users"

const (
	usernameIndex = "users_username_key"
	googleIDIndex = "users_google_id_key"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Username     *string   `bson:"username,omitempty"`
	PasswordHash *string   `bson:"password_hash,omitempty"`
	GoogleID     *string   `bson:"google_id,omitempty"`
	Secret       *string   `bson:"secret,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDocument(u *User) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		Secret:       u.Secret,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d *userDocument) toUser() (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing user id %q: %w", d.ID, err)
	}
	return &User{
		ID:           id,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
		Secret:       d.Secret,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

// MongoRepository implements Repository on a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a Repository backed by the users collection of db.
// Call EnsureIndexes before serving traffic.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique partial indexes on username and google_id.
// FindOrCreate relies on the google_id index for atomicity.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName(usernameIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().
				SetName(googleIDIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"google_id": bson.M{"$type": "string"}}),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}
	return nil
}

func mapDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	switch {
	case strings.Contains(err.Error(), usernameIndex):
		return ErrUsernameTaken
	case strings.Contains(err.Error(), googleIDIndex):
		return ErrGoogleIDTaken
	}
	return err
}

func keyFilter(key Key) (bson.M, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}
	return bson.M{string(key.Field): key.Value}, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return doc.toUser()
}

// Create inserts a new user document.
func (r *MongoRepository) Create(ctx context.Context, u *User) error {
	if !u.Reachable() {
		return ErrUnreachable
	}

	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, toDocument(u)); err != nil {
		if mapped := mapDuplicateKey(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetByID retrieves a single user by its UUID.
func (r *MongoRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// Find retrieves a single user by a unique identity field.
func (r *MongoRepository) Find(ctx context.Context, key Key) (*User, error) {
	filter, err := keyFilter(key)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, filter)
}

// FindOrCreate upserts with $setOnInsert so an existing document is left
// untouched. Two racing upserts for the same key collide on the unique
// index; the loser gets a duplicate key error and reads the winner's document.
func (r *MongoRepository) FindOrCreate(ctx context.Context, key Key, build func() *User) (*User, bool, error) {
	filter, err := keyFilter(key)
	if err != nil {
		return nil, false, err
	}

	u := build()
	key.apply(u)
	if !u.Reachable() {
		return nil, false, ErrUnreachable
	}

	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now

	onInsert := bson.M{}
	raw, err := bson.Marshal(toDocument(u))
	if err != nil {
		return nil, false, fmt.Errorf("encoding user: %w", err)
	}
	if err := bson.Unmarshal(raw, &onInsert); err != nil {
		return nil, false, fmt.Errorf("encoding user: %w", err)
	}
	// The equality filter already seeds the key field on insert.
	delete(onInsert, string(key.Field))

	res, err := r.coll.UpdateOne(ctx, filter,
		bson.M{"$setOnInsert": onInsert},
		options.UpdateOne().SetUpsert(true),
	)
	created := false
	switch {
	case err == nil:
		created = res.UpsertedCount == 1
	case mongo.IsDuplicateKeyError(err):
	default:
		return nil, false, fmt.Errorf("upserting user by %s: %w", key.Field, err)
	}

	found, findErr := r.findOne(ctx, filter)
	if findErr != nil {
		if err != nil && errors.Is(findErr, ErrUserNotFound) {
			// The duplicate was on a different unique field.
			return nil, false, mapDuplicateKey(err)
		}
		return nil, false, findErr
	}
	return found, created, nil
}

// SetSecret overwrites the secret of the given user.
func (r *MongoRepository) SetSecret(ctx context.Context, id uuid.UUID, secret string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"secret": secret, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("updating secret: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListWithSecrets retrieves all users with a non-empty secret, ordered by creation time.
func (r *MongoRepository) ListWithSecrets(ctx context.Context) ([]User, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"secret": bson.M{"$nin": bson.A{nil, ""}}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("listing users with secrets: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding user documents: %w", err)
	}

	users := make([]User, 0, len(docs))
	for i := range docs {
		u, err := docs[i].toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// Ping verifies the MongoDB deployment is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
