package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
	"github.com/Sushant9818/SmartScheduling/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const therapistCollectionName = "therapist_profiles"

// mongoTherapistRepository implements repository.TherapistRepository.
// Availability blocks and time-off live as arrays inside the profile
// document, so every mutation is a single atomic document update.
type mongoTherapistRepository struct {
	collection *mongo.Collection
}

// NewMongoTherapistRepository creates a new Therapist repository backed by MongoDB.
func NewMongoTherapistRepository(db *mongo.Database) repository.TherapistRepository {
	return &mongoTherapistRepository{
		collection: db.Collection(therapistCollectionName),
	}
}

// Create inserts a new therapist profile.
func (r *mongoTherapistRepository) Create(ctx context.Context, profile *domain.TherapistProfile) (primitive.ObjectID, error) {
	if profile.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("therapist profile requires userId")
	}

	profile.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.Availability == nil {
		profile.Availability = []domain.AvailabilityBlock{}
	}
	if profile.TimeOff == nil {
		profile.TimeOff = []domain.TimeOff{}
	}

	result, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted profile ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves the profile for a therapist user.
func (r *mongoTherapistRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TherapistProfile, error) {
	var profile domain.TherapistProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// List retrieves every therapist profile.
func (r *mongoTherapistRepository) List(ctx context.Context) ([]domain.TherapistProfile, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []domain.TherapistProfile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// AddAvailabilityBlock appends a weekly availability block to the profile.
// The overlap invariant is checked by the service layer before this call.
func (r *mongoTherapistRepository) AddAvailabilityBlock(ctx context.Context, userID primitive.ObjectID, block domain.AvailabilityBlock) error {
	update := bson.M{
		"$push": bson.M{"availability": block},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAvailabilityBlock replaces an existing block in place, matched by its id.
func (r *mongoTherapistRepository) UpdateAvailabilityBlock(ctx context.Context, userID primitive.ObjectID, block domain.AvailabilityBlock) error {
	filter := bson.M{"userId": userID, "availability._id": block.ID}
	update := bson.M{
		"$set": bson.M{
			"availability.$": block,
			"updatedAt":      time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveAvailabilityBlock removes a block by id.
func (r *mongoTherapistRepository) RemoveAvailabilityBlock(ctx context.Context, userID, blockID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"availability": bson.M{"_id": blockID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	if result.ModifiedCount == 0 {
		return repository.ErrNotFound // profile exists but no such block
	}
	return nil
}

// AddTimeOff appends a time-off interval to the profile.
func (r *mongoTherapistRepository) AddTimeOff(ctx context.Context, userID primitive.ObjectID, off domain.TimeOff) error {
	update := bson.M{
		"$push": bson.M{"timeOff": off},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveTimeOff removes a time-off interval by id.
func (r *mongoTherapistRepository) RemoveTimeOff(ctx context.Context, userID, timeOffID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"timeOff": bson.M{"_id": timeOffID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	if result.ModifiedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTherapistIndexes creates necessary indexes for the therapist_profiles collection.
func EnsureTherapistIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
