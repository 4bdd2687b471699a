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

const sessionCollectionName = "sessions"

// mongoSessionRepository implements repository.SessionRepository.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new session. A duplicate-key violation of the partial
// uniqueness index on (therapistId, start, end) for scheduled sessions is
// mapped to repository.ErrConflict, turning a lost booking race into a
// visible conflict instead of a silent double-booking.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	if session.TherapistID == primitive.NilObjectID || session.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires therapistId and clientId")
	}
	if !session.End.After(session.Start) {
		return primitive.NilObjectID, errors.New("session end must be after start")
	}

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = domain.SessionScheduled
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// overlapFilter builds the canonical half-open overlap query: an existing
// non-cancelled session conflicts iff existing.start < end && existing.end > start.
func overlapFilter(party string, partyID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) bson.M {
	filter := bson.M{
		party:    partyID,
		"status": bson.M{"$ne": domain.SessionCancelled},
		"start":  bson.M{"$lt": end},
		"end":    bson.M{"$gt": start},
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return filter
}

// FindOverlappingForTherapist returns active sessions conflicting with the interval.
func (r *mongoSessionRepository) FindOverlappingForTherapist(ctx context.Context, therapistID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.Session, error) {
	return r.findOverlapping(ctx, overlapFilter("therapistId", therapistID, start, end, excludeID))
}

// FindOverlappingForClient returns active sessions conflicting with the interval.
func (r *mongoSessionRepository) FindOverlappingForClient(ctx context.Context, clientID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.Session, error) {
	return r.findOverlapping(ctx, overlapFilter("clientId", clientID, start, end, excludeID))
}

func (r *mongoSessionRepository) findOverlapping(ctx context.Context, filter bson.M) ([]domain.Session, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListForTherapist returns all sessions for a therapist, ordered by start.
func (r *mongoSessionRepository) ListForTherapist(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Session, error) {
	return r.list(ctx, bson.M{"therapistId": therapistID})
}

// ListForClient returns all sessions for a client, ordered by start.
func (r *mongoSessionRepository) ListForClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Session, error) {
	return r.list(ctx, bson.M{"clientId": clientID})
}

func (r *mongoSessionRepository) list(ctx context.Context, filter bson.M) ([]domain.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateInterval moves a session to a new [start, end). Duplicate-key
// violations map to ErrConflict for the same reason as Create.
func (r *mongoSessionRepository) UpdateInterval(ctx context.Context, id primitive.ObjectID, start, end time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"start":     start,
			"end":       end,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStatus writes a new lifecycle status.
func (r *mongoSessionRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.SessionStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetAttachmentKey records the object key of an uploaded session document.
func (r *mongoSessionRepository) SetAttachmentKey(ctx context.Context, id primitive.ObjectID, objectKey string) error {
	update := bson.M{
		"$set": bson.M{
			"attachmentKey": objectKey,
			"updatedAt":     time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes for the sessions collection.
// The partial unique index is the last-resort guard of the booking race: two
// scheduled sessions can never share (therapistId, start, end).
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "therapistId", Value: 1}, {Key: "start", Value: 1}, {Key: "end", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.SessionScheduled}),
		},
		{
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "start", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
