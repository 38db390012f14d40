package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type identityDoc struct {
	ObjectID      primitive.ObjectID `bson:"_id,omitempty"`
	ID            string             `bson:"id"`
	IdentityKey   string             `bson:"identity_key"`
	DisplayName   string             `bson:"name"`
	FeatureVector []float32          `bson:"feature_vector"`
	Strategy      string             `bson:"strategy"`
	Dim           int                `bson:"dim"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (d *identityDoc) toIdentity() database.Identity {
	return database.Identity{
		ID:            d.ID,
		IdentityKey:   d.IdentityKey,
		DisplayName:   d.DisplayName,
		FeatureVector: d.FeatureVector,
		Strategy:      d.Strategy,
		Dim:           d.Dim,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

type attendanceDoc struct {
	ID          string             `bson:"_id"`
	IdentityKey string             `bson:"identity_key"`
	Timestamp   time.Time          `bson:"ts"`
	Method      string             `bson:"method"`
	Location    *database.Location `bson:"location,omitempty"`
	Verified    bool               `bson:"verified"`
	Confidence  float64            `bson:"confidence"`
	Score       float64            `bson:"score"`
}

func (d *attendanceDoc) toEvent() database.AttendanceEvent {
	return database.AttendanceEvent{
		ID:          d.ID,
		IdentityKey: d.IdentityKey,
		Timestamp:   d.Timestamp.UTC(),
		Method:      d.Method,
		Location:    d.Location,
		Verified:    d.Verified,
		Confidence:  d.Confidence,
		Score:       d.Score,
	}
}

// GetIdentity returns nil when the key is not enrolled.
func (s *Store) GetIdentity(ctx context.Context, key string) (*database.Identity, error) {
	var doc identityDoc
	err := s.users.FindOne(ctx, bson.D{{Key: "identity_key", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get identity", err)
	}
	id := doc.toIdentity()
	return &id, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, classify("list identities", err)
	}
	defer cur.Close(ctx)

	var out []database.Identity
	for cur.Next(ctx) {
		var doc identityDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode identity: %w", err)
		}
		out = append(out, doc.toIdentity())
	}
	if err := cur.Err(); err != nil {
		return nil, classify("iterate identities", err)
	}
	return out, nil
}

func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, classify("count identities", err)
	}
	return int(n), nil
}

// CreateIdentity relies on the unique index on identity_key.
func (s *Store) CreateIdentity(ctx context.Context, id *database.Identity) error {
	_, err := s.users.InsertOne(ctx, identityDoc{
		ID:            id.ID,
		IdentityKey:   id.IdentityKey,
		DisplayName:   id.DisplayName,
		FeatureVector: id.FeatureVector,
		Strategy:      id.Strategy,
		Dim:           id.Dim,
		CreatedAt:     id.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert identity %q: %w", id.IdentityKey, database.ErrDuplicateKey)
	}
	return classify("insert identity", err)
}

// AppendAttendance checks the identity exists first; MongoDB has no
// foreign keys.
func (s *Store) AppendAttendance(ctx context.Context, ev *database.AttendanceEvent) error {
	n, err := s.users.CountDocuments(ctx, bson.D{{Key: "identity_key", Value: ev.IdentityKey}}, options.Count().SetLimit(1))
	if err != nil {
		return classify("insert attendance", err)
	}
	if n == 0 {
		return fmt.Errorf("insert attendance: unknown identity %q", ev.IdentityKey)
	}

	_, err = s.attendance.InsertOne(ctx, attendanceDoc{
		ID:          ev.ID,
		IdentityKey: ev.IdentityKey,
		Timestamp:   ev.Timestamp.UTC(),
		Method:      ev.Method,
		Location:    ev.Location,
		Verified:    ev.Verified,
		Confidence:  ev.Confidence,
		Score:       ev.Score,
	})
	return classify("insert attendance", err)
}

func (s *Store) findAttendance(ctx context.Context, op string, filter bson.D, opts *options.FindOptions) ([]database.AttendanceEvent, error) {
	cur, err := s.attendance.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(op, err)
	}
	defer cur.Close(ctx)

	var out []database.AttendanceEvent
	for cur.Next(ctx) {
		var doc attendanceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode attendance: %w", err)
		}
		out = append(out, doc.toEvent())
	}
	if err := cur.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (s *Store) RecentAttendance(ctx context.Context, limit int) ([]database.AttendanceEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return s.findAttendance(ctx, "recent attendance", bson.D{}, opts)
}

func (s *Store) AttendanceSince(ctx context.Context, since time.Time) ([]database.AttendanceEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}, {Key: "_id", Value: 1}})
	filter := bson.D{{Key: "ts", Value: bson.D{{Key: "$gte", Value: since.UTC()}}}}
	return s.findAttendance(ctx, "attendance since", filter, opts)
}
