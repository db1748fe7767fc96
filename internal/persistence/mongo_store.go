package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/stepform/pkg/api"
)

// MongoStore is a Store backed by MongoDB. Submissions live in one
// collection and parent back-references in another.
type MongoStore struct {
	submissions *mongo.Collection
	parents     *mongo.Collection
	now         func() time.Time
}

// Ensure it implements Store.
var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a Mongo-backed store.
// dbName defaults to "stepform" if empty.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	if dbName == "" {
		dbName = "stepform"
	}
	db := client.Database(dbName)
	return &MongoStore{
		submissions: db.Collection("submissions"),
		parents:     db.Collection("parents"),
		now:         time.Now,
	}
}

type mongoSubmissionDoc struct {
	ID          string            `bson:"_id"`
	WizardID    string            `bson:"wizard_id"`
	Title       string            `bson:"title"`
	ParentID    string            `bson:"parent_id"`
	Status      string            `bson:"status"`
	CurrentStep int               `bson:"current_step"`
	Token       string            `bson:"token"`
	Incomplete  bool              `bson:"incomplete"`
	Fields      map[string]string `bson:"fields"`
	CreatedAt   int64             `bson:"created_at"`
	UpdatedAt   int64             `bson:"updated_at"`
	CompletedAt int64             `bson:"completed_at"`
}

type mongoParentDoc struct {
	ID               string `bson:"_id"`
	RecentSubmission string `bson:"recent_submission"`
	LastCompletedAt  int64  `bson:"last_completed_at"`
}

// Field keys may contain '.' and '$', which Mongo treats as path syntax.
var (
	mongoKeyEscaper   = strings.NewReplacer("%", "%25", ".", "%2E", "$", "%24")
	mongoKeyUnescaper = strings.NewReplacer("%2E", ".", "%24", "$", "%25", "%")
)

func escapeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[mongoKeyEscaper.Replace(k)] = v
	}
	return out
}

func (d *mongoSubmissionDoc) toSubmission() *api.Submission {
	sub := &api.Submission{
		ID:          d.ID,
		WizardID:    d.WizardID,
		Title:       d.Title,
		ParentID:    d.ParentID,
		Status:      api.Status(d.Status),
		CurrentStep: d.CurrentStep,
		Token:       d.Token,
		Incomplete:  d.Incomplete,
		Fields:      make(map[string]string, len(d.Fields)),
		CreatedAt:   fromNanos(d.CreatedAt),
		UpdatedAt:   fromNanos(d.UpdatedAt),
		CompletedAt: fromNanos(d.CompletedAt),
	}
	for k, v := range d.Fields {
		sub.Fields[mongoKeyUnescaper.Replace(k)] = v
	}
	return sub
}

func (s *MongoStore) CreateSubmission(ctx context.Context, sub *api.Submission) error {
	created := sub.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	doc := mongoSubmissionDoc{
		ID:          sub.ID,
		WizardID:    sub.WizardID,
		Title:       sub.Title,
		ParentID:    sub.ParentID,
		Status:      string(sub.Status),
		CurrentStep: sub.CurrentStep,
		Token:       sub.Token,
		Incomplete:  sub.Incomplete,
		Fields:      escapeFields(sub.Fields),
		CreatedAt:   toNanos(created),
		UpdatedAt:   toNanos(created),
		CompletedAt: toNanos(sub.CompletedAt),
	}

	_, err := s.submissions.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSubmission
	}
	return err
}

func (s *MongoStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	var doc mongoSubmissionDoc
	err := s.submissions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return doc.toSubmission(), nil
}

func (s *MongoStore) ListSubmissions(ctx context.Context, opts api.SubmissionListOptions) ([]*api.Submission, error) {
	filter := bson.M{}
	if opts.WizardID != "" {
		filter["wizard_id"] = opts.WizardID
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.OnlyIncomplete {
		filter["incomplete"] = true
	}

	cur, err := s.submissions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []*api.Submission
	for cur.Next(ctx) {
		var doc mongoSubmissionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, doc.toSubmission())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MongoStore) updateOne(ctx context.Context, id string, set bson.M) error {
	set["updated_at"] = toNanos(s.now())
	res, err := s.submissions.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (s *MongoStore) MergeFields(ctx context.Context, id string, fields map[string]string) error {
	set := bson.M{}
	for k, v := range escapeFields(fields) {
		set["fields."+k] = v
	}
	return s.updateOne(ctx, id, set)
}

func (s *MongoStore) SetTitle(ctx context.Context, id, title string) error {
	return s.updateOne(ctx, id, bson.M{"title": title})
}

func (s *MongoStore) SetToken(ctx context.Context, id, token string) error {
	return s.updateOne(ctx, id, bson.M{"token": token})
}

func (s *MongoStore) SetStatus(ctx context.Context, id string, status api.Status) error {
	return s.updateOne(ctx, id, bson.M{"status": string(status)})
}

func (s *MongoStore) AdvanceStep(ctx context.Context, id string, step int) error {
	now := toNanos(s.now())

	// Frontier case: move current_step forward.
	res, err := s.submissions.UpdateOne(ctx,
		bson.M{"_id": id, "completed_at": 0, "current_step": step},
		bson.M{"$set": bson.M{"current_step": step + 1, "incomplete": true, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Revisit case: an earlier step was submitted again.
	res, err = s.submissions.UpdateOne(ctx,
		bson.M{"_id": id, "completed_at": 0, "current_step": bson.M{"$gt": step}},
		bson.M{"$set": bson.M{"incomplete": true, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return explainRejected(ctx, s, id, step)
}

func (s *MongoStore) CompleteSubmission(ctx context.Context, id string, step int, at time.Time) error {
	res, err := s.submissions.UpdateOne(ctx,
		bson.M{"_id": id, "completed_at": 0, "current_step": bson.M{"$gte": step}},
		bson.M{"$set": bson.M{
			"incomplete":   false,
			"completed_at": toNanos(at),
			"updated_at":   toNanos(s.now()),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return explainRejected(ctx, s, id, step)
	}
	return nil
}

func (s *MongoStore) RecordCompletion(ctx context.Context, parentID, submissionID string, at time.Time) error {
	_, err := s.parents.UpdateByID(ctx, parentID,
		bson.M{"$set": bson.M{
			"recent_submission": submissionID,
			"last_completed_at": toNanos(at),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) GetParent(ctx context.Context, parentID string) (*api.ParentRecord, error) {
	var doc mongoParentDoc
	err := s.parents.FindOne(ctx, bson.M{"_id": parentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	return &api.ParentRecord{
		ID:               doc.ID,
		RecentSubmission: doc.RecentSubmission,
		LastCompletedAt:  fromNanos(doc.LastCompletedAt),
	}, nil
}
