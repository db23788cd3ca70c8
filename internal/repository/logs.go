package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LogEntryDocument is one document of the logs collection. Request entries
// and audit entries share it; audit entries carry the bundle, session and
// action fields.
type LogEntryDocument struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
	Level      string                 `bson:"level" json:"level"`
	Message    string                 `bson:"message" json:"message"`
	RequestID  string                 `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Method     string                 `bson:"method,omitempty" json:"method,omitempty"`
	Path       string                 `bson:"path,omitempty" json:"path,omitempty"`
	StatusCode int                    `bson:"status_code,omitempty" json:"status_code,omitempty"`
	Duration   int64                  `bson:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	IP         string                 `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent  string                 `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Error      string                 `bson:"error,omitempty" json:"error,omitempty"`
	BundleID   string                 `bson:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	SessionID  string                 `bson:"session_id,omitempty" json:"session_id,omitempty"`
	Subject    string                 `bson:"subject,omitempty" json:"subject,omitempty"`
	ActionType string                 `bson:"action_type,omitempty" json:"action_type,omitempty"`
	Fields     map[string]interface{} `bson:"fields,omitempty" json:"fields,omitempty"`
}

// LogsRepository reads and writes the logs collection.
type LogsRepository struct {
	collection *mongo.Collection
}

// NewLogsRepository creates a new logs repository.
func NewLogsRepository(db *MongoDB) *LogsRepository {
	return &LogsRepository{
		collection: db.Logs,
	}
}

func (d *LogEntryDocument) fillDefaults() {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
}

// Create inserts one entry.
func (r *LogsRepository) Create(ctx context.Context, entry *LogEntryDocument) error {
	entry.fillDefaults()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// CreateMany inserts entries in one unordered bulk write, so a single bad
// document does not drop the rest of the batch.
func (r *LogsRepository) CreateMany(ctx context.Context, entries []*LogEntryDocument) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		e.fillDefaults()
		docs = append(docs, e)
	}
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

// LogQueryOptions provides options for querying logs.
type LogQueryOptions struct {
	RequestID  string
	Level      string
	Method     string
	Path       string
	BundleID   string
	ActionType string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Skip       int
}

// filter builds the MongoDB filter shared by Query and Count.
func (o LogQueryOptions) filter() bson.M {
	filter := bson.M{}

	if o.RequestID != "" {
		filter["request_id"] = o.RequestID
	}
	if o.Level != "" {
		filter["level"] = o.Level
	}
	if o.Method != "" {
		filter["method"] = o.Method
	}
	if o.Path != "" {
		filter["path"] = bson.M{"$regex": regexp.QuoteMeta(o.Path), "$options": "i"}
	}
	if o.BundleID != "" {
		filter["bundle_id"] = o.BundleID
	}
	if o.ActionType != "" {
		filter["action_type"] = o.ActionType
	}
	if o.StartTime != nil || o.EndTime != nil {
		timeFilter := bson.M{}
		if o.StartTime != nil {
			timeFilter["$gte"] = *o.StartTime
		}
		if o.EndTime != nil {
			timeFilter["$lte"] = *o.EndTime
		}
		filter["timestamp"] = timeFilter
	}
	return filter
}

// Query returns log entries matching opts, newest first.
func (r *LogsRepository) Query(ctx context.Context, opts LogQueryOptions) ([]*LogEntryDocument, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if opts.Limit > 0 {
		findOptions.SetLimit(int64(opts.Limit))
	}
	if opts.Skip > 0 {
		findOptions.SetSkip(int64(opts.Skip))
	}

	cursor, err := r.collection.Find(ctx, opts.filter(), findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var entries []*LogEntryDocument
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of log entries matching opts.
func (r *LogsRepository) Count(ctx context.Context, opts LogQueryOptions) (int64, error) {
	return r.collection.CountDocuments(ctx, opts.filter())
}
