package repository

import (
	"SourceHub/entity"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var recentFirst = bson.D{{"updated_at", -1}}

// serverNow is the database clock; every conversation timestamp is taken from
// it so that stamps written by different app instances stay comparable.
const serverNow = "$$NOW"

// literal stops user supplied strings from being read as expressions inside
// an update pipeline.
func literal(value interface{}) bson.D {
	return bson.D{{"$literal", value}}
}

func pipelineMessage(msg entity.Message) bson.D {
	return bson.D{
		{"sender", literal(msg.Sender)},
		{"content", literal(msg.Content)},
		{"timestamp", serverNow},
	}
}

// CreateConversation inserts conv after checking that its admin exists. The
// insert is a pipeline upsert so the first message is stamped by the same
// clock as later appends; conv is refreshed with the stored document.
func (m *MongoDB) CreateConversation(ctx context.Context, conv *entity.Conversation) error {
	exists, err := m.AdminExists(ctx, conv.AdminID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("admin %q: %w", conv.AdminID, entity.ErrNotFound)
	}

	messages := make(bson.A, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		messages = append(messages, pipelineMessage(msg))
	}
	set := bson.D{
		{"visitor_id", literal(conv.VisitorID)},
		{"admin_id", literal(conv.AdminID)},
		{"messages", messages},
		{"status", literal(entity.StatusOpen)},
		{"last_message_at", serverNow},
		{"created_at", serverNow},
		{"updated_at", serverNow},
	}

	oid := primitive.NewObjectID()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var stored entity.Conversation
	err = m.collection(conversationsCollection).
		FindOneAndUpdate(ctx, bson.D{{"_id", oid}}, mongo.Pipeline{{{"$set", set}}}, opts).
		Decode(&stored)
	if err != nil {
		return fmt.Errorf("mongodb insert conversation: %w", err)
	}
	*conv = stored
	return nil
}

func (m *MongoDB) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	oid, err := objectID(id, "conversation")
	if err != nil {
		return nil, err
	}

	var conv entity.Conversation
	err = m.collection(conversationsCollection).FindOne(ctx, bson.D{{"_id", oid}}).Decode(&conv)
	if err != nil {
		return nil, m.findError(err, "conversation")
	}
	return &conv, nil
}

// AppendMessage pushes msg in a single server-side update. The timestamp is
// taken from the database clock inside the update so that messages in one
// conversation stay ordered and last_message_at always matches the last entry.
// msg.Timestamp is ignored.
func (m *MongoDB) AppendMessage(ctx context.Context, id string, msg entity.Message, reopen bool) (*entity.Conversation, error) {
	if _, err := entity.NewMessage(msg.Sender, msg.Content, msg.Timestamp); err != nil {
		return nil, err
	}
	oid, err := objectID(id, "conversation")
	if err != nil {
		return nil, err
	}

	set := bson.D{
		{"messages", bson.D{{"$concatArrays", bson.A{
			bson.D{{"$ifNull", bson.A{"$messages", bson.A{}}}},
			bson.A{pipelineMessage(msg)},
		}}}},
		{"last_message_at", serverNow},
		{"updated_at", serverNow},
	}
	pipeline := mongo.Pipeline{{{"$set", set}}}
	if reopen {
		pipeline = append(pipeline,
			bson.D{{"$set", bson.D{{"status", literal(entity.StatusOpen)}}}},
			bson.D{{"$unset", "closed_at"}},
		)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var conv entity.Conversation
	err = m.collection(conversationsCollection).
		FindOneAndUpdate(ctx, bson.D{{"_id", oid}}, pipeline, opts).
		Decode(&conv)
	if err != nil {
		return nil, m.findError(err, "conversation")
	}
	return &conv, nil
}

// SetConversationStatus changes status using the database clock. Closing sets
// closed_at; opening clears it.
func (m *MongoDB) SetConversationStatus(ctx context.Context, id string, status entity.ConversationStatus) (*entity.Conversation, error) {
	oid, err := objectID(id, "conversation")
	if err != nil {
		return nil, err
	}

	var update mongo.Pipeline
	switch status {
	case entity.StatusClosed:
		update = mongo.Pipeline{{{"$set", bson.D{
			{"status", literal(status)},
			{"closed_at", serverNow},
			{"updated_at", serverNow},
		}}}}
	case entity.StatusOpen:
		update = mongo.Pipeline{
			{{"$set", bson.D{{"status", literal(status)}, {"updated_at", serverNow}}}},
			{{"$unset", "closed_at"}},
		}
	default:
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidInput, status)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var conv entity.Conversation
	err = m.collection(conversationsCollection).
		FindOneAndUpdate(ctx, bson.D{{"_id", oid}}, update, opts).
		Decode(&conv)
	if err != nil {
		return nil, m.findError(err, "conversation")
	}
	return &conv, nil
}

func statusFilter(filter bson.D, status entity.ConversationStatus) bson.D {
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	return filter
}

func (m *MongoDB) ListConversationsByVisitor(ctx context.Context, visitorID string, status entity.ConversationStatus, limit int) ([]entity.Conversation, error) {
	filter := statusFilter(bson.D{{"visitor_id", visitorID}}, status)
	opts := options.Find().SetSort(recentFirst).SetLimit(int64(limit))

	cursor, err := m.collection(conversationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find visitor conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := make([]entity.Conversation, 0)
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return conversations, nil
}

func (m *MongoDB) ListConversationsByAdmin(ctx context.Context, adminID string, status entity.ConversationStatus, page, limit int) ([]entity.Conversation, int64, error) {
	return m.pageConversations(ctx, statusFilter(bson.D{{"admin_id", adminID}}, status), page, limit)
}

func (m *MongoDB) ListConversations(ctx context.Context, status entity.ConversationStatus, page, limit int) ([]entity.Conversation, int64, error) {
	return m.pageConversations(ctx, statusFilter(bson.D{}, status), page, limit)
}

func (m *MongoDB) pageConversations(ctx context.Context, filter bson.D, page, limit int) ([]entity.Conversation, int64, error) {
	collection := m.collection(conversationsCollection)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb count conversations: %w", err)
	}

	cursor, err := collection.Find(ctx, filter, pageOptions(page, limit, recentFirst))
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := make([]entity.Conversation, 0)
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, 0, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return conversations, total, nil
}

// CountConversations returns total and open conversation counts for an admin.
func (m *MongoDB) CountConversations(ctx context.Context, adminID string) (entity.ConversationCounts, error) {
	pipeline := mongo.Pipeline{
		{{"$match", bson.D{{"admin_id", adminID}}}},
		{{"$group", bson.D{
			{"_id", nil},
			{"total", bson.D{{"$sum", 1}}},
			{"open", bson.D{{"$sum", bson.D{
				{"$cond", bson.A{
					bson.D{{"$eq", bson.A{"$status", entity.StatusOpen}}},
					1,
					0,
				}},
			}}}},
		}}},
	}

	cursor, err := m.collection(conversationsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return entity.ConversationCounts{}, fmt.Errorf("mongodb aggregate conversation counts: %w", err)
	}
	defer cursor.Close(ctx)

	var counts entity.ConversationCounts
	if cursor.Next(ctx) {
		if err = cursor.Decode(&counts); err != nil {
			return entity.ConversationCounts{}, fmt.Errorf("mongodb decode conversation counts: %w", err)
		}
	}
	return counts, cursor.Err()
}
