package mongodb

import (
	"context"
	"errors"
	"sort"
	"time"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/repository/contract"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatRecordCollection = "chats"

type chatRecordRepository struct {
	collection *mongo.Collection
}

func NewChatRecordRepository(db *mongo.Database) contract.ChatRecordRepository {
	return &chatRecordRepository{
		collection: db.Collection(chatRecordCollection),
	}
}

// EnsureIndexes creates the unique session index and the school index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(chatRecordCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "school", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(questionnaireCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "questionnaire", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *chatRecordRepository) Create(ctx context.Context, record *entity.ChatRecord) error {
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, toChatRecordDocument(record)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return contract.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *chatRecordRepository) FindBySessionId(ctx context.Context, sessionId string) (*entity.ChatRecord, error) {
	var doc chatRecordDocument
	err := r.collection.FindOne(ctx, bson.M{"session_id": sessionId}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *chatRecordRepository) update(ctx context.Context, sessionId string, update bson.M) error {
	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = time.Now()
	} else {
		update["$set"] = bson.M{"updated_at": time.Now()}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"session_id": sessionId}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return contract.ErrRecordNotFound
	}
	return nil
}

func (r *chatRecordRepository) AppendTurn(ctx context.Context, sessionId string, turn entity.ConversationTurn) error {
	return r.update(ctx, sessionId, bson.M{"$push": bson.M{"conversation": toTurnDocument(turn)}})
}

func (r *chatRecordRepository) AppendResponse(ctx context.Context, sessionId string, response entity.QuestionResponse, isFollowUp bool) error {
	field := "responses"
	if isFollowUp {
		field = "follow_up_responses"
	}
	doc := responseDocument{Question: response.Question, Answer: response.Answer, AnswerIndex: response.AnswerIndex}
	return r.update(ctx, sessionId, bson.M{"$push": bson.M{field: doc}})
}

func (r *chatRecordRepository) SetFeedback(ctx context.Context, sessionId string, feedback string) error {
	return r.update(ctx, sessionId, bson.M{"$set": bson.M{"feedback": feedback}})
}

func (r *chatRecordRepository) SetDiagnosis(ctx context.Context, sessionId string, diagnosis string) error {
	return r.update(ctx, sessionId, bson.M{"$set": bson.M{"diagnosis": diagnosis}})
}

func (r *chatRecordRepository) FindAll(ctx context.Context, filter contract.ChatRecordFilter) ([]*entity.ChatRecord, error) {
	query := bson.M{}
	if filter.School != "" {
		query["school"] = filter.School
	}
	if filter.QuestionnaireName != "" {
		query["questionnaire_name"] = filter.QuestionnaireName
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if !filter.WithConversation {
		opts.SetProjection(bson.M{"conversation": 0})
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []chatRecordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*entity.ChatRecord, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

func (r *chatRecordRepository) DistinctSchools(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "school", bson.M{"school": bson.M{"$ne": ""}})
	if err != nil {
		return nil, err
	}

	schools := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			schools = append(schools, s)
		}
	}
	sort.Strings(schools)
	return schools, nil
}
