package mongodb

import (
	"context"
	"errors"
	"time"

	"screening-bot-be/internal/entity"
	"screening-bot-be/internal/repository/contract"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const questionnaireCollection = "questionnaires"

type questionnaireRepository struct {
	collection *mongo.Collection
}

func NewQuestionnaireRepository(db *mongo.Database) contract.QuestionnaireRepository {
	return &questionnaireRepository{
		collection: db.Collection(questionnaireCollection),
	}
}

func (r *questionnaireRepository) Create(ctx context.Context, questionnaire *entity.Questionnaire) error {
	if questionnaire.Id == uuid.Nil {
		questionnaire.Id = uuid.New()
	}
	if questionnaire.CreatedAt.IsZero() {
		questionnaire.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, toQuestionnaireDocument(questionnaire)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return contract.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *questionnaireRepository) FindByName(ctx context.Context, name string) (*entity.Questionnaire, error) {
	var doc questionnaireDocument
	if err := r.collection.FindOne(ctx, bson.M{"questionnaire": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *questionnaireRepository) FindAll(ctx context.Context) ([]*entity.Questionnaire, error) {
	opts := options.Find().
		SetProjection(bson.M{"questions": 0}).
		SetSort(bson.D{{Key: "questionnaire", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []questionnaireDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*entity.Questionnaire, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}
