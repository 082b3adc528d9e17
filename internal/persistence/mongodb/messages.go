package mongodb

import (
	"context"
	"time"

	"github.com/goevery/chatrelay/internal/persistence"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type messageDocument struct {
	Id        string    `bson:"_id"`
	Sender    string    `bson:"sender"`
	Receiver  string    `bson:"receiver,omitempty"`
	GroupId   string    `bson:"groupId,omitempty"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

type MessageStore struct {
	collection *mongo.Collection
}

func NewMessageStore(client *mongo.Client, database string) *MessageStore {
	collection := client.Database(database).Collection("messages")

	return &MessageStore{
		collection,
	}
}

func (s *MessageStore) Setup(ctx context.Context) error {
	privateIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender", Value: 1},
			{Key: "receiver", Value: 1},
			{Key: "createdAt", Value: 1},
		},
	}

	groupIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "groupId", Value: 1},
			{Key: "createdAt", Value: 1},
		},
	}

	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{privateIndexModel, groupIndexModel})

	return err
}

func (s *MessageStore) Save(ctx context.Context, request persistence.SaveMessageRequest) (persistence.MessageRecord, error) {
	record := persistence.MessageRecord{
		Id:        gonanoid.Must(),
		Sender:    request.Sender,
		Receiver:  request.Receiver,
		GroupId:   request.GroupId,
		Content:   request.Content,
		CreatedAt: time.Now(),
	}

	// A group message never carries a direct receiver.
	if record.GroupId != "" {
		record.Receiver = ""
	}

	_, err := s.collection.InsertOne(ctx, messageDocument{
		Id:        record.Id,
		Sender:    record.Sender,
		Receiver:  record.Receiver,
		GroupId:   record.GroupId,
		Content:   record.Content,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return persistence.MessageRecord{}, err
	}

	return record, nil
}

func (s *MessageStore) PrivateHistory(ctx context.Context, user1 string, user2 string) ([]persistence.MessageRecord, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender": user1, "receiver": user2},
			bson.M{"sender": user2, "receiver": user1},
		},
	}

	return s.find(ctx, filter)
}

func (s *MessageStore) GroupHistory(ctx context.Context, groupId string) ([]persistence.MessageRecord, error) {
	return s.find(ctx, bson.M{"groupId": groupId})
}

func (s *MessageStore) find(ctx context.Context, filter bson.M) ([]persistence.MessageRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}})

	result, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var documents []messageDocument
	err = result.All(ctx, &documents)
	if err != nil {
		return nil, err
	}

	records := make([]persistence.MessageRecord, len(documents))
	for i, d := range documents {
		records[i] = persistence.MessageRecord{
			Id:        d.Id,
			Sender:    d.Sender,
			Receiver:  d.Receiver,
			GroupId:   d.GroupId,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
		}
	}

	return records, nil
}
