package mongodb

import (
	"context"

	"github.com/goevery/chatrelay/internal/persistence"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type groupDocument struct {
	Id      string   `bson:"_id"`
	Name    string   `bson:"name"`
	Members []string `bson:"members"`
}

type GroupStore struct {
	collection *mongo.Collection
}

func NewGroupStore(client *mongo.Client, database string) *GroupStore {
	collection := client.Database(database).Collection("groups")

	return &GroupStore{
		collection,
	}
}

func (s *GroupStore) Create(ctx context.Context, name string, members []string) (persistence.Group, error) {
	group := persistence.Group{
		Id:      gonanoid.Must(),
		Name:    name,
		Members: members,
	}

	_, err := s.collection.InsertOne(ctx, groupDocument{
		Id:      group.Id,
		Name:    group.Name,
		Members: group.Members,
	})
	if err != nil {
		return persistence.Group{}, err
	}

	return group, nil
}

func (s *GroupStore) GroupsForUser(ctx context.Context, userId string) ([]persistence.Group, error) {
	result, err := s.collection.Find(ctx, bson.M{"members": userId})
	if err != nil {
		return nil, err
	}

	var documents []groupDocument
	err = result.All(ctx, &documents)
	if err != nil {
		return nil, err
	}

	groups := make([]persistence.Group, len(documents))
	for i, d := range documents {
		groups[i] = persistence.Group{
			Id:      d.Id,
			Name:    d.Name,
			Members: d.Members,
		}
	}

	return groups, nil
}

func (s *GroupStore) IsMember(ctx context.Context, groupId string, userId string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"_id":     groupId,
		"members": userId,
	})
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
