package mongodb

import (
	"context"
	"errors"

	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/persistence"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDocument struct {
	Id           string `bson:"_id"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"passwordHash"`
}

type UserStore struct {
	collection *mongo.Collection
}

func NewUserStore(client *mongo.Client, database string) *UserStore {
	collection := client.Database(database).Collection("users")

	return &UserStore{
		collection,
	}
}

func (s *UserStore) Setup(ctx context.Context) error {
	usernameIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := s.collection.Indexes().CreateOne(ctx, usernameIndexModel)

	return err
}

func (s *UserStore) Create(ctx context.Context, username string, passwordHash string) (persistence.User, error) {
	user := persistence.User{
		Id:           gonanoid.Must(),
		Username:     username,
		PasswordHash: passwordHash,
	}

	_, err := s.collection.InsertOne(ctx, userDocument{
		Id:           user.Id,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	})
	if mongo.IsDuplicateKeyError(err) {
		return persistence.User{}, ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("username already taken"))
	}
	if err != nil {
		return persistence.User{}, err
	}

	return user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (persistence.User, error) {
	var document userDocument

	err := s.collection.FindOne(ctx, bson.M{"username": username}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return persistence.User{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("user not found"))
	}
	if err != nil {
		return persistence.User{}, err
	}

	return persistence.User{
		Id:           document.Id,
		Username:     document.Username,
		PasswordHash: document.PasswordHash,
	}, nil
}

func (s *UserStore) List(ctx context.Context) ([]persistence.User, error) {
	result, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var documents []userDocument
	err = result.All(ctx, &documents)
	if err != nil {
		return nil, err
	}

	users := make([]persistence.User, len(documents))
	for i, d := range documents {
		users[i] = persistence.User{
			Id:       d.Id,
			Username: d.Username,
		}
	}

	return users, nil
}
