package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"game-quiz-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	QuizzesCollection  = "quizzes"
	UsersCollection    = "users"
	VotesCollection    = "quizVotes"
	ResultsCollection  = "quizResults"
	CountersCollection = "counters"
)

// ErrNotConfigured is returned by Open when no URI is set.
var ErrNotConfigured = errors.New("remote backend not configured")

// Options configures the connection.
type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Backend stores the collections in MongoDB. Integer ids come from per-collection
// sequences in the counters collection.
type Backend struct {
	client   *mongo.Client
	quizzes  *mongo.Collection
	users    *mongo.Collection
	votes    *mongo.Collection
	results  *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// Open connects, pings and ensures indexes. Any failure closes the client.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	if opts.URI == "" {
		return nil, ErrNotConfigured
	}
	if opts.Database == "" {
		opts.Database = "game_quiz"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(opts.Database)
	b := &Backend{
		client:   client,
		quizzes:  db.Collection(QuizzesCollection),
		users:    db.Collection(UsersCollection),
		votes:    db.Collection(VotesCollection),
		results:  db.Collection(ResultsCollection),
		counters: db.Collection(CountersCollection),
		now:      time.Now,
	}
	if err := b.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Printf("connected to mongo database %s", opts.Database)
	return b, nil
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

func (b *Backend) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		col    *mongo.Collection
		models []mongo.IndexModel
	}{
		{b.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{b.quizzes, []mongo.IndexModel{{Keys: bson.D{{Key: "gameId", Value: 1}}}}},
		{b.votes, []mongo.IndexModel{{Keys: bson.D{{Key: "userId", Value: 1}}}}},
		{b.results, []mongo.IndexModel{{Keys: bson.D{{Key: "userId", Value: 1}}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.col.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.col.Name(), err)
		}
	}
	return nil
}

func (b *Backend) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := b.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return counter.Seq, nil
}

func (b *Backend) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return findAll[domain.Quiz](ctx, b.quizzes, bson.M{}, byID())
}

func (b *Backend) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := b.quizzes.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz %d: %w", id, err)
	}
	return quiz, nil
}

func (b *Backend) QuizzesByGame(ctx context.Context, gameID int64) ([]domain.Quiz, error) {
	return findAll[domain.Quiz](ctx, b.quizzes, bson.M{"gameId": gameID}, byID())
}

// ratingPipeline sorts quizzes the same way domain.SortByRating does.
func ratingPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{"rating": bson.M{"$subtract": bson.A{"$upvotes", "$downvotes"}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"rating": 0}}},
	}
}

// QuizzesByRating sorts on the server; if the aggregation fails it sorts in memory.
func (b *Backend) QuizzesByRating(ctx context.Context) ([]domain.Quiz, error) {
	cur, err := b.quizzes.Aggregate(ctx, ratingPipeline())
	if err == nil {
		quizzes := []domain.Quiz{}
		if err = cur.All(ctx, &quizzes); err == nil {
			return quizzes, nil
		}
	}
	log.Printf("warning: rating aggregation failed, sorting in memory: %v", err)

	quizzes, err := b.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortByRating(quizzes)
	return quizzes, nil
}

func (b *Backend) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	id, err := b.nextID(ctx, QuizzesCollection)
	if err != nil {
		return domain.Quiz{}, err
	}
	now := b.now().UTC().Truncate(time.Millisecond)
	quiz.ID = id
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if _, err := b.quizzes.InsertOne(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (b *Backend) UpdateQuiz(ctx context.Context, id int64, update domain.QuizUpdate) (domain.Quiz, error) {
	set := bson.M{"updatedAt": b.now().UTC().Truncate(time.Millisecond)}
	if update.GameID != nil {
		set["gameId"] = *update.GameID
	}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.CoverImage != nil {
		set["coverImage"] = *update.CoverImage
	}
	if update.Questions != nil {
		set["questions"] = *update.Questions
	}

	var quiz domain.Quiz
	err := b.quizzes.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz %d: %w", id, err)
	}
	return quiz, nil
}

type voteDoc struct {
	ID        string               `bson:"_id"`
	UserID    int64                `bson:"userId"`
	QuizID    int64                `bson:"quizId"`
	Vote      domain.VoteDirection `bson:"vote"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func voteID(userID, quizID int64) string {
	return fmt.Sprintf("%d_%d", userID, quizID)
}

// SetVote records the new vote state and moves the counters with atomic $inc.
// Decrements only apply while the counter is positive. The read of the previous
// vote and the writes that follow are not one transaction, so two concurrent
// votes by the same user can race.
func (b *Backend) SetVote(ctx context.Context, userID, quizID int64, next domain.VoteDirection) (domain.Quiz, error) {
	if _, err := b.GetQuiz(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	prev, err := b.UserVote(ctx, userID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if prev == next {
		return b.GetQuiz(ctx, quizID)
	}

	id := voteID(userID, quizID)
	if next == domain.VoteNone {
		if _, err := b.votes.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return domain.Quiz{}, fmt.Errorf("clear vote: %w", err)
		}
	} else {
		doc := voteDoc{ID: id, UserID: userID, QuizID: quizID, Vote: next, UpdatedAt: b.now().UTC()}
		if _, err := b.votes.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true)); err != nil {
			return domain.Quiz{}, fmt.Errorf("save vote: %w", err)
		}
	}

	if field := counterField(prev); field != "" {
		if _, err := b.quizzes.UpdateOne(ctx,
			bson.M{"_id": quizID, field: bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{field: -1}},
		); err != nil {
			return domain.Quiz{}, fmt.Errorf("decrement %s: %w", field, err)
		}
	}
	if field := counterField(next); field != "" {
		if _, err := b.quizzes.UpdateOne(ctx,
			bson.M{"_id": quizID},
			bson.M{"$inc": bson.M{field: 1}},
		); err != nil {
			return domain.Quiz{}, fmt.Errorf("increment %s: %w", field, err)
		}
	}
	return b.GetQuiz(ctx, quizID)
}

func counterField(v domain.VoteDirection) string {
	switch v {
	case domain.VoteUp:
		return "upvotes"
	case domain.VoteDown:
		return "downvotes"
	}
	return ""
}

func (b *Backend) UserVote(ctx context.Context, userID, quizID int64) (domain.VoteDirection, error) {
	var doc voteDoc
	err := b.votes.FindOne(ctx, bson.M{"_id": voteID(userID, quizID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.VoteNone, nil
	}
	if err != nil {
		return domain.VoteNone, fmt.Errorf("get vote: %w", err)
	}
	return doc.Vote, nil
}

func (b *Backend) ListUsers(ctx context.Context) ([]domain.User, error) {
	return findAll[domain.User](ctx, b.users, bson.M{}, byID())
}

func (b *Backend) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return b.findUser(ctx, bson.M{"_id": id})
}

func (b *Backend) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return b.findUser(ctx, bson.M{"email": email})
}

func (b *Backend) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return b.findUser(ctx, bson.M{"username": username})
}

func (b *Backend) findUser(ctx context.Context, filter bson.M) (domain.User, error) {
	var user domain.User
	err := b.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (b *Backend) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	id, err := b.nextID(ctx, UsersCollection)
	if err != nil {
		return domain.User{}, err
	}
	now := b.now().UTC().Truncate(time.Millisecond)
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := b.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (b *Backend) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (domain.User, error) {
	set := bson.M{"updatedAt": b.now().UTC().Truncate(time.Millisecond)}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Password != nil {
		set["password"] = *update.Password
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if update.Role != nil {
		set["role"] = *update.Role
	}

	var user domain.User
	err := b.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.User{}, domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.User{}, domain.ErrUserExists
	case err != nil:
		return domain.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}

func (b *Backend) AddResult(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	id, err := b.nextID(ctx, ResultsCollection)
	if err != nil {
		return domain.QuizResult{}, err
	}
	result.ID = id
	result.CompletedAt = result.CompletedAt.UTC().Truncate(time.Millisecond)
	if _, err := b.results.InsertOne(ctx, result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("insert result: %w", err)
	}
	return result, nil
}

func (b *Backend) UserResults(ctx context.Context, userID int64) ([]domain.QuizResult, error) {
	return findAll[domain.QuizResult](ctx, b.results, bson.M{"userId": userID}, byID())
}

// ListResults returns the result log in insertion order.
func (b *Backend) ListResults(ctx context.Context) ([]domain.QuizResult, error) {
	return findAll[domain.QuizResult](ctx, b.results, bson.M{}, byID())
}

func byID() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", col.Name(), err)
	}
	defer cur.Close(ctx)

	items := []T{}
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.Name(), err)
		}
		items = append(items, item)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", col.Name(), err)
	}
	return items, nil
}
