package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/task-manager/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the Mongo repositories.
const (
	TasksCollection = "tasks"
	UsersCollection = "users"
)

type taskDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	DueDate     time.Time           `bson:"dueDate"`
	Priority    string              `bson:"priority"`
	Status      string              `bson:"status"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func newTaskDocument(task *models.Task) (taskDocument, error) {
	doc := taskDocument{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.UTC(),
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.ID != "" {
		id, err := primitive.ObjectIDFromHex(task.ID)
		if err != nil {
			return doc, ErrNotFound
		}
		doc.ID = id
	}
	if task.AssignedTo != nil {
		assignee, err := primitive.ObjectIDFromHex(*task.AssignedTo)
		if err != nil {
			return doc, err
		}
		doc.AssignedTo = &assignee
	}
	return doc, nil
}

func (d taskDocument) toModel() models.Task {
	task := models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Priority:    models.TaskPriority(d.Priority),
		Status:      models.TaskStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.AssignedTo != nil {
		assignee := d.AssignedTo.Hex()
		task.AssignedTo = &assignee
	}
	return task
}

// MongoTaskRepository is a MongoDB implementation of TaskRepository.
// Assignees are resolved with a second query against the users collection.
type MongoTaskRepository struct {
	tasks *mongo.Collection
	users *mongo.Collection
}

// NewMongoTaskRepository creates a TaskRepository backed by db.
func NewMongoTaskRepository(db *mongo.Database) TaskRepository {
	return &MongoTaskRepository{
		tasks: db.Collection(TasksCollection),
		users: db.Collection(UsersCollection),
	}
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	doc, err := newTaskDocument(task)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.tasks.InsertOne(ctx, doc); err != nil {
		return translateMongoError(err)
	}

	task.ID = doc.ID.Hex()
	return nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc taskDocument
	if err := r.tasks.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}

	tasks := []models.Task{doc.toModel()}
	if err := r.populateAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (r *MongoTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	total, err := r.tasks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	tasks := []models.Task{}
	if total == 0 {
		return tasks, 0, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if filter.PageSize > 0 {
		opts.SetSkip(int64(filter.Offset())).SetLimit(int64(filter.PageSize))
	}

	cursor, err := r.tasks.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.populateAssignees(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	doc, err := newTaskDocument(task)
	if err != nil {
		return err
	}

	set := bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"dueDate":     doc.DueDate,
		"priority":    doc.Priority,
		"status":      doc.Status,
		"assignedTo":  doc.AssignedTo,
		"updatedAt":   doc.UpdatedAt,
	}

	result, err := r.tasks.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set})
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.tasks.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// populateAssignees sets Assignee on every task whose reference resolves.
func (r *MongoTaskRepository) populateAssignees(ctx context.Context, tasks []models.Task) error {
	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0, len(tasks))
	for _, task := range tasks {
		if task.AssignedTo == nil {
			continue
		}
		id, err := primitive.ObjectIDFromHex(*task.AssignedTo)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "createdAt": 1})
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	users := make(map[string]*models.User, len(ids))
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		user := doc.toModel()
		users[user.ID] = &user
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	for i := range tasks {
		if tasks[i].AssignedTo != nil {
			tasks[i].Assignee = users[*tasks[i].AssignedTo]
		}
	}
	return nil
}

func translateMongoError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
