package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskDocument struct {
	ID          string              `bson:"_id"`
	Position    int64               `bson:"position"`
	Title       string              `bson:"title"`
	Description string              `bson:"description,omitempty"`
	Status      string              `bson:"status"`
	Priority    string              `bson:"priority"`
	StartDate   *time.Time          `bson:"start_date,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty"`
	Progress    *int                `bson:"progress,omitempty"`
	Tags        []string            `bson:"tags"`
	Assignees   []domain.Assignee   `bson:"assignees"`
	Comments    []commentDocument   `bson:"comments"`
	Attachments []domain.Attachment `bson:"attachments"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

type commentDocument struct {
	ID        int64     `bson:"id"`
	Text      string    `bson:"text"`
	Author    string    `bson:"author"`
	CreatedAt time.Time `bson:"created_at"`
}

type taskRepository struct {
	client   *mongodriver.Client
	tasks    *mongodriver.Collection
	counters *mongodriver.Collection
}

// NewTaskRepository returns a MongoDB-backed TaskRepository using the given
// database and collection. Board order comes from a counter document.
func NewTaskRepository(client *mongodriver.Client, database, collection string) repository.TaskRepository {
	db := client.Database(database)
	return &taskRepository{
		client:   client,
		tasks:    db.Collection(collection),
		counters: db.Collection(collection + "_counters"),
	}
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var doc taskDocument
	if err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	task := doc.toDomain()
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	cursor, err := r.tasks.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, doc.toDomain())
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	position, err := r.nextPosition(ctx)
	if err != nil {
		return nil, err
	}

	doc := fromDomain(task)
	doc.Position = position
	if _, err := r.tasks.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, domain.ErrTaskExists
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	doc := fromDomain(task)
	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"status":      doc.Status,
		"priority":    doc.Priority,
		"start_date":  doc.StartDate,
		"due_date":    doc.DueDate,
		"progress":    doc.Progress,
		"tags":        doc.Tags,
		"assignees":   doc.Assignees,
		"comments":    doc.Comments,
		"attachments": doc.Attachments,
		"updated_at":  doc.UpdatedAt,
	}}

	result, err := r.tasks.UpdateOne(ctx, bson.M{"_id": task.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	var doc taskDocument
	if err := r.tasks.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	task := doc.toDomain()
	return &task, nil
}

func (r *taskRepository) nextPosition(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "position"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	return counter.Seq, err
}

func fromDomain(task *domain.Task) taskDocument {
	t := task.Clone()
	t.Normalize()
	doc := taskDocument{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Progress:    t.Progress,
		Tags:        t.Tags,
		Assignees:   t.Assignees,
		Attachments: t.Attachments,
		Comments:    make([]commentDocument, 0, len(t.Comments)),
		UpdatedAt:   time.Now().UTC(),
	}
	if t.StartDate != nil {
		v := t.StartDate.Time
		doc.StartDate = &v
	}
	if t.DueDate != nil {
		v := t.DueDate.Time
		doc.DueDate = &v
	}
	for _, c := range t.Comments {
		doc.Comments = append(doc.Comments, commentDocument{
			ID:        c.ID,
			Text:      c.Text,
			Author:    c.Author,
			CreatedAt: c.CreatedAt.Time,
		})
	}
	return doc
}

func (d taskDocument) toDomain() domain.Task {
	task := domain.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.Status(d.Status),
		Priority:    domain.Priority(d.Priority),
		Progress:    d.Progress,
		Tags:        d.Tags,
		Assignees:   d.Assignees,
		Attachments: d.Attachments,
	}
	if d.StartDate != nil {
		ts := domain.NewTimestamp(*d.StartDate)
		task.StartDate = &ts
	}
	if d.DueDate != nil {
		ts := domain.NewTimestamp(*d.DueDate)
		task.DueDate = &ts
	}
	for _, c := range d.Comments {
		task.Comments = append(task.Comments, domain.Comment{
			ID:        c.ID,
			Text:      c.Text,
			Author:    c.Author,
			CreatedAt: domain.NewTimestamp(c.CreatedAt),
		})
	}
	task.Normalize()
	return task
}
