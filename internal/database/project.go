package repository

import (
	"SourceHub/entity"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func projectSort(sort entity.ProjectSort) bson.D {
	switch sort {
	case entity.SortPopular:
		return bson.D{{"likes", -1}, {"downloads", -1}}
	case entity.SortMostDownloaded:
		return bson.D{{"downloads", -1}, {"created_at", -1}}
	case entity.SortMostLiked:
		return bson.D{{"likes", -1}, {"created_at", -1}}
	default:
		return bson.D{{"created_at", -1}}
	}
}

// ListProjects expects a normalized filter.
func (m *MongoDB) ListProjects(ctx context.Context, filter entity.ProjectFilter) ([]entity.Project, int64, error) {
	query := bson.D{}
	if filter.Type != "" {
		query = append(query, bson.E{Key: "type", Value: filter.Type})
	}
	if pattern := filter.LanguagePattern(); pattern != "" {
		query = append(query, bson.E{Key: "language", Value: primitive.Regex{Pattern: pattern}})
	}
	return m.findProjects(ctx, query, pageOptions(filter.Page, filter.Limit, projectSort(filter.Sort)))
}

// SearchProjects runs a text search over name, language and tags ordered by relevance.
func (m *MongoDB) SearchProjects(ctx context.Context, text string, page, limit int) ([]entity.Project, int64, error) {
	query := bson.D{{"$text", bson.D{{"$search", text}}}}
	opts := pageOptions(page, limit, bson.D{{"score", bson.D{{"$meta", "textScore"}}}}).
		SetProjection(bson.D{{"score", bson.D{{"$meta", "textScore"}}}})
	return m.findProjects(ctx, query, opts)
}

func (m *MongoDB) ListProjectsByAuthor(ctx context.Context, authorID string, limit int) ([]entity.Project, error) {
	opts := options.Find().SetSort(bson.D{{"created_at", -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	projects, _, err := m.findProjects(ctx, bson.D{{"author_id", authorID}}, opts)
	return projects, err
}

func (m *MongoDB) findProjects(ctx context.Context, query bson.D, opts *options.FindOptions) ([]entity.Project, int64, error) {
	collection := m.collection(projectsCollection)

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb count projects: %w", err)
	}

	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongodb find projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := make([]entity.Project, 0)
	if err = cursor.All(ctx, &projects); err != nil {
		return nil, 0, fmt.Errorf("mongodb decode projects: %w", err)
	}
	return projects, total, nil
}

func (m *MongoDB) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	oid, err := objectID(id, "project")
	if err != nil {
		return nil, err
	}
	var project entity.Project
	if err = m.collection(projectsCollection).FindOne(ctx, bson.D{{"_id", oid}}).Decode(&project); err != nil {
		return nil, m.findError(err, "project")
	}
	return &project, nil
}

func (m *MongoDB) incrementProject(ctx context.Context, id, field string) (*entity.Project, error) {
	oid, err := objectID(id, "project")
	if err != nil {
		return nil, err
	}
	update := bson.D{{"$inc", bson.D{{field, 1}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var project entity.Project
	err = m.collection(projectsCollection).
		FindOneAndUpdate(ctx, bson.D{{"_id", oid}}, update, opts).
		Decode(&project)
	if err != nil {
		return nil, m.findError(err, "project")
	}
	return &project, nil
}

// ViewProject increments the view counter and returns the project.
func (m *MongoDB) ViewProject(ctx context.Context, id string) (*entity.Project, error) {
	return m.incrementProject(ctx, id, "views")
}

func (m *MongoDB) IncrementProjectLikes(ctx context.Context, id string) (*entity.Project, error) {
	return m.incrementProject(ctx, id, "likes")
}

func (m *MongoDB) IncrementProjectDownloads(ctx context.Context, id string) (*entity.Project, error) {
	return m.incrementProject(ctx, id, "downloads")
}

func (m *MongoDB) CreateProject(ctx context.Context, project *entity.Project) error {
	res, err := m.collection(projectsCollection).InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("mongodb insert project: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		project.ID = oid
	}
	return nil
}

// ReplaceProject writes the editable fields of project back to the store.
func (m *MongoDB) ReplaceProject(ctx context.Context, project *entity.Project) error {
	project.UpdatedAt = time.Now()
	set := bson.D{
		{"name", project.Name},
		{"language", project.Language},
		{"type", project.Type},
		{"content", project.Content},
		{"file_url", project.FileURL},
		{"file_key", project.FileKey},
		{"notes", project.Notes},
		{"preview_url", project.PreviewURL},
		{"tags", project.Tags},
		{"is_featured", project.IsFeatured},
		{"updated_at", project.UpdatedAt},
	}
	res, err := m.collection(projectsCollection).UpdateByID(ctx, project.ID, bson.D{{"$set", set}})
	if err != nil {
		return fmt.Errorf("mongodb update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("project %s: %w", project.ID.Hex(), entity.ErrNotFound)
	}
	return nil
}

func (m *MongoDB) DeleteProject(ctx context.Context, id string) error {
	oid, err := objectID(id, "project")
	if err != nil {
		return err
	}
	res, err := m.collection(projectsCollection).DeleteOne(ctx, bson.D{{"_id", oid}})
	if err != nil {
		return fmt.Errorf("mongodb delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("project %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

// ProjectTotals sums counters over all projects, or over one author's when authorID is set.
func (m *MongoDB) ProjectTotals(ctx context.Context, authorID string) (entity.CounterTotals, error) {
	pipeline := mongo.Pipeline{}
	if authorID != "" {
		pipeline = append(pipeline, bson.D{{"$match", bson.D{{"author_id", authorID}}}})
	}
	pipeline = append(pipeline, bson.D{{"$group", bson.D{
		{"_id", nil},
		{"projects", bson.D{{"$sum", 1}}},
		{"likes", bson.D{{"$sum", "$likes"}}},
		{"downloads", bson.D{{"$sum", "$downloads"}}},
	}}})

	cursor, err := m.collection(projectsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return entity.CounterTotals{}, fmt.Errorf("mongodb aggregate project totals: %w", err)
	}
	defer cursor.Close(ctx)

	var totals entity.CounterTotals
	if cursor.Next(ctx) {
		if err = cursor.Decode(&totals); err != nil {
			return entity.CounterTotals{}, fmt.Errorf("mongodb decode project totals: %w", err)
		}
	}
	return totals, cursor.Err()
}

func (m *MongoDB) PopularLanguages(ctx context.Context, limit int) ([]entity.LanguageCount, error) {
	pipeline := mongo.Pipeline{
		{{"$group", bson.D{{"_id", "$language"}, {"count", bson.D{{"$sum", 1}}}}}},
		{{"$sort", bson.D{{"count", -1}, {"_id", 1}}}},
		{{"$limit", limit}},
	}

	cursor, err := m.collection(projectsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongodb aggregate languages: %w", err)
	}
	defer cursor.Close(ctx)

	languages := make([]entity.LanguageCount, 0)
	if err = cursor.All(ctx, &languages); err != nil {
		return nil, fmt.Errorf("mongodb decode languages: %w", err)
	}
	return languages, nil
}
