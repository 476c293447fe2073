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

func (m *MongoDB) AdminExists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	count, err := m.collection(adminsCollection).CountDocuments(ctx, bson.D{{"_id", oid}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb count admins: %w", err)
	}
	return count > 0, nil
}

func (m *MongoDB) GetAdmin(ctx context.Context, id string) (*entity.Admin, error) {
	oid, err := objectID(id, "admin")
	if err != nil {
		return nil, err
	}
	return m.findAdmin(ctx, bson.D{{"_id", oid}})
}

func (m *MongoDB) GetAdminByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	return m.findAdmin(ctx, bson.D{{"username", entity.NormalizeUsername(username)}})
}

func (m *MongoDB) findAdmin(ctx context.Context, filter bson.D) (*entity.Admin, error) {
	var admin entity.Admin
	if err := m.collection(adminsCollection).FindOne(ctx, filter).Decode(&admin); err != nil {
		return nil, m.findError(err, "admin")
	}
	return &admin, nil
}

// ListAdmins returns owners first, then admins by name.
func (m *MongoDB) ListAdmins(ctx context.Context) ([]entity.Admin, error) {
	opts := options.Find().SetSort(bson.D{{"role", -1}, {"name", 1}})
	cursor, err := m.collection(adminsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find admins: %w", err)
	}
	defer cursor.Close(ctx)

	admins := make([]entity.Admin, 0)
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("mongodb decode admins: %w", err)
	}
	return admins, nil
}

// GetAdminsByIDs returns the admins found among ids keyed by hex id.
func (m *MongoDB) GetAdminsByIDs(ctx context.Context, ids []string) (map[string]*entity.Admin, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	result := make(map[string]*entity.Admin, len(oids))
	if len(oids) == 0 {
		return result, nil
	}

	cursor, err := m.collection(adminsCollection).Find(ctx, bson.D{{"_id", bson.D{{"$in", oids}}}})
	if err != nil {
		return nil, fmt.Errorf("mongodb find admins: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var admin entity.Admin
		if err = cursor.Decode(&admin); err != nil {
			return nil, fmt.Errorf("mongodb decode admin: %w", err)
		}
		result[admin.IDHex()] = &admin
	}
	return result, cursor.Err()
}

func (m *MongoDB) InsertAdmin(ctx context.Context, admin *entity.Admin) error {
	res, err := m.collection(adminsCollection).InsertOne(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: username %q is taken", entity.ErrInvalidInput, admin.Username)
		}
		return fmt.Errorf("mongodb insert admin: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		admin.ID = oid
	}
	return nil
}

func (m *MongoDB) updateAdmin(ctx context.Context, id string, set bson.D) (*entity.Admin, error) {
	oid, err := objectID(id, "admin")
	if err != nil {
		return nil, err
	}
	set = append(set, bson.E{Key: "updated_at", Value: time.Now()})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var admin entity.Admin
	err = m.collection(adminsCollection).
		FindOneAndUpdate(ctx, bson.D{{"_id", oid}}, bson.D{{"$set", set}}, opts).
		Decode(&admin)
	if err != nil {
		return nil, m.findError(err, "admin")
	}
	return &admin, nil
}

// UpdateAdminProfile sets name and hashtags; quote is only touched when given.
func (m *MongoDB) UpdateAdminProfile(ctx context.Context, id, name string, quote *string, hashtags []string) (*entity.Admin, error) {
	set := bson.D{{"name", name}, {"hashtags", hashtags}}
	if quote != nil {
		set = append(set, bson.E{Key: "quote", Value: *quote})
	}
	return m.updateAdmin(ctx, id, set)
}

func (m *MongoDB) UpdateAdminPassword(ctx context.Context, id, hash string) error {
	_, err := m.updateAdmin(ctx, id, bson.D{{"password", hash}})
	return err
}

func (m *MongoDB) UpdateAdminPhoto(ctx context.Context, id, url, key string) (*entity.Admin, error) {
	return m.updateAdmin(ctx, id, bson.D{{"photo_url", url}, {"photo_key", key}})
}

func (m *MongoDB) SetAdminOnline(ctx context.Context, id string, online bool) error {
	_, err := m.updateAdmin(ctx, id, bson.D{{"is_online", online}, {"last_active", time.Now()}})
	return err
}
