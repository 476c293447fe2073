package repository

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/fileurl"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps uploaded files in the application database and serves
// them through signed /api/files links.
type GridFSStore struct {
	db     *MongoDB
	signer *fileurl.Signer
}

func NewGridFSStore(db *MongoDB, signer *fileurl.Signer) *GridFSStore {
	return &GridFSStore{db: db, signer: signer}
}

func (s *GridFSStore) bucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db.client.Database(s.db.database))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return bucket, nil
}

// Upload stores the file and returns its key and signed URL. The stream is
// cut at limit+1 bytes so oversized uploads fail without being read fully.
func (s *GridFSStore) Upload(ctx context.Context, filename string, reader io.Reader, limit int64, meta entity.FileMetadata) (*entity.StoredFile, error) {
	bucket, err := s.bucket()
	if err != nil {
		return nil, err
	}

	uploadOpts := options.GridFSUpload().SetMetadata(meta)
	uploadStream, err := bucket.OpenUploadStream(path.Base(filename), uploadOpts)
	if err != nil {
		return nil, fmt.Errorf("gridfs open upload: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = uploadStream.SetWriteDeadline(deadline)
	}

	size, err := io.Copy(uploadStream, io.LimitReader(reader, limit+1))
	if err == nil && size > limit {
		err = entity.FileTooLargeError(filename, size, limit)
	}
	if err != nil {
		_ = uploadStream.Abort()
		if errors.Is(err, entity.ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("gridfs copy: %w", err)
	}

	if err = uploadStream.Close(); err != nil {
		return nil, fmt.Errorf("gridfs close upload: %w", err)
	}

	key := uploadStream.FileID.(primitive.ObjectID).Hex()
	return &entity.StoredFile{
		Key:  key,
		URL:  s.signer.URL(key),
		Size: size,
	}, nil
}

// Open returns the file name, metadata and a stream the caller must close.
func (s *GridFSStore) Open(ctx context.Context, key string) (string, entity.FileMetadata, io.ReadCloser, error) {
	fileID, err := objectID(key, "file")
	if err != nil {
		return "", entity.FileMetadata{}, nil, err
	}
	bucket, err := s.bucket()
	if err != nil {
		return "", entity.FileMetadata{}, nil, err
	}

	stream, err := bucket.OpenDownloadStream(fileID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return "", entity.FileMetadata{}, nil, fmt.Errorf("file %s: %w", key, entity.ErrNotFound)
		}
		return "", entity.FileMetadata{}, nil, fmt.Errorf("gridfs open download: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	file := stream.GetFile()
	var meta entity.FileMetadata
	if len(file.Metadata) > 0 {
		if err = bson.Unmarshal(file.Metadata, &meta); err != nil {
			s.db.log.Warn("gridfs metadata", "file", key, "error", err.Error())
		}
	}

	return file.Name, meta, stream, nil
}

func (s *GridFSStore) Delete(ctx context.Context, key string) error {
	fileID, err := objectID(key, "file")
	if err != nil {
		return err
	}
	bucket, err := s.bucket()
	if err != nil {
		return err
	}
	if err = bucket.DeleteContext(ctx, fileID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}
