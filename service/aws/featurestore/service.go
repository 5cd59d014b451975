package awsfeaturestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/elC0mpa/egress-doctor/model"
	"github.com/elC0mpa/egress-doctor/service"
)

// Key layout under the configured prefix.
const (
	featuresPrefix     = "features/"
	observationsPrefix = "observations/"
	transformKey       = "artifacts/transform.json"
	modelKey           = "artifacts/model.json"
	promptKey          = "prompts/anomaly_narrative.tmpl"
)

// S3 object metadata keys carrying artifact provenance.
const (
	metaSchemaVersion = "schema-version"
	metaCreatedAt     = "created-at"
	metaContentSHA256 = "content-sha256"
	metaFeatureWidth  = "feature-width"
)

func NewService(awsconfig aws.Config, bucket, prefix string) *featureStoreService {
	client := s3.NewFromConfig(awsconfig)
	return &featureStoreService{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// LatestBatch implements service.FeatureStore. It reads the most recently
// written parquet object under the features prefix. An empty prefix means the
// upstream feature job has not produced anything yet, reported as
// service.ErrNoBatch.
func (s *featureStoreService) LatestBatch(ctx context.Context) (*model.FeatureBatch, error) {
	key, err := s.latestKey(ctx, s.prefix+featuresPrefix)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, service.ErrNoBatch
	}

	blob, _, err := s.getObject(ctx, key)
	if err != nil {
		return nil, err
	}

	return decodeParquetBatch(ctx, blob)
}

// Observations reads every parquet object under the observations prefix and
// returns the identity rows, ordered by usage date. Used to assemble the
// training set.
func (s *featureStoreService) Observations(ctx context.Context) ([]model.UsageObservation, error) {
	keys, err := s.listKeys(ctx, s.prefix+observationsPrefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &model.EmptyInputError{Op: "load observations"}
	}

	var observations []model.UsageObservation
	for _, key := range keys {
		blob, _, err := s.getObject(ctx, key)
		if err != nil {
			return nil, err
		}
		batch, err := decodeParquetBatch(ctx, blob)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		for _, row := range batch.Rows {
			observations = append(observations, row.Observation)
		}
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})
	return observations, nil
}

func (s *featureStoreService) PutTransform(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error {
	return s.putArtifact(ctx, s.prefix+transformKey, blob, meta)
}

func (s *featureStoreService) GetTransform(ctx context.Context) ([]byte, model.ArtifactMetadata, error) {
	return s.getArtifact(ctx, s.prefix+transformKey)
}

func (s *featureStoreService) PutModel(ctx context.Context, blob []byte, meta model.ArtifactMetadata) error {
	return s.putArtifact(ctx, s.prefix+modelKey, blob, meta)
}

func (s *featureStoreService) GetModel(ctx context.Context) ([]byte, model.ArtifactMetadata, error) {
	return s.getArtifact(ctx, s.prefix+modelKey)
}

// Template implements service.PromptStore.
func (s *featureStoreService) Template(ctx context.Context) (string, error) {
	blob, _, err := s.getObject(ctx, s.prefix+promptKey)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

func (s *featureStoreService) putArtifact(ctx context.Context, key string, blob []byte, meta model.ArtifactMetadata) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(blob),
		Metadata: map[string]string{
			metaSchemaVersion: strconv.Itoa(meta.SchemaVersion),
			metaCreatedAt:     meta.CreatedAt.Format(time.RFC3339),
			metaContentSHA256: meta.ContentSHA256,
			metaFeatureWidth:  strconv.Itoa(meta.FeatureWidth),
		},
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return &model.ExternalCallError{Collaborator: "s3", Op: "PutObject", Err: err}
	}
	return nil
}

func (s *featureStoreService) getArtifact(ctx context.Context, key string) ([]byte, model.ArtifactMetadata, error) {
	blob, objectMeta, err := s.getObject(ctx, key)
	if err != nil {
		return nil, model.ArtifactMetadata{}, err
	}

	meta := model.ArtifactMetadata{
		ContentSHA256: objectMeta[metaContentSHA256],
	}
	meta.SchemaVersion, _ = strconv.Atoi(objectMeta[metaSchemaVersion])
	meta.FeatureWidth, _ = strconv.Atoi(objectMeta[metaFeatureWidth])
	if ts, parseErr := time.Parse(time.RFC3339, objectMeta[metaCreatedAt]); parseErr == nil {
		meta.CreatedAt = ts
	}
	return blob, meta, nil
}

func (s *featureStoreService) getObject(ctx context.Context, key string) ([]byte, map[string]string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil, fmt.Errorf("object %s: %w", key, service.ErrNoBatch)
		}
		return nil, nil, &model.ExternalCallError{Collaborator: "s3", Op: "GetObject", Retryable: true, Err: err}
	}
	defer output.Body.Close()

	blob, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, nil, &model.ExternalCallError{Collaborator: "s3", Op: "GetObject", Retryable: true, Err: err}
	}
	return blob, output.Metadata, nil
}

// latestKey returns the most recently modified key under prefix, or "" when
// the prefix is empty.
func (s *featureStoreService) latestKey(ctx context.Context, prefix string) (string, error) {
	var latest string
	var latestTime time.Time

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", &model.ExternalCallError{Collaborator: "s3", Op: "ListObjectsV2", Retryable: true, Err: err}
		}
		for _, object := range page.Contents {
			if object.LastModified == nil {
				continue
			}
			if latest == "" || object.LastModified.After(latestTime) {
				latest = aws.ToString(object.Key)
				latestTime = *object.LastModified
			}
		}
	}

	return latest, nil
}

func (s *featureStoreService) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &model.ExternalCallError{Collaborator: "s3", Op: "ListObjectsV2", Retryable: true, Err: err}
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}

	sort.Strings(keys)
	return keys, nil
}
