package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"roster-verifier/core/normalize"

	"github.com/minio/minio-go/v7"
)

const archivePrefix = "rosters"

// Archive stores the registry rosters fetched by reconciliation jobs as JSON objects,
// one object per job under rosters/<tournament>/<team>/<job>.json.
type Archive struct {
	client Client
	bucket string
}

// NewArchive creates an Archive writing to bucket.
func NewArchive(client Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// ObjectKey returns the object name of a job's roster. Teams are keyed by normalized name.
func ObjectKey(tournamentID uint, team, jobID string) string {
	return fmt.Sprintf("%s/%s.json", teamPrefix(tournamentID, team), jobID)
}

func teamPrefix(tournamentID uint, team string) string {
	t := strings.ReplaceAll(normalize.String(team), "/", "_")
	return fmt.Sprintf("%s/%d/%s", archivePrefix, tournamentID, t)
}

// Put stores snapshot as JSON and returns its object name.
func (a *Archive) Put(ctx context.Context, tournamentID uint, team, jobID string, snapshot any) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode roster: %w", err)
	}
	key := ObjectKey(tournamentID, team, jobID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// Get decodes the object key into out.
func (a *Archive) Get(ctx context.Context, key string, out any) error {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer obj.Close()
	if err := json.NewDecoder(obj).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// List returns the object names archived for a team, sorted.
func (a *Archive) List(ctx context.Context, tournamentID uint, team string) ([]string, error) {
	var keys []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    teamPrefix(tournamentID, team) + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list rosters: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Remove deletes an archived roster.
func (a *Archive) Remove(ctx context.Context, key string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
