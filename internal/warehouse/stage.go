package warehouse

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/propfolio/gl-etl/internal/logger"
)

// GCSStager stages exported CSV files through a Cloud Storage bucket into
// BigQuery staging tables. Writing an object with the same name overwrites
// the previous run's file for that name, and the load job tolerates zero bad
// records: one malformed row aborts the whole load.
type GCSStager struct {
	storageClient  *storage.Client
	bqClient       *bigquery.Client
	bucket         string
	projectID      string
	stagingDataset string
}

// NewGCSStager wires a stager from already-open storage and BigQuery
// clients. The caller owns both clients' lifecycles.
func NewGCSStager(storageClient *storage.Client, bqClient *bigquery.Client, bucket, projectID, stagingDataset string) *GCSStager {
	return &GCSStager{
		storageClient:  storageClient,
		bqClient:       bqClient,
		bucket:         bucket,
		projectID:      projectID,
		stagingDataset: stagingDataset,
	}
}

// Stage uploads the file at localPath to the staging bucket under
// staging/<table>/<filename>, then bulk-loads it into the staging table.
func (s *GCSStager) Stage(ctx context.Context, localPath, table string) error {
	log := logger.FromContext(ctx)

	objectName := path.Join("staging", table, filepath.Base(localPath))
	if err := s.upload(ctx, localPath, objectName); err != nil {
		return fmt.Errorf("uploading %s to gs://%s/%s: %w", localPath, s.bucket, objectName, err)
	}
	log.Debug().Str("object", objectName).Str("table", table).Msg("Uploaded staging file")

	if err := s.load(ctx, objectName, table); err != nil {
		return fmt.Errorf("loading gs://%s/%s into %s.%s: %w", s.bucket, objectName, s.stagingDataset, table, err)
	}
	log.Info().Str("table", table).Msg("Staged file loaded into staging table")
	return nil
}

func (s *GCSStager) upload(ctx context.Context, localPath, objectName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	w := s.storageClient.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copying file to object writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing upload: %w", err)
	}
	return nil
}

func (s *GCSStager) load(ctx context.Context, objectName, table string) error {
	gcsRef := bigquery.NewGCSReference(fmt.Sprintf("gs://%s/%s", s.bucket, objectName))
	gcsRef.SourceFormat = bigquery.CSV
	gcsRef.SkipLeadingRows = 1
	gcsRef.AllowQuotedNewlines = true
	gcsRef.MaxBadRecords = 0

	loader := s.bqClient.DatasetInProject(s.projectID, s.stagingDataset).Table(table).LoaderFrom(gcsRef)
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("running load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for load job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("load job error: %w", err)
	}
	return nil
}
