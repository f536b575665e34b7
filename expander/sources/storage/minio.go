package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"expander/expander/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

// TranscriptObject is the archived form of one journal day.
type TranscriptObject struct {
	Date       string    `json:"date"`
	DayNumber  int       `json:"day_number"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary,omitempty"`
	ArchivedAt time.Time `json:"archived_at"`
}

func NewMinIOClient(cfg config.Config) (*MinIOClient, error) {
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	bucket := cfg.MinIOBucket
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// ArchiveTranscript uploads a day's transcript and summary, keyed by date.
func (m *MinIOClient) ArchiveTranscript(ctx context.Context, date time.Time, dayNumber int, transcript, summary string) (string, error) {
	key := filepath.Join("transcripts", fmt.Sprintf("%s.json", date.Format("2006-01-02")))

	obj := TranscriptObject{
		Date:       date.Format("2006-01-02"),
		DayNumber:  dayNumber,
		Transcript: transcript,
		Summary:    summary,
		ArchivedAt: time.Now(),
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, strings.NewReader(string(data)), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *MinIOClient) GetTranscript(ctx context.Context, key string) (*TranscriptObject, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	var out TranscriptObject
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
