package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/roadwatch/backend/internal/domain"
)

// Collection names
const (
	// ReportsCollection holds one document per pothole report
	ReportsCollection = "pothole_reports"

	// ClusterStatusCollection holds one document per cluster, keyed by cluster ID
	ClusterStatusCollection = "cluster_status"
)

// Config selects the Firebase project and credentials
type Config struct {
	ProjectID       string
	CredentialsJSON string
	CredentialsFile string
}

// FirestoreRepository implements domain.ReportRepository and
// domain.ClusterStatusRepository on Cloud Firestore
type FirestoreRepository struct {
	client *firestore.Client
}

// NewClient initializes the Firebase app and returns its Firestore client.
// Without explicit credentials the application default credentials are used.
func NewClient(ctx context.Context, cfg Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: error initializing Firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: error getting Firestore client: %w", err)
	}
	return client, nil
}

// NewFirestoreRepository creates a repository on an existing client
func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{client: client}
}

// Close releases the underlying client
func (r *FirestoreRepository) Close() error {
	return r.client.Close()
}

// ListReports streams every report document. Documents that cannot be read as a
// report are skipped.
func (r *FirestoreRepository) ListReports(ctx context.Context) ([]domain.Report, error) {
	iter := r.client.Collection(ReportsCollection).Documents(ctx)
	defer iter.Stop()

	var reports []domain.Report
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: failed to read reports: %w", err)
		}
		if rep, ok := ReportFromDocument(doc.Ref.ID, doc.Data()); ok {
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

// SaveReport adds a report document and returns the report with its document ID
func (r *FirestoreRepository) SaveReport(ctx context.Context, report domain.Report) (domain.Report, error) {
	data := DocumentFromReport(report)

	if report.ID != "" {
		if _, err := r.client.Collection(ReportsCollection).Doc(report.ID).Set(ctx, data); err != nil {
			return domain.Report{}, fmt.Errorf("firestore: failed to save report: %w", err)
		}
		return report, nil
	}

	ref, _, err := r.client.Collection(ReportsCollection).Add(ctx, data)
	if err != nil {
		return domain.Report{}, fmt.Errorf("firestore: failed to save report: %w", err)
	}
	report.ID = ref.ID
	return report, nil
}

// ListClusterStatuses reads every cluster status document. Documents with an
// unknown status are skipped.
func (r *FirestoreRepository) ListClusterStatuses(ctx context.Context) ([]domain.ClusterStatusRecord, error) {
	iter := r.client.Collection(ClusterStatusCollection).Documents(ctx)
	defer iter.Stop()

	var records []domain.ClusterStatusRecord
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: failed to read cluster statuses: %w", err)
		}
		if rec, ok := ClusterStatusFromDocument(doc.Ref.ID, doc.Data()); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SaveClusterStatus overwrites the cluster's status document
func (r *FirestoreRepository) SaveClusterStatus(ctx context.Context, record domain.ClusterStatusRecord) error {
	_, err := r.client.Collection(ClusterStatusCollection).Doc(record.ClusterID).Set(ctx, DocumentFromClusterStatus(record))
	if err != nil {
		return fmt.Errorf("firestore: failed to save cluster status: %w", err)
	}
	return nil
}

// DocumentFromClusterStatus is the stored shape of a cluster status
func DocumentFromClusterStatus(rec domain.ClusterStatusRecord) map[string]interface{} {
	return map[string]interface{}{
		"status":     string(rec.Status),
		"updated_at": rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ClusterStatusFromDocument maps a stored status document, keyed by cluster ID
func ClusterStatusFromDocument(id string, data map[string]interface{}) (domain.ClusterStatusRecord, bool) {
	status, ok := domain.ParseClusterStatus(stringField(data, "status"))
	if !ok {
		return domain.ClusterStatusRecord{}, false
	}
	return domain.ClusterStatusRecord{
		ClusterID: id,
		Status:    status,
		UpdatedAt: timeField(data, "updated_at"),
	}, true
}

// Health reads at most one document to check connectivity
func (r *FirestoreRepository) Health(ctx context.Context) error {
	iter := r.client.Collection(ReportsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore: health check failed: %w", err)
	}
	return nil
}

// DocumentFromReport is the stored shape of a report
func DocumentFromReport(r domain.Report) map[string]interface{} {
	return map[string]interface{}{
		"latitude":   r.Latitude,
		"longitude":  r.Longitude,
		"road":       r.Road,
		"area":       r.Area,
		"severity":   string(r.Severity),
		"detections": r.Detections,
		"source":     r.Source,
		"notes":      r.Notes,
		"timestamp":  r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// ReportFromDocument maps a stored document to a report. Older documents keep
// coordinates as strings and timestamps as ISO strings without a zone. The
// boolean is false when the severity is unrecognized.
func ReportFromDocument(id string, data map[string]interface{}) (domain.Report, bool) {
	severity, ok := domain.ParseSeverity(stringField(data, "severity"))
	if !ok {
		return domain.Report{}, false
	}

	return domain.Report{
		ID:         id,
		Latitude:   floatField(data, "latitude"),
		Longitude:  floatField(data, "longitude"),
		Road:       stringField(data, "road"),
		Area:       stringField(data, "area"),
		Severity:   severity,
		Detections: int(floatField(data, "detections")),
		Source:     stringField(data, "source"),
		Notes:      stringField(data, "notes"),
		Timestamp:  timeField(data, "timestamp"),
	}, true
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

func floatField(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func timeField(data map[string]interface{}, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
