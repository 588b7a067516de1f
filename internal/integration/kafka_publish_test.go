//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/adapter/kafka"
	"github.com/couchcryptid/storm-site-risk/internal/config"
	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/couchcryptid/storm-site-risk/internal/monitor"
	"github.com/couchcryptid/storm-site-risk/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-site-risk-reports"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("site-risk-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}))
}

type publishedReport struct {
	Report  domain.SiteReport
	Key     string
	Headers map[string]string
}

func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.SiteReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return publishedReport{Report: report, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func testConfig(broker string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSinkTopic:     testSinkTopic,
		BatchSize:          50,
		BatchFlushInterval: 100 * time.Millisecond,
	}
}

func austin() domain.Site {
	return domain.Site{
		ID:          "austin",
		Name:        "Austin Solar Farm",
		Description: "Panels along the Travis County line",
		Type:        domain.SiteTypeSolarArray,
		Coordinates: []domain.Coordinate{
			{Lon: -97.75, Lat: 30.26}, {Lon: -97.73, Lat: 30.26},
			{Lon: -97.73, Lat: 30.28}, {Lon: -97.75, Lat: 30.28},
		},
	}
}

func TestKafkaWriter_PublishesReports(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	writer := kafka.NewWriter(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	assessedAt := time.Date(2024, time.April, 26, 22, 0, 0, 0, time.UTC)
	report := domain.SiteReport{
		SiteID:               "austin",
		SiteName:             "Austin Solar Farm",
		SiteType:             domain.SiteTypeSolarArray,
		Risk:                 domain.RiskAssessment{RiskLevel: 72, RiskCategory: domain.RiskSevere, PrimaryRiskFactors: []string{"Flood Warning (Moderate)"}},
		HighestAlertSeverity: domain.SeverityModerate,
		AssessedAt:           assessedAt,
	}
	require.NoError(t, writer.LoadBatch(ctx, []domain.SiteReport{report}))

	got := readReport(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "austin", got.Key)
	assert.Equal(t, "severe", got.Headers["risk_category"])
	assert.Equal(t, "2024-04-26T22:00:00Z", got.Headers["assessed_at"])
	assert.Equal(t, 72, got.Report.Risk.RiskLevel)
	assert.Equal(t, domain.SeverityModerate, got.Report.HighestAlertSeverity)
}

// staticSource returns the same alerts for every point.
type staticSource []domain.RawAlert

func (s staticSource) FetchAlerts(context.Context, float64, float64) ([]domain.RawAlert, error) {
	return s, nil
}

type oneSite struct{ site domain.Site }

func (o oneSite) ListSites(context.Context) ([]domain.Site, error) { return []domain.Site{o.site}, nil }
func (o oneSite) GetSite(context.Context, string) (domain.Site, error) {
	return o.site, nil
}
func (o oneSite) CreateSite(_ context.Context, s domain.Site) (domain.Site, error) { return s, nil }
func (o oneSite) UpdateSite(_ context.Context, s domain.Site) (domain.Site, error) { return s, nil }
func (o oneSite) DeleteSite(context.Context, string) error                        { return nil }

type noSnapshots struct{}

func (noSnapshots) SaveSnapshot(context.Context, domain.WeatherSnapshot) error { return nil }
func (noSnapshots) ListSnapshots(context.Context, string, int) ([]domain.WeatherSnapshot, error) {
	return nil, nil
}

func TestMonitorRefresh_PublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	writer := kafka.NewWriter(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	source := staticSource{{
		ID:       "urn:oid:2.49.0.1.840.0.flood",
		Event:    "Flood Warning",
		Severity: "Moderate",
		Urgency:  "Expected",
		Headline: "Flood Warning issued for Travis County",
		AreaDesc: "Travis County; Hays",
	}}

	reports := monitor.NewReportStore()
	assessor := monitor.NewAssessor(source, 2, discardLogger())
	m := monitor.New(oneSite{austin()}, noSnapshots{}, writer, assessor, reports,
		discardLogger(), observability.NewMetricsForTesting(),
		monitor.Options{Schedule: "@every 1h", PublishRetries: 3})

	require.NoError(t, m.Refresh(ctx))
	require.NoError(t, m.CheckReadiness(ctx))

	got := readReport(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "austin", got.Key)
	assert.Equal(t, "Austin Solar Farm", got.Report.SiteName)
	require.Equal(t, 1, got.Report.AlertCount())
	assert.Equal(t, "Flood Warning", got.Report.Matches[0].Alert.Event)
	assert.NotEmpty(t, got.Headers["risk_category"])
}
