package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/pageza/nutrichef/backend/internal/middleware"
)

func failedEntry() *Entry {
	return &Entry{
		ID:          uuid.New().String(),
		RequestID:   "req-1",
		Provider:    "gemini",
		Model:       "gemini-2.5-flash",
		Goal:        "weight loss",
		Ingredients: "chicken, spinach, rice",
		Outcome:     "MissingFields",
		Error:       "[MissingFields] model output is missing required fields: description",
		Fields:      "description",
		DurationMS:  120,
		RawResponse: `{"title":"X"}`,
		CreatedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func okEntry() *Entry {
	e := failedEntry()
	e.ID = uuid.New().String()
	e.Outcome = OutcomeOK
	e.Error = ""
	e.Fields = ""
	e.RawResponse = ""
	return e
}

func TestGormSink(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sink := NewGormSink(db)
	require.NoError(t, sink.Migrate())

	ctx := context.Background()
	failed := failedEntry()
	ok := okEntry()
	ok.CreatedAt = failed.CreatedAt.Add(time.Minute)
	require.NoError(t, sink.Append(ctx, failed))
	require.NoError(t, sink.Append(ctx, ok))

	all, err := sink.Recent(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ok.ID, all[0].ID)

	failures, err := sink.Recent(ctx, 10, true)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, failed.ID, failures[0].ID)
	assert.Equal(t, `{"title":"X"}`, failures[0].RawResponse)
	assert.Equal(t, "description", failures[0].Fields)
}

type fakeStream struct {
	redis.Cmdable
	mu   sync.Mutex
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.args = append(f.args, a)
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal("1-0")
	return cmd
}

func TestRedisSink(t *testing.T) {
	stream := &fakeStream{}
	sink := NewRedisSink(stream, "recipe:generations", 0)

	entry := failedEntry()
	require.NoError(t, sink.Append(context.Background(), entry))

	require.Len(t, stream.args, 1)
	args := stream.args[0]
	assert.Equal(t, "recipe:generations", args.Stream)
	assert.Equal(t, int64(defaultStreamMaxLen), args.MaxLen)
	assert.True(t, args.Approx)

	values, ok := args.Values.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, entry.ID, values["id"])
	assert.Equal(t, "MissingFields", values["outcome"])
	assert.Equal(t, `{"title":"X"}`, values["raw_response"])
	assert.Equal(t, "2026-03-14T09:30:00Z", values["created_at"])
}

func TestRedisSinkError(t *testing.T) {
	stream := &fakeStream{err: errors.New("connection refused")}
	sink := NewRedisSink(stream, "s", 5)

	err := sink.Append(context.Background(), failedEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

type fakeS3 struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	bodies [][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkArchivesFailuresOnly(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3Sink(client, "audit-bucket")
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, okEntry()))
	assert.Empty(t, client.inputs)

	entry := failedEntry()
	require.NoError(t, sink.Append(ctx, entry))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "audit-bucket", aws.ToString(in.Bucket))
	assert.Equal(t, "failures/2026-03-14/"+entry.ID+".json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))

	var stored Entry
	require.NoError(t, json.Unmarshal(client.bodies[0], &stored))
	assert.Equal(t, entry.RawResponse, stored.RawResponse)
	assert.Equal(t, entry.Outcome, stored.Outcome)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, okEntry()))
	require.NoError(t, sink.Append(ctx, failedEntry()))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	fields := entries[1].ContextMap()
	assert.Equal(t, "MissingFields", fields["outcome"])
	assert.Equal(t, `{"title":"X"}`, fields["raw_response"])
	assert.Equal(t, "description", fields["fields"])
}

type recordingSink struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
}

func (r *recordingSink) Append(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

func TestMulti(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{err: errors.New("disk full")}
	third := &recordingSink{}

	core, logs := observer.New(zapcore.WarnLevel)
	m := NewMulti(zap.New(core), first, nil, second, third)
	assert.Equal(t, 3, m.Len())

	err := m.Append(context.Background(), failedEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Len(t, first.entries, 1)
	assert.Len(t, second.entries, 1)
	assert.Len(t, third.entries, 1)
	assert.Equal(t, 1, logs.FilterMessage("audit sink failed").Len())
}

func TestMultiEmpty(t *testing.T) {
	m := NewMulti(zap.NewNop())
	assert.NoError(t, m.Append(context.Background(), okEntry()))
}

func TestEntryRequestIDColumnFitsAcceptedIDs(t *testing.T) {
	entrySchema, err := schema.Parse(&Entry{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := entrySchema.LookUpField("RequestID")
	require.NotNil(t, field)
	assert.GreaterOrEqual(t, field.Size, middleware.MaxRequestIDLen)
}

func TestGormSinkStoresLongRequestID(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	require.NoError(t, err)
	sink := NewGormSink(db)
	require.NoError(t, sink.Migrate())

	entry := failedEntry()
	entry.RequestID = strings.Repeat("r", middleware.MaxRequestIDLen)
	require.NoError(t, sink.Append(context.Background(), entry))

	stored, err := sink.Recent(context.Background(), 1, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, entry.RequestID, stored[0].RequestID)
}
