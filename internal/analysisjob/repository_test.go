package analysisjob

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/webloader/dashboard/pkg/webloaderapi"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJob() *Job {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	return &Job{
		ID:           "0b0f4a5e-3a4c-4a86-9d55-bf8b8d0e8a11",
		BackendID:    "4242",
		AnalysisType: "word_pairs",
		Status:       "started",
		Message:      "Spark job launched",
		State:        StateWatching,
		Attempts:     2,
		MaxAttempts:  12,
		Baseline:     &webloaderapi.ResultsSummary{TotalPages: 3, TotalWords: 90},
		SubmittedAt:  ts,
		UpdatedAt:    ts.Add(20 * time.Second),
	}
}

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	job := sampleJob()
	assert.ErrorIs(t, repo.Update(ctx, job), ErrNotFound)
	require.NoError(t, repo.Create(ctx, job))

	// Stored jobs are copies.
	job.State = StateReady
	job.Baseline.TotalPages = 100

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateWatching, got.State)
	assert.Equal(t, int64(3), got.Baseline.TotalPages)

	require.NoError(t, repo.Update(ctx, job))

	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReady, got.State)
	assert.Equal(t, int64(100), got.Baseline.TotalPages)
}

type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	puts  []*dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts = append(f.puts, in)

	id := in.Item["Id"].(*types.AttributeValueMemberS).Value
	_, exists := f.items[id]

	switch aws.ToString(in.ConditionExpression) {
	case "attribute_exists(Id)":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	case "attribute_not_exists(Id)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	f.items[id] = in.Item

	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := in.Key["Id"].(*types.AttributeValueMemberS).Value

	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func TestDynamoRepo(t *testing.T) {
	ctx := context.Background()
	db := newFakeDynamo()
	repo := newDynamoRepository(db, "analysis-jobs")

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	job := sampleJob()
	assert.ErrorIs(t, repo.Update(ctx, job), ErrNotFound)

	require.NoError(t, repo.Create(ctx, job))
	assert.Error(t, repo.Create(ctx, job))

	put := db.puts[len(db.puts)-1]
	assert.Equal(t, "analysis-jobs", aws.ToString(put.TableName))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	job.State = StateReady
	job.Summary = &webloaderapi.ResultsSummary{TotalPages: 4, TotalWords: 120}
	require.NoError(t, repo.Update(ctx, job))

	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReady, got.State)
	require.NotNil(t, got.Summary)
	assert.Equal(t, int64(120), got.Summary.TotalWords)
}

func TestDynamoRepo_ItemLayout(t *testing.T) {
	db := newFakeDynamo()
	repo := newDynamoRepository(db, "analysis-jobs")

	job := sampleJob()
	require.NoError(t, repo.Create(context.Background(), job))

	item := db.items[job.ID]
	assert.Equal(t, &types.AttributeValueMemberS{Value: job.ID}, item["Id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "watching"}, item["State"])
	assert.NotContains(t, item, "Summary")

	baseline, ok := item["Baseline"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, baseline.Value["TotalPages"])
}
