package analysisjob

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoRepo stores jobs in a DynamoDB table with the string partition key "Id".
type DynamoRepo struct {
	client dynamoAPI

	tableName *string
}

func NewDynamoRepository(client *dynamodb.Client, tableName string) *DynamoRepo {
	return newDynamoRepository(client, tableName)
}

func newDynamoRepository(client dynamoAPI, tableName string) *DynamoRepo {
	return &DynamoRepo{
		client:    client,
		tableName: aws.String(tableName),
	}
}

func (r *DynamoRepo) Create(ctx context.Context, job *Job) error {
	return r.put(ctx, job, aws.String("attribute_not_exists(Id)"))
}

func (r *DynamoRepo) Update(ctx context.Context, job *Job) error {
	return r.put(ctx, job, aws.String("attribute_exists(Id)"))
}

func (r *DynamoRepo) put(ctx context.Context, job *Job, condition *string) error {
	marshaled, err := attributevalue.MarshalMap(job)
	if err != nil {
		return errors.Wrap(err, "marshal failed")
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           r.tableName,
		Item:                marshaled,
		ConditionExpression: condition,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) && aws.ToString(condition) == "attribute_exists(Id)" {
			return ErrNotFound
		}

		return errors.Wrap(err, "put failed")
	}

	return nil
}

func (r *DynamoRepo) Get(ctx context.Context, id string) (*Job, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: r.tableName,
		Key: map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "get failed")
	}

	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	job := new(Job)

	err = attributevalue.UnmarshalMap(out.Item, job)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal failed")
	}

	if job.ID == "" {
		return nil, ErrNotFound
	}

	return job, nil
}
