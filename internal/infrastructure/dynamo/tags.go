package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/bitjob/backend/internal/domain"
)

// TagRepo provides typed DynamoDB operations for the tags table, keyed by name.
type TagRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTagRepo(client *dynamodb.Client, tableName string) *TagRepo {
	return &TagRepo{client: client, tableName: tableName}
}

func (r *TagRepo) Put(ctx context.Context, t *domain.Tag) error {
	item, err := marshalItem(t)
	if err != nil {
		return fmt.Errorf("marshal tag: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TagRepo) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("name", name),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tag not found: %w", domain.ErrNotFound)
	}
	var t domain.Tag
	if err := unmarshalItem(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) Scan(ctx context.Context) ([]domain.Tag, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var tags []domain.Tag
	if err := unmarshalItems(out.Items, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
