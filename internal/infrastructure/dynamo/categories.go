package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/bitjob/backend/internal/domain"
)

// CategoryRepo provides typed DynamoDB operations for the categories table.
// Categories are keyed by slug since that is how projects reference them.
type CategoryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCategoryRepo(client *dynamodb.Client, tableName string) *CategoryRepo {
	return &CategoryRepo{client: client, tableName: tableName}
}

func (r *CategoryRepo) Put(ctx context.Context, c *domain.Category) error {
	item, err := marshalItem(c)
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("slug", slug),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("category not found: %w", domain.ErrNotFound)
	}
	var c domain.Category
	if err := unmarshalItem(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Scan returns up to limit categories; limit <= 0 returns everything.
func (r *CategoryRepo) Scan(ctx context.Context, limit int32) ([]domain.Category, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, err
	}
	var categories []domain.Category
	if err := unmarshalItems(out.Items, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
