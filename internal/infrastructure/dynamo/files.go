package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bitjob/backend/internal/domain"
)

// ProjectFileRepo stores attachment metadata; the binary payload lives in S3.
type ProjectFileRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProjectFileRepo(client *dynamodb.Client, tableName string) *ProjectFileRepo {
	return &ProjectFileRepo{client: client, tableName: tableName}
}

func (r *ProjectFileRepo) Put(ctx context.Context, f *domain.ProjectFile) error {
	item, err := marshalItem(f)
	if err != nil {
		return fmt.Errorf("marshal project file: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ProjectFileRepo) Get(ctx context.Context, fileID string) (*domain.ProjectFile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("file_id", fileID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	var f domain.ProjectFile
	if err := unmarshalItem(out.Item, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *ProjectFileRepo) ListByProject(ctx context.Context, projectID string) ([]domain.ProjectFile, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("project_id-index"),
		KeyConditionExpression:    aws.String("#p = :v"),
		ExpressionAttributeNames:  map[string]string{"#p": "project_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: projectID}},
	})
	if err != nil {
		return nil, err
	}
	var files []domain.ProjectFile
	if err := unmarshalItems(out.Items, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *ProjectFileRepo) Delete(ctx context.Context, fileID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("file_id", fileID),
	})
	return err
}
