package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bitjob/backend/internal/domain"
)

// ProjectRepo provides typed DynamoDB operations for the projects table.
type ProjectRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProjectRepo(client *dynamodb.Client, tableName string) *ProjectRepo {
	return &ProjectRepo{client: client, tableName: tableName}
}

func (r *ProjectRepo) Put(ctx context.Context, p *domain.Project) error {
	item, err := marshalItem(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("slug-index"),
		KeyConditionExpression:    aws.String("#s = :v"),
		ExpressionAttributeNames:  map[string]string{"#s": "slug"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: slug}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}
	var p domain.Project
	if err := unmarshalItem(out.Items[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, projectID string, updates map[string]interface{}) error {
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("project_id", projectID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *ProjectRepo) Delete(ctx context.Context, projectID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("project_id", projectID),
	})
	return err
}

// Scan returns projects matching the filter. Budget and deadline range
// checks are applied in memory after the scan since DynamoDB cannot compare
// the string-encoded decimal budget numerically.
func (r *ProjectRepo) Scan(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}

	var exprs []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	if filter.CategorySlug != "" {
		exprs = append(exprs, "#c = :c")
		names["#c"] = "category_slug"
		values[":c"] = &types.AttributeValueMemberS{Value: filter.CategorySlug}
	}
	if filter.Status != "" {
		exprs = append(exprs, "#st = :st")
		names["#st"] = "status"
		values[":st"] = &types.AttributeValueMemberS{Value: filter.Status}
	}
	if len(exprs) > 0 {
		filterExpr := exprs[0]
		for _, e := range exprs[1:] {
			filterExpr += " AND " + e
		}
		input.FilterExpression = aws.String(filterExpr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, err
	}
	var projects []domain.Project
	if err := unmarshalItems(out.Items, &projects); err != nil {
		return nil, err
	}

	filtered := projects[:0]
	for _, p := range projects {
		if matchesRanges(&p, filter) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func matchesRanges(p *domain.Project, f domain.ProjectFilter) bool {
	if f.MinBudget != nil && (p.Budget == nil || p.Budget.LessThan(*f.MinBudget)) {
		return false
	}
	if f.MaxBudget != nil && (p.Budget == nil || p.Budget.GreaterThan(*f.MaxBudget)) {
		return false
	}
	if f.DeadlineAfter != nil && (p.Deadline == nil || p.Deadline.Before(*f.DeadlineAfter)) {
		return false
	}
	if f.DeadlineBefore != nil && (p.Deadline == nil || p.Deadline.After(*f.DeadlineBefore)) {
		return false
	}
	return true
}
