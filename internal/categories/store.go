package categories

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-divvit-tracking/internal/aws"
	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

// Items in the categories table share one partition key attribute:
//
//	article#<articleID>   -> category_id
//	category#<categoryID> -> tree
type articleItem struct {
	PK         string `dynamodbav:"pk"`
	CategoryID string `dynamodbav:"category_id"`
}

type treeItem struct {
	PK   string                  `dynamodbav:"pk"`
	Tree []tracking.CategoryNode `dynamodbav:"tree"`
}

// Store resolves article categories from DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a categories Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// CategoryTree implements tracking.CategoryLookup.
func (s *Store) CategoryTree(ctx context.Context, articleID string) ([]tracking.CategoryNode, error) {
	categoryID, err := s.CategoryIDByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if categoryID == "" {
		return nil, nil
	}
	return s.Tree(ctx, categoryID)
}

// CategoryIDByArticle returns the category an article is filed under, or ""
// if none.
func (s *Store) CategoryIDByArticle(ctx context.Context, articleID string) (string, error) {
	var item articleItem
	found, err := s.get(ctx, articlePK(articleID), &item)
	if err != nil || !found {
		return "", err
	}
	return item.CategoryID, nil
}

// Tree returns the category tree stored for categoryID.
func (s *Store) Tree(ctx context.Context, categoryID string) ([]tracking.CategoryNode, error) {
	var item treeItem
	found, err := s.get(ctx, categoryPK(categoryID), &item)
	if err != nil || !found {
		return nil, err
	}
	return item.Tree, nil
}

// PutArticleCategory files an article under a category.
func (s *Store) PutArticleCategory(ctx context.Context, articleID, categoryID string) error {
	return s.put(ctx, articleItem{PK: articlePK(articleID), CategoryID: categoryID})
}

// PutTree stores the tree for a category.
func (s *Store) PutTree(ctx context.Context, categoryID string, tree []tracking.CategoryNode) error {
	return s.put(ctx, treeItem{PK: categoryPK(categoryID), Tree: tree})
}

func (s *Store) get(ctx context.Context, pk string, out any) (bool, error) {
	res, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return false, fmt.Errorf("get item %s: %w", pk, err)
	}
	if len(res.Item) == 0 {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", pk, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, in any) error {
	item, err := attributevalue.MarshalMap(in)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func articlePK(articleID string) string   { return "article#" + articleID }
func categoryPK(categoryID string) string { return "category#" + categoryID }
