package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"yd-go/internal/yd"
)

// dynamoItem is the table row. The table's partition key is "key" (S).
type dynamoItem struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

// DynamoDBStorage keeps each item as one row of a DynamoDB table.
type DynamoDBStorage struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoDBStorage creates a store on table. endpoint overrides the
// service URL, for DynamoDB Local.
func NewDynamoDBStorage(ctx context.Context, table, region, endpoint string) (*DynamoDBStorage, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb storage requires dynamodb_table to be set")
	}
	cfg, err := loadAWSConfig(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &DynamoDBStorage{client: client, tableName: table}, nil
}

func itemKeyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}

func (d *DynamoDBStorage) GetItem(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	resp, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            itemKeyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return "", false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return "", false, fmt.Errorf("unmarshal error: %w", err)
	}
	return item.Value, true, nil
}

func (d *DynamoDBStorage) SetItem(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	av, err := attributevalue.MarshalMap(dynamoItem{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoDBStorage) RemoveItem(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       itemKeyAttr(key),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem failed: %w", err)
	}
	return nil
}

func (d *DynamoDBStorage) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var keys []string
	p := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:            aws.String(d.tableName),
		ProjectionExpression: aws.String("#k"),
		ExpressionAttributeNames: map[string]string{
			"#k": "key",
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Scan failed: %w", err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		for _, it := range items {
			keys = append(keys, it.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ yd.Storage = (*DynamoDBStorage)(nil)
