// Package dynamodb stores canvas values in a DynamoDB table keyed by canvas.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"canvas-backend/application/ports"
)

// API is the part of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// kvItem represents the DynamoDB item structure for one stored value
type kvItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	CanvasID   string `dynamodbav:"CanvasID"`
	Key        string `dynamodbav:"Key"`
	Value      []byte `dynamodbav:"Value"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// KeyValueStore implements ports.KeyValueStore on a single-table design:
// PK is CANVAS#<id>, SK is KEY#<key>.
type KeyValueStore struct {
	client    API
	tableName string
	canvasID  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewKeyValueStore creates a store for one canvas.
func NewKeyValueStore(client API, tableName, canvasID string, logger *zap.Logger) *KeyValueStore {
	return &KeyValueStore{
		client:    client,
		tableName: tableName,
		canvasID:  canvasID,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *KeyValueStore) partitionKey() string {
	return fmt.Sprintf("CANVAS#%s", s.canvasID)
}

func sortKey(key string) string {
	return fmt.Sprintf("KEY#%s", key)
}

// Get retrieves the value under key
func (s *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: s.partitionKey()},
			"SK": &types.AttributeValueMemberS{Value: sortKey(key)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, ports.ErrKeyNotFound
	}

	var item kvItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return item.Value, nil
}

// Put stores value under key
func (s *KeyValueStore) Put(ctx context.Context, key string, value []byte) error {
	item := kvItem{
		PK:         s.partitionKey(),
		SK:         sortKey(key),
		EntityType: "CANVAS_VALUE",
		CanvasID:   s.canvasID,
		Key:        key,
		Value:      value,
		UpdatedAt:  s.now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}

	s.logger.Debug("Stored canvas value",
		zap.String("canvasID", s.canvasID),
		zap.String("key", key),
		zap.Int("bytes", len(value)),
	)
	return nil
}

var _ ports.KeyValueStore = (*KeyValueStore)(nil)
