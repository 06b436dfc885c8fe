package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-backend/application/ports"
)

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func TestPutThenGet(t *testing.T) {
	ctx := context.Background()
	client := new(MockDynamoDB)
	store := NewKeyValueStore(client, "canvas", "main", zap.NewNop())

	var saved map[string]types.AttributeValue
	client.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.TableName == "canvas"
	})).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*dynamodb.PutItemInput).Item
	}).Return(&dynamodb.PutItemOutput{}, nil)

	require.NoError(t, store.Put(ctx, "diagram-connections", []byte(`[]`)))
	require.NotNil(t, saved)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "CANVAS#main"}, saved["PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "KEY#diagram-connections"}, saved["SK"])

	client.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		sk, ok := in.Key["SK"].(*types.AttributeValueMemberS)
		return ok && sk.Value == "KEY#diagram-connections"
	})).Return(&dynamodb.GetItemOutput{Item: saved}, nil)

	got, err := store.Get(ctx, "diagram-connections")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
	client.AssertExpectations(t)
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()
	client := new(MockDynamoDB)
	client.On("GetItem", ctx, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewKeyValueStore(client, "canvas", "main", zap.NewNop()).Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrKeyNotFound)
}

func TestClientErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("throttled")
	client := new(MockDynamoDB)
	client.On("GetItem", ctx, mock.Anything).Return(nil, boom)
	client.On("PutItem", ctx, mock.Anything).Return(nil, boom)

	store := NewKeyValueStore(client, "canvas", "main", zap.NewNop())
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Put(ctx, "k", nil), boom)
}
