package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-identity-api/internal/domain"
)

// TTLStore is a keyed-expiry string store backed by the verifications table.
// PK: kv_key, attrs: kv_value, expires_at (Unix seconds, registered as the
// table's TTL attribute).
//
// DynamoDB reaps expired items lazily (up to ~48h after expiry), so every read
// path checks expires_at itself. An expired-but-unreaped entry is therefore
// indistinguishable from one that was never written.
type TTLStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewTTLStore(client *dynamodb.Client, tableName string) *TTLStore {
	return &TTLStore{client: client, tableName: tableName}
}

// Set upserts the value under key with the given time-to-live. PutItem
// overwrites any existing item, so a live entry under the same key is
// superseded in a single call.
func (s *TTLStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"kv_key":     &types.AttributeValueMemberS{Value: key},
			"kv_value":   &types.AttributeValueMemberS{Value: value},
			"expires_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the value under key. Absent and expired entries both yield
// domain.ErrNotFound.
func (s *TTLStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey("kv_key", key),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("key %s: %w", key, domain.ErrNotFound)
	}
	exp, ok := out.Item["expires_at"].(*types.AttributeValueMemberN)
	if !ok {
		return "", fmt.Errorf("key %s has no expiry", key)
	}
	expiresAt, err := strconv.ParseInt(exp.Value, 10, 64)
	if err != nil {
		return "", fmt.Errorf("key %s: parse expiry: %w", key, err)
	}
	if expiresAt <= time.Now().Unix() {
		return "", fmt.Errorf("key %s: %w", key, domain.ErrNotFound)
	}
	val, ok := out.Item["kv_value"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("key %s has no value", key)
	}
	return val.Value, nil
}

func (s *TTLStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey("kv_key", key),
	})
	return err
}

// CompareAndDelete atomically deletes the entry under key iff its value equals
// expected and it has not expired. Returns true when the delete happened.
// A condition failure (missing key, expired entry, or value mismatch) leaves
// the item untouched and returns false.
func (s *TTLStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 strKey("kv_key", key),
		ConditionExpression: aws.String("kv_value = :v AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v":   &types.AttributeValueMemberS{Value: expected},
			":now": &types.AttributeValueMemberN{Value: now},
		},
	})
	if err != nil {
		var ccfe *types.ConditionalCheckFailedException
		if errors.As(err, &ccfe) {
			return false, nil
		}
		return false, fmt.Errorf("conditional delete %s: %w", key, err)
	}
	return true, nil
}
