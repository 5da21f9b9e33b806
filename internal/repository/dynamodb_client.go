package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"truelive-router/internal/domain"
)

const skTranscript = "TRANSCRIPT"

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps one item per user holding the whole transcript.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// NewDynamoStore creates a DynamoDB-backed TranscriptStore.
func NewDynamoStore(api dynamodbAPI, tableName string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoStore{api: api, tableName: tableName, now: time.Now}, nil
}

// userPK returns the DynamoDB partition key for a user's transcript.
func userPK(userID string) string {
	return "USER#" + userID
}

func (s *DynamoStore) key(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK": &types.AttributeValueMemberS{Value: skTranscript},
	}
}

// Load reads the user's transcript item; a missing item is an empty transcript.
func (s *DynamoStore) Load(ctx context.Context, userID string) (domain.Transcript, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: Load get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Transcript{}, nil
	}
	t, err := itemToTranscript(out.Item)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: Load decode: %w", err)
	}
	return t, nil
}

// Save overwrites the user's transcript item.
func (s *DynamoStore) Save(ctx context.Context, userID string, t domain.Transcript) error {
	now := s.now().UTC()
	item := s.key(userID)
	item["messages"] = &types.AttributeValueMemberL{Value: turnsToList(t.Messages)}
	item["turns"] = &types.AttributeValueMemberN{Value: strconv.Itoa(len(t.Messages))}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: Save put item: %w", err)
	}
	return nil
}

func turnsToList(turns []domain.Turn) []types.AttributeValue {
	list := make([]types.AttributeValue, 0, len(turns))
	for _, m := range turns {
		fields := map[string]types.AttributeValue{
			"role":    &types.AttributeValueMemberS{Value: string(m.Role)},
			"content": &types.AttributeValueMemberS{Value: m.Content},
		}
		if ms := toMillis(m.Timestamp); ms != nil {
			fields["timestamp"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(*ms, 10)}
		}
		list = append(list, &types.AttributeValueMemberM{Value: fields})
	}
	return list
}

// itemToTranscript converts a DynamoDB attribute map to a Transcript.
func itemToTranscript(item map[string]types.AttributeValue) (domain.Transcript, error) {
	raw, ok := item["messages"]
	if !ok {
		return domain.Transcript{}, nil
	}
	list, ok := raw.(*types.AttributeValueMemberL)
	if !ok {
		return domain.Transcript{}, errors.New("repository: attribute \"messages\" is not a list")
	}

	turns := make([]domain.Turn, 0, len(list.Value))
	for i, v := range list.Value {
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return domain.Transcript{}, fmt.Errorf("repository: message %d is not a map", i)
		}
		role, err := strAttr(m.Value, "role")
		if err != nil {
			return domain.Transcript{}, fmt.Errorf("repository: message %d: %w", i, err)
		}
		content, err := strAttr(m.Value, "content")
		if err != nil {
			return domain.Transcript{}, fmt.Errorf("repository: message %d: %w", i, err)
		}
		ts, err := optionalMillisAttr(m.Value, "timestamp")
		if err != nil {
			return domain.Transcript{}, fmt.Errorf("repository: message %d: %w", i, err)
		}
		turns = append(turns, domain.Turn{Role: domain.Role(role), Content: content, Timestamp: ts})
	}
	return domain.Transcript{Messages: turns}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optionalMillisAttr(item map[string]types.AttributeValue, key string) (*time.Time, error) {
	v, ok := item[key]
	if !ok {
		return nil, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	ms, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return fromMillis(&ms), nil
}
