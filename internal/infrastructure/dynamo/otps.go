package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/domain"
)

// OTPRepo is the ephemeral one-time-code store. PK: email.
// The table has DynamoDB TTL enabled on expires_at, so stale entries are
// evicted without a sweep; callers still check expiry on read because TTL
// eviction is lazy.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Put stores the code, unconditionally replacing any live entry for the
// same email. The previous code becomes permanently unusable.
func (r *OTPRepo) Put(ctx context.Context, c *domain.OTPCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put otp: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

func (r *OTPRepo) Get(ctx context.Context, email string) (*domain.OTPCode, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("email", email),
		ConsistentRead: aws.Bool(true),
	}
	out, err := r.client.GetItem(ctx, input)
	if err != nil {
		// Reads are idempotent; retry once before surfacing the failure.
		out, err = r.client.GetItem(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("get otp: %v: %w", err, domain.ErrStoreUnavailable)
		}
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var c domain.OTPCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteIfCode atomically deletes the entry for email only if its stored code
// equals code, and reports whether anything was removed. Two concurrent
// validations of the same code race on this conditional delete; DynamoDB
// guarantees at most one of them observes deleted=true.
func (r *OTPRepo) DeleteIfCode(ctx context.Context, email, code string) (bool, error) {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("email", email),
		ConditionExpression:       aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("conditional delete otp: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return true, nil
}

// Delete unconditionally removes any entry for email. Deleting a missing
// entry is not an error.
func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return fmt.Errorf("delete otp: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}
