package sessionservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

const (
	dynamoDBTokenAttribute     = "token"
	dynamoDBCreatedAtAttribute = "createdAt"
)

// DynamoDBStore keeps each session as an item whose hash key is the token. Writes are
// conditional on the item's existence.
type DynamoDBStore struct {
	dynamodb dynamodbiface.DynamoDBAPI
	table    string
}

// NewDynamoDBStore creates a DynamoDBStore using the default AWS credential chain. Region and
// endpoint override the SDK defaults if they are not empty; endpoint is mainly useful for a local
// DynamoDB.
func NewDynamoDBStore(table, region, endpoint string) (*DynamoDBStore, error) {
	config := aws.NewConfig()
	if region != "" {
		config = config.WithRegion(region)
	}
	if endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	return newDynamoDBStoreWithClient(dynamodb.New(sess), table), nil
}

func newDynamoDBStoreWithClient(client dynamodbiface.DynamoDBAPI, table string) *DynamoDBStore {
	if table == "" {
		table = "sessions"
	}
	return &DynamoDBStore{dynamodb: client, table: table}
}

func (d *DynamoDBStore) key(token string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		dynamoDBTokenAttribute: {S: aws.String(token)},
	}
}

func (d *DynamoDBStore) Create(ctx context.Context, s Session) error {
	_, err := d.dynamodb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			dynamoDBTokenAttribute:     {S: aws.String(s.Token)},
			dynamoDBCreatedAtAttribute: {N: aws.String(strconv.FormatInt(s.CreatedAt.UnixMilli(), 10))},
		},
		ConditionExpression:      aws.String("attribute_not_exists(#token)"),
		ExpressionAttributeNames: map[string]*string{"#token": aws.String(dynamoDBTokenAttribute)},
	})
	if isConditionalCheckFailure(err) {
		return ErrSessionExists
	}
	return err
}

func (d *DynamoDBStore) Exists(ctx context.Context, token string) (bool, error) {
	out, err := d.dynamodb.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	return len(out.Item) != 0, nil
}

func (d *DynamoDBStore) Delete(ctx context.Context, token string) error {
	_, err := d.dynamodb.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(d.table),
		Key:                      d.key(token),
		ConditionExpression:      aws.String("attribute_exists(#token)"),
		ExpressionAttributeNames: map[string]*string{"#token": aws.String(dynamoDBTokenAttribute)},
	})
	if isConditionalCheckFailure(err) {
		return ErrNoSession
	}
	return err
}

func (d *DynamoDBStore) Close() error { return nil }

func isConditionalCheckFailure(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}
