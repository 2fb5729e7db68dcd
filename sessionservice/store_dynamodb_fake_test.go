package sessionservice

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// fakeDynamoDB implements just the calls DynamoDBStore makes, including the two condition
// expressions it uses.
type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI
	items map[string]map[string]*dynamodb.AttributeValue
	lock  sync.Mutex
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]map[string]*dynamodb.AttributeValue)}
}

func conditionFailed() error {
	return awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)
}

func (f *fakeDynamoDB) PutItemWithContext(
	_ aws.Context,
	in *dynamodb.PutItemInput,
	_ ...request.Option,
) (*dynamodb.PutItemOutput, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	key := aws.StringValue(in.Item[dynamoDBTokenAttribute].S)
	if aws.StringValue(in.ConditionExpression) == "attribute_not_exists(#token)" {
		if _, ok := f.items[key]; ok {
			return nil, conditionFailed()
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) GetItemWithContext(
	_ aws.Context,
	in *dynamodb.GetItemInput,
	_ ...request.Option,
) (*dynamodb.GetItemOutput, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[aws.StringValue(in.Key[dynamoDBTokenAttribute].S)]}, nil
}

func (f *fakeDynamoDB) DeleteItemWithContext(
	_ aws.Context,
	in *dynamodb.DeleteItemInput,
	_ ...request.Option,
) (*dynamodb.DeleteItemOutput, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	key := aws.StringValue(in.Key[dynamoDBTokenAttribute].S)
	if aws.StringValue(in.ConditionExpression) == "attribute_exists(#token)" {
		if _, ok := f.items[key]; !ok {
			return nil, conditionFailed()
		}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}
