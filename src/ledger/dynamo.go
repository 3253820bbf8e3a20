package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

const (
	recordPartition  = "anomalies"
	counterPartition = "meta"
)

// DynamoLedger keeps the append-only log in a single DynamoDB table. Positions
// come from an atomic counter item, so append order is total across writers;
// records are stored under a fixed partition with the position as sort key.
type DynamoLedger struct {
	client    *dynamodb.DynamoDB
	tableName string
}

type dynamoRecord struct {
	PK          string `dynamodbav:"PK"`
	Position    uint64 `dynamodbav:"Position"`
	Timestamp   int64  `dynamodbav:"Timestamp"`
	SensorID    string `dynamodbav:"SensorID"`
	DataValue   int64  `dynamodbav:"DataValue"`
	AnomalyType string `dynamodbav:"AnomalyType"`
	Explanation string `dynamodbav:"Explanation"`
}

// NewDynamoLedger builds the client and verifies the table is reachable;
// callers treat an error here as process-fatal.
func NewDynamoLedger(ctx context.Context, region, tableName string) (*DynamoLedger, error) {
	sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))

	l := &DynamoLedger{
		client:    dynamodb.New(sess),
		tableName: tableName,
	}

	_, err := l.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return l, nil
}

func (l *DynamoLedger) Append(ctx context.Context, record types.AnomalyRecord) (uint64, error) {
	position, err := l.nextPosition(ctx)
	if err != nil {
		return 0, err
	}

	item, err := dynamodbattribute.MarshalMap(dynamoRecord{
		PK:          recordPartition,
		Position:    position,
		Timestamp:   record.Timestamp,
		SensorID:    record.SensorID,
		DataValue:   record.DataValue,
		AnomalyType: record.AnomalyType,
		Explanation: record.Explanation,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to marshal record: %v", ErrRejected, err)
	}

	_, err = l.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      item,
	})
	if err != nil {
		return 0, classifyDynamoError(err)
	}
	return position, nil
}

func (l *DynamoLedger) ListAll(ctx context.Context) ([]CommittedRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(recordPartition)},
		},
		ScanIndexForward: aws.Bool(true), // ledger append order
	}

	var records []CommittedRecord
	for {
		output, err := l.client.QueryWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		var page []dynamoRecord
		if err := dynamodbattribute.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, fmt.Errorf("%w: failed to unmarshal records: %v", ErrUnavailable, err)
		}
		for _, r := range page {
			records = append(records, CommittedRecord{
				AnomalyRecord: types.AnomalyRecord{
					Timestamp:   r.Timestamp,
					SensorID:    r.SensorID,
					DataValue:   r.DataValue,
					AnomalyType: r.AnomalyType,
					Explanation: r.Explanation,
				},
				Position: r.Position,
			})
		}

		if output.LastEvaluatedKey == nil {
			return records, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}

// nextPosition atomically increments the counter item and returns the new
// value. Positions start at 1.
func (l *DynamoLedger) nextPosition(ctx context.Context) (uint64, error) {
	output, err := l.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"PK":       {S: aws.String(counterPartition)},
			"Position": {N: aws.String("0")},
		},
		UpdateExpression: aws.String("ADD NextPosition :one"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":one": {N: aws.String("1")},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueUpdatedNew),
	})
	if err != nil {
		return 0, classifyDynamoError(err)
	}

	attr, ok := output.Attributes["NextPosition"]
	if !ok || attr.N == nil {
		return 0, fmt.Errorf("%w: counter item missing NextPosition", ErrRejected)
	}
	position, err := strconv.ParseUint(*attr.N, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad counter value %q", ErrRejected, *attr.N)
	}
	return position, nil
}

func classifyDynamoError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case request.CanceledErrorCode:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		case dynamodb.ErrCodeProvisionedThroughputExceededException,
			dynamodb.ErrCodeRequestLimitExceeded,
			dynamodb.ErrCodeItemCollectionSizeLimitExceededException,
			"ValidationException":
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
