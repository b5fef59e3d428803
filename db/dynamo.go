package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/jsphweid/simon/model"
)

// DynamoStore keeps scores in a DynamoDB table keyed by session id (PK).
type DynamoStore struct {
	client *dynamodb.DynamoDB
	table  string
}

func NewDynamoStore(endpoint string, region string, table string) (*DynamoStore, error) {
	session, err := session.NewSession(&aws.Config{
		Region:   aws.String(region),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, errors.New("Could not create a new DynamoDB session because " + err.Error())
	}
	return &DynamoStore{client: dynamodb.New(session), table: table}, nil
}

func scoreToItem(s model.Score) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK":      {S: aws.String(s.SessionID)},
		"Level":   {N: aws.String(strconv.Itoa(s.Level))},
		"Reason":  {S: aws.String(s.Reason)},
		"EndedAt": {S: aws.String(s.EndedAt.UTC().Format(time.RFC3339Nano))},
	}
}

func itemToScore(item map[string]*dynamodb.AttributeValue) (model.Score, error) {
	var s model.Score
	if v := item["PK"]; v != nil && v.S != nil {
		s.SessionID = *v.S
	} else {
		return s, errors.New("score item has no PK")
	}
	if v := item["Level"]; v != nil && v.N != nil {
		level, err := strconv.Atoi(*v.N)
		if err != nil {
			return s, fmt.Errorf("bad Level for %v: %w", s.SessionID, err)
		}
		s.Level = level
	}
	if v := item["Reason"]; v != nil && v.S != nil {
		s.Reason = *v.S
	}
	if v := item["EndedAt"]; v != nil && v.S != nil {
		t, err := time.Parse(time.RFC3339Nano, *v.S)
		if err != nil {
			return s, fmt.Errorf("bad EndedAt for %v: %w", s.SessionID, err)
		}
		s.EndedAt = t
	}
	return s, nil
}

func (d *DynamoStore) Put(ctx context.Context, score model.Score) error {
	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      scoreToItem(score),
	})
	if err != nil {
		return errors.New("Error from DynamoDB: " + err.Error())
	}
	return nil
}

// Top scans the whole table; the table only ever holds one item per game.
func (d *DynamoStore) Top(ctx context.Context, n int) ([]model.Score, error) {
	var scores []model.Score
	var itemErr error
	err := d.client.ScanPagesWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	}, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		for _, item := range page.Items {
			s, err := itemToScore(item)
			if err != nil {
				itemErr = err
				return false
			}
			scores = append(scores, s)
		}
		return true
	})
	if err != nil {
		return nil, errors.New("Error from DynamoDB: " + err.Error())
	}
	if itemErr != nil {
		return nil, itemErr
	}
	return top(scores, n), nil
}
