package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	jsoniter "github.com/json-iterator/go"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/domain/customer"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/sentry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CustomerStore keeps each customer aggregate as one item holding the JSON
// document with every sub-document and the sync originals.
type CustomerStore struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

var _ customer.Repository = (*CustomerStore)(nil)

func NewCustomerStore(client *Client, cfg *config.Configuration, logger *logger.Logger) *CustomerStore {
	return &CustomerStore{
		client:    client,
		tableName: cfg.DynamoDB.CustomerTableName,
		logger:    logger,
	}
}

type customerItem struct {
	PK        string    `dynamodbav:"pk"`
	Email     string    `dynamodbav:"email"`
	Document  string    `dynamodbav:"document"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

func (s *CustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	err := s.put(ctx, c, "attribute_not_exists(pk)", "create")
	if isConditionFailed(err) {
		return ierr.NewError("customer already exists").
			WithHintf("Customer %s already exists", c.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	return err
}

func (s *CustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	err := s.put(ctx, c, "attribute_exists(pk)", "update")
	if isConditionFailed(err) {
		return ierr.NewError("customer not found").
			WithHintf("Customer %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return err
}

func (s *CustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	span, ctx := s.client.sentry.StartDynamoDBSpan(ctx, "customer.get", map[string]any{"customer_id": id})

	out, err := s.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            stringKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		sentry.FinishSpan(span, err)
		return nil, dbError(err, "Failed to load customer")
	}
	sentry.FinishSpan(span, nil)

	if len(out.Item) == 0 {
		return nil, ierr.NewError("customer not found").
			WithHintf("Customer %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var item customerItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, dbError(err, "Failed to decode customer item")
	}

	c := &customer.Customer{}
	if err := json.UnmarshalFromString(item.Document, c); err != nil {
		return nil, dbError(err, "Failed to decode customer document")
	}
	return c, nil
}

// put returns the raw condition failure so callers can map it.
func (s *CustomerStore) put(ctx context.Context, c *customer.Customer, condition, operation string) error {
	span, ctx := s.client.sentry.StartDynamoDBSpan(ctx, "customer."+operation, map[string]any{"customer_id": c.ID})

	doc, err := json.MarshalToString(c)
	if err != nil {
		sentry.FinishSpan(span, err)
		return dbError(err, "Failed to encode customer document")
	}

	av, err := attributevalue.MarshalMap(customerItem{
		PK:        c.ID,
		Email:     c.Email,
		Document:  doc,
		UpdatedAt: c.UpdatedAt,
	})
	if err != nil {
		sentry.FinishSpan(span, err)
		return dbError(err, "Failed to encode customer item")
	}

	_, err = s.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String(condition),
	})
	sentry.FinishSpan(span, err)
	if err != nil {
		if isConditionFailed(err) {
			return err
		}
		s.logger.Errorw("failed to store customer",
			"customer_id", c.ID,
			"operation", operation,
			"error", err)
		return dbError(err, "Failed to store customer")
	}
	return nil
}
