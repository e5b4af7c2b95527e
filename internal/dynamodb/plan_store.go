package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/domain/plan"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/types"
)

// PlanProcessorIDIndex is the global secondary index on processor_id
const PlanProcessorIDIndex = "processor_id-index"

type PlanStore struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

var _ plan.Repository = (*PlanStore)(nil)

func NewPlanStore(client *Client, cfg *config.Configuration, logger *logger.Logger) *PlanStore {
	return &PlanStore{
		client:    client,
		tableName: cfg.DynamoDB.PlanTableName,
		logger:    logger,
	}
}

type planItem struct {
	PK               string    `dynamodbav:"pk"`
	ProcessorID      string    `dynamodbav:"processor_id"`
	Name             string    `dynamodbav:"name"`
	Price            string    `dynamodbav:"price"`
	Currency         string    `dynamodbav:"currency"`
	BillingFrequency int       `dynamodbav:"billing_frequency"`
	Level            int       `dynamodbav:"level"`
	CreatedAt        time.Time `dynamodbav:"created_at"`
	UpdatedAt        time.Time `dynamodbav:"updated_at"`
	CreatedBy        string    `dynamodbav:"created_by,omitempty"`
	UpdatedBy        string    `dynamodbav:"updated_by,omitempty"`
}

func toPlanItem(p *plan.Plan) planItem {
	return planItem{
		PK:               p.ID,
		ProcessorID:      p.ProcessorID,
		Name:             p.Name,
		Price:            p.Price.String(),
		Currency:         p.Currency,
		BillingFrequency: p.BillingFrequency,
		Level:            p.Level,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		CreatedBy:        p.CreatedBy,
		UpdatedBy:        p.UpdatedBy,
	}
}

func (i planItem) toPlan() (*plan.Plan, error) {
	price, err := decimal.NewFromString(i.Price)
	if err != nil {
		return nil, dbError(err, "Stored plan price is not a decimal")
	}
	return &plan.Plan{
		ID:               i.PK,
		ProcessorID:      i.ProcessorID,
		Name:             i.Name,
		Price:            price,
		Currency:         i.Currency,
		BillingFrequency: i.BillingFrequency,
		Level:            i.Level,
		BaseModel: types.BaseModel{
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
			CreatedBy: i.CreatedBy,
			UpdatedBy: i.UpdatedBy,
		},
	}, nil
}

func (s *PlanStore) Create(ctx context.Context, p *plan.Plan) error {
	err := s.put(ctx, p, "attribute_not_exists(pk)")
	if isConditionFailed(err) {
		return ierr.NewError("plan already exists").
			WithHintf("Plan %s already exists", p.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	return err
}

func (s *PlanStore) Update(ctx context.Context, p *plan.Plan) error {
	err := s.put(ctx, p, "attribute_exists(pk)")
	if isConditionFailed(err) {
		return ierr.NewError("plan not found").
			WithHintf("Plan %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return err
}

func (s *PlanStore) put(ctx context.Context, p *plan.Plan, condition string) error {
	av, err := attributevalue.MarshalMap(toPlanItem(p))
	if err != nil {
		return dbError(err, "Failed to encode plan")
	}
	_, err = s.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String(condition),
	})
	if err != nil && !isConditionFailed(err) {
		s.logger.Errorw("failed to store plan", "plan_id", p.ID, "error", err)
		return dbError(err, "Failed to store plan")
	}
	return err
}

func (s *PlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	out, err := s.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       stringKey(id),
	})
	if err != nil {
		return nil, dbError(err, "Failed to load plan")
	}
	if len(out.Item) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHintf("Plan %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var item planItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, dbError(err, "Failed to decode plan")
	}
	return item.toPlan()
}

func (s *PlanStore) GetByProcessorID(ctx context.Context, processorID string) (*plan.Plan, error) {
	out, err := s.client.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(PlanProcessorIDIndex),
		KeyConditionExpression: aws.String("processor_id = :pid"),
		ExpressionAttributeValues: map[string]dbtypes.AttributeValue{
			":pid": &dbtypes.AttributeValueMemberS{Value: processorID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, dbError(err, "Failed to query plan by processor id")
	}
	if len(out.Items) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHintf("No plan with processor id %s", processorID).
			Mark(ierr.ErrNotFound)
	}

	var item planItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, dbError(err, "Failed to decode plan")
	}
	return item.toPlan()
}

func (s *PlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	paginator := dynamodb.NewScanPaginator(s.client.db, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})

	var plans []*plan.Plan
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, dbError(err, "Failed to list plans")
		}

		var items []planItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, dbError(err, "Failed to decode plans")
		}
		for _, item := range items {
			p, err := item.toPlan()
			if err != nil {
				return nil, err
			}
			plans = append(plans, p)
		}
	}
	return plans, nil
}
