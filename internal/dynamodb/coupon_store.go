package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/domain/coupon"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/types"
)

// CouponCodeIndex is the global secondary index on code
const CouponCodeIndex = "code-index"

type CouponStore struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

var _ coupon.Repository = (*CouponStore)(nil)

func NewCouponStore(client *Client, cfg *config.Configuration, logger *logger.Logger) *CouponStore {
	return &CouponStore{
		client:    client,
		tableName: cfg.DynamoDB.CouponTableName,
		logger:    logger,
	}
}

type couponUseItem struct {
	CustomerID string    `dynamodbav:"customer_id"`
	UsedAt     time.Time `dynamodbav:"used_at"`
}

// couponItem keeps used_by as a string set next to the uses list so that
// redemption can be guarded by a single condition expression.
type couponItem struct {
	PK                    string          `dynamodbav:"pk"`
	Code                  string          `dynamodbav:"code"`
	Name                  string          `dynamodbav:"name"`
	ProcessorID           string          `dynamodbav:"processor_id,omitempty"`
	Type                  string          `dynamodbav:"type"`
	AmountOff             *string         `dynamodbav:"amount_off,omitempty"`
	PercentageOff         *string         `dynamodbav:"percentage_off,omitempty"`
	NumberOfBillingCycles int             `dynamodbav:"number_of_billing_cycles"`
	StartAt               *time.Time      `dynamodbav:"start_at,omitempty"`
	ExpireAt              *time.Time      `dynamodbav:"expire_at,omitempty"`
	UsedCount             int             `dynamodbav:"used_count"`
	UsedCountMax          *int            `dynamodbav:"used_count_max,omitempty"`
	Restricted            bool            `dynamodbav:"restricted"`
	Uses                  []couponUseItem `dynamodbav:"uses"`
	UsedBy                []string        `dynamodbav:"used_by,stringset,omitempty"`
	CreatedAt             time.Time       `dynamodbav:"created_at"`
	UpdatedAt             time.Time       `dynamodbav:"updated_at"`
}

func toCouponItem(c *coupon.Coupon) couponItem {
	decimalString := func(d *decimal.Decimal) *string {
		if d == nil {
			return nil
		}
		return lo.ToPtr(d.String())
	}

	item := couponItem{
		PK:                    c.ID,
		Code:                  c.Code,
		Name:                  c.Name,
		ProcessorID:           c.ProcessorID,
		Type:                  string(c.Type),
		AmountOff:             decimalString(c.AmountOff),
		PercentageOff:         decimalString(c.PercentageOff),
		NumberOfBillingCycles: c.NumberOfBillingCycles,
		StartAt:               c.StartAt,
		ExpireAt:              c.ExpireAt,
		UsedCount:             c.UsedCount,
		UsedCountMax:          c.UsedCountMax,
		Restricted:            c.Restricted,
		Uses:                  []couponUseItem{},
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
	for _, u := range c.Uses {
		item.Uses = append(item.Uses, couponUseItem{CustomerID: u.CustomerID, UsedAt: u.UsedAt})
		item.UsedBy = append(item.UsedBy, u.CustomerID)
	}
	item.UsedBy = lo.Uniq(item.UsedBy)
	return item
}

func (i couponItem) toCoupon() (*coupon.Coupon, error) {
	parse := func(s *string) (*decimal.Decimal, error) {
		if s == nil {
			return nil, nil
		}
		d, err := decimal.NewFromString(*s)
		if err != nil {
			return nil, dbError(err, "Stored coupon amount is not a decimal")
		}
		return &d, nil
	}

	amountOff, err := parse(i.AmountOff)
	if err != nil {
		return nil, err
	}
	percentageOff, err := parse(i.PercentageOff)
	if err != nil {
		return nil, err
	}

	return &coupon.Coupon{
		ID:                    i.PK,
		Name:                  i.Name,
		Code:                  i.Code,
		ProcessorID:           i.ProcessorID,
		Type:                  types.CouponType(i.Type),
		AmountOff:             amountOff,
		PercentageOff:         percentageOff,
		NumberOfBillingCycles: i.NumberOfBillingCycles,
		StartAt:               i.StartAt,
		ExpireAt:              i.ExpireAt,
		UsedCount:             i.UsedCount,
		UsedCountMax:          i.UsedCountMax,
		Restricted:            i.Restricted,
		Uses: lo.Map(i.Uses, func(u couponUseItem, _ int) coupon.Use {
			return coupon.Use{CustomerID: u.CustomerID, UsedAt: u.UsedAt}
		}),
		BaseModel: types.BaseModel{
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		},
	}, nil
}

func (s *CouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	err := s.put(ctx, c, "attribute_not_exists(pk)")
	if isConditionFailed(err) {
		return ierr.NewError("coupon already exists").
			WithHintf("Coupon %s already exists", c.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	return err
}

func (s *CouponStore) Update(ctx context.Context, c *coupon.Coupon) error {
	err := s.put(ctx, c, "attribute_exists(pk)")
	if isConditionFailed(err) {
		return ierr.NewError("coupon not found").
			WithHintf("Coupon %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return err
}

func (s *CouponStore) put(ctx context.Context, c *coupon.Coupon, condition string) error {
	av, err := attributevalue.MarshalMap(toCouponItem(c))
	if err != nil {
		return dbError(err, "Failed to encode coupon")
	}
	_, err = s.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String(condition),
	})
	if err != nil && !isConditionFailed(err) {
		s.logger.Errorw("failed to store coupon", "coupon_id", c.ID, "error", err)
		return dbError(err, "Failed to store coupon")
	}
	return err
}

func (s *CouponStore) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	out, err := s.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            stringKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, dbError(err, "Failed to load coupon")
	}
	if len(out.Item) == 0 {
		return nil, ierr.NewError("coupon not found").
			WithHintf("Coupon %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return decodeCoupon(out.Item)
}

func (s *CouponStore) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	out, err := s.client.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(CouponCodeIndex),
		KeyConditionExpression: aws.String("code = :code"),
		ExpressionAttributeValues: map[string]dbtypes.AttributeValue{
			":code": &dbtypes.AttributeValueMemberS{Value: code},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, dbError(err, "Failed to query coupon by code")
	}
	if len(out.Items) == 0 {
		return nil, ierr.NewError("coupon not found").
			WithHintf("No coupon with code %s", code).
			Mark(ierr.ErrNotFound)
	}
	return decodeCoupon(out.Items[0])
}

// RecordUse increments used_count in one conditional update. Restricted
// coupons also append to the uses ledger, guarded on used_by not holding
// customerID yet.
func (s *CouponStore) RecordUse(ctx context.Context, id string, customerID string, at time.Time) (bool, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	values := map[string]dbtypes.AttributeValue{
		":one":  &dbtypes.AttributeValueMemberN{Value: "1"},
		":zero": &dbtypes.AttributeValueMemberN{Value: "0"},
		":now":  &dbtypes.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
	}
	update := "SET used_count = if_not_exists(used_count, :zero) + :one, updated_at = :now"
	condition := "attribute_exists(pk)"

	if c.Restricted {
		use, err := attributevalue.MarshalMap(couponUseItem{CustomerID: customerID, UsedAt: at.UTC()})
		if err != nil {
			return false, dbError(err, "Failed to encode coupon use")
		}
		values[":cid"] = &dbtypes.AttributeValueMemberS{Value: customerID}
		values[":cidset"] = &dbtypes.AttributeValueMemberSS{Value: []string{customerID}}
		values[":use"] = &dbtypes.AttributeValueMemberL{Value: []dbtypes.AttributeValue{
			&dbtypes.AttributeValueMemberM{Value: use},
		}}
		values[":empty"] = &dbtypes.AttributeValueMemberL{Value: []dbtypes.AttributeValue{}}

		update += ", uses = list_append(if_not_exists(uses, :empty), :use) ADD used_by :cidset"
		condition += " AND (attribute_not_exists(used_by) OR NOT contains(used_by, :cid))"
	}

	_, err = s.client.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       stringKey(id),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailed(err) {
			if c.Restricted {
				s.logger.Debugw("restricted coupon already used by customer",
					"coupon_id", id,
					"customer_id", customerID)
				return false, nil
			}
			return false, ierr.NewError("coupon not found").
				WithHintf("Coupon %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return false, dbError(err, "Failed to record coupon use")
	}

	s.logger.Debugw("recorded coupon use",
		"coupon_id", id,
		"customer_id", customerID,
		"used_count", c.UsedCount+1)
	return true, nil
}

func decodeCoupon(av map[string]dbtypes.AttributeValue) (*coupon.Coupon, error) {
	var item couponItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, dbError(err, "Failed to decode coupon")
	}
	return item.toCoupon()
}
