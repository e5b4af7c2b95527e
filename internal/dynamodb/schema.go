package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/flexprice/billsync/internal/config"
	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/logger"
)

const tableActiveTimeout = 2 * time.Minute

// TableAPI is the subset of the DynamoDB API used to manage the tables
type TableAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Tables returns the table API of the underlying client, if it has one
func (c *Client) Tables() (TableAPI, bool) {
	api, ok := c.db.(TableAPI)
	return api, ok
}

// TableDefinitions describes every table the stores need. All tables are
// keyed on pk and billed on demand.
func TableDefinitions(cfg config.DynamoDBConfig) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		tableDefinition(cfg.CustomerTableName, "", ""),
		tableDefinition(cfg.PlanTableName, "processor_id", PlanProcessorIDIndex),
		tableDefinition(cfg.CouponTableName, "code", CouponCodeIndex),
	}
}

// tableDefinition builds a table with an optional global index named
// indexName on indexKey.
func tableDefinition(name, indexKey, indexName string) *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: dbtypes.KeyTypeHash},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	}
	if indexKey == "" {
		return in
	}

	in.AttributeDefinitions = append(in.AttributeDefinitions, dbtypes.AttributeDefinition{
		AttributeName: aws.String(indexKey),
		AttributeType: dbtypes.ScalarAttributeTypeS,
	})
	in.GlobalSecondaryIndexes = []dbtypes.GlobalSecondaryIndex{
		{
			IndexName: aws.String(indexName),
			KeySchema: []dbtypes.KeySchemaElement{
				{AttributeName: aws.String(indexKey), KeyType: dbtypes.KeyTypeHash},
			},
			Projection: &dbtypes.Projection{ProjectionType: dbtypes.ProjectionTypeAll},
		},
	}
	return in
}

// EnsureTables creates the missing tables and waits for them to become
// active. Existing tables are left untouched. With dryRun set nothing is
// created and the names of the missing tables are returned.
func EnsureTables(ctx context.Context, api TableAPI, cfg config.DynamoDBConfig, log *logger.Logger, dryRun bool) ([]string, error) {
	var missing []string
	for _, def := range TableDefinitions(cfg) {
		name := aws.ToString(def.TableName)

		_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: def.TableName})
		if err == nil {
			log.Debugw("table exists", "table", name)
			continue
		}
		var notFound *dbtypes.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return missing, dbError(err, "Failed to describe table "+name)
		}

		missing = append(missing, name)
		if dryRun {
			log.Infow("table would be created", "table", name)
			continue
		}

		if _, err := api.CreateTable(ctx, def); err != nil {
			return missing, ierr.WithError(err).
				WithHintf("Failed to create table %s", name).
				Mark(ierr.ErrDatabase)
		}
		waiter := dynamodb.NewTableExistsWaiter(api)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: def.TableName}, tableActiveTimeout); err != nil {
			return missing, dbError(err, "Table "+name+" did not become active")
		}
		log.Infow("table created", "table", name)
	}
	return missing, nil
}
