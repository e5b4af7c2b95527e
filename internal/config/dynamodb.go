package config

// DynamoDBConfig holds configuration for the DynamoDB document stores
type DynamoDBConfig struct {
	InUse             bool   `mapstructure:"in_use"`
	Region            string `mapstructure:"region" validate:"required_if=InUse true"`
	Endpoint          string `mapstructure:"endpoint"`
	CustomerTableName string `mapstructure:"customer_table_name" validate:"required_if=InUse true"`
	PlanTableName     string `mapstructure:"plan_table_name" validate:"required_if=InUse true"`
	CouponTableName   string `mapstructure:"coupon_table_name" validate:"required_if=InUse true"`
}
