package testutil

import (
	"context"
	"time"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/types"
	"github.com/flexprice/billsync/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories for testing
type Stores struct {
	CustomerRepo *InMemoryCustomerStore
	PlanRepo     *InMemoryPlanStore
	CouponRepo   *InMemoryCouponStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	processor *FakeProcessor
	sink      *RecordingSink
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Cache.Enabled = false
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.now = time.Date(2017, time.January, 2, 10, 0, 0, 0, time.UTC)
	s.stores = Stores{
		CustomerRepo: NewInMemoryCustomerStore(),
		PlanRepo:     NewInMemoryPlanStore(),
		CouponRepo:   NewInMemoryCouponStore(),
	}
	s.processor = NewFakeProcessor()
	s.processor.Now = s.GetNow
	s.sink = NewRecordingSink()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.CustomerRepo.Clear()
	s.stores.PlanRepo.Clear()
	s.stores.CouponRepo.Clear()
	s.sink.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetProcessor returns the fake processor
func (s *BaseServiceTestSuite) GetProcessor() *FakeProcessor {
	return s.processor
}

// GetSink returns the recording notification sink
func (s *BaseServiceTestSuite) GetSink() *RecordingSink {
	return s.sink
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the fixed test clock
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// SetNow moves the test clock
func (s *BaseServiceTestSuite) SetNow(now time.Time) {
	s.now = now
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
