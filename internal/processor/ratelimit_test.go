package processor_test

import (
	"context"
	"testing"
	"time"

	ierr "github.com/flexprice/billsync/internal/errors"
	"github.com/flexprice/billsync/internal/processor"
	"github.com/flexprice/billsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimited(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	limited := processor.NewRateLimited(fake, 0.01, 1)

	_, err := limited.ListPlans(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.ListTransactions(ctx, "cus_1")
	require.Error(t, err)
	assert.True(t, ierr.IsTransport(err))

	// the rejected call never reached the processor
	assert.Len(t, fake.Calls(), 1)
	assert.Len(t, fake.Calls("ListPlans"), 1)
}

func TestRateLimited_PassesThroughErrors(t *testing.T) {
	fake := testutil.NewFakeProcessor()
	fake.FailNext("CancelSubscription", processor.Rejection("Subscription already canceled", "cancel subscription"))
	limited := processor.NewRateLimited(fake, 100, 10)

	_, err := limited.CancelSubscription(context.Background(), "sub_1")
	require.Error(t, err)
	assert.True(t, ierr.IsProcessorRejection(err))
	assert.Equal(t, "Subscription already canceled", err.Error())
}
