package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionUnlimitedCalls(t *testing.T) {
	limited := &Subscription{APICallsLimit: 100}
	unlimited := &Subscription{APICallsLimit: UnlimitedAPICalls}

	assert.False(t, limited.HasUnlimitedCalls())
	assert.True(t, unlimited.HasUnlimitedCalls())

	assert.Equal(t, "100", limited.APICallsLimitDisplay())
	assert.Equal(t, "Unlimited", unlimited.APICallsLimitDisplay())
}

func TestSubscriptionFeaturesRoundTrip(t *testing.T) {
	s := &Subscription{}
	assert.Empty(t, s.Features())

	require.NoError(t, s.SetFeatures([]string{"priority support", "bulk upload"}))
	assert.Equal(t, []string{"priority support", "bulk upload"}, s.Features())
}

func TestSubscriptionPdfSizeLimitBytes(t *testing.T) {
	s := &Subscription{PdfSizeLimitMB: 25}
	assert.Equal(t, int64(25*1024*1024), s.PdfSizeLimitBytes())
}

func TestSubscriptionValidate(t *testing.T) {
	valid := &Subscription{Name: "Pro", Price: 499, BillingCycle: BillingCycleMonthly}
	assert.NoError(t, valid.Validate())

	missingName := &Subscription{Price: 499, BillingCycle: BillingCycleMonthly}
	assert.Error(t, missingName.Validate())

	badCycle := &Subscription{Name: "Pro", Price: 499, BillingCycle: "weekly"}
	assert.Error(t, badCycle.Validate())

	negativePrice := &Subscription{Name: "Pro", Price: -1, BillingCycle: BillingCycleYearly}
	assert.Error(t, negativePrice.Validate())
}
