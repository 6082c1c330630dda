package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusUnlocked(t *testing.T) {
	assert.True(t, EnrollmentStatusFreeRegistered.Unlocked())
	assert.True(t, EnrollmentStatusPaidSuccess.Unlocked())
	assert.False(t, EnrollmentStatusPending.Unlocked())
	assert.False(t, EnrollmentStatusRefunded.Unlocked())
	assert.False(t, EnrollmentStatusCancelled.Unlocked())
}

func TestEnrollmentActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	e := Enrollment{Status: EnrollmentStatusPaidSuccess}
	assert.True(t, e.Active(now), "unlocked status without expiry")

	e.AccessExpires = &future
	assert.True(t, e.Active(now), "expiry in the future")

	e.AccessExpires = &past
	assert.False(t, e.Active(now), "expiry in the past")

	e = Enrollment{Status: EnrollmentStatusPending, AccessExpires: &future}
	assert.False(t, e.Active(now), "locked status regardless of expiry")
}
