package rally

import (
	"testing"
	"time"

	"rally-booking/models/category"

	"github.com/stretchr/testify/assert"
)

func TestRescheduled(t *testing.T) {
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	r := Rally{ScheduledDate: date, OriginalDate: date}
	assert.False(t, r.Rescheduled())

	r.ScheduledDate = date.AddDate(0, 1, 0)
	assert.True(t, r.Rescheduled())
}

func TestAllowsCategory(t *testing.T) {
	open := Rally{}
	assert.True(t, open.AllowsCategory(7), "no restriction admits every class")

	restricted := Rally{AllowedCategories: []category.Category{
		{ID: 1, Name: "Group B"},
		{ID: 3, Name: "WRC"},
	}}
	assert.True(t, restricted.AllowsCategory(1))
	assert.True(t, restricted.AllowsCategory(3))
	assert.False(t, restricted.AllowsCategory(2))
}
