package featurebuilder

import (
	"github.com/elC0mpa/egress-doctor/model"
)

type service struct{}

type BuilderService interface {
	Fit(observations []model.UsageObservation) (*model.FittedTransform, error)
	Transform(observations []model.UsageObservation, transform *model.FittedTransform) ([]model.FeatureVector, error)
}

const transformSchemaVersion = 1

// Column layout of every produced vector. Cost and usage are standardized
// with statistics frozen at fit time; calendar columns are pure functions of
// the date and carry no fitted state.
var (
	scaledColumns   = []string{"cost_usd_scaled", "usage_amount_scaled"}
	calendarColumns = []string{"day_of_week", "day_of_month", "month", "week_of_year", "is_weekend"}

	categoricalFields = []string{"service_code", "region", "usage_type", "day_of_week", "month"}
)
