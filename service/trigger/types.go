package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/elC0mpa/egress-doctor/service"
)

// State is a detection-cycle state. Cycles start Idle and terminate in Done
// or Failed.
type State string

const (
	StateIdle        State = "Idle"
	StateLoading     State = "Loading"
	StateScoring     State = "Scoring"
	StateDispatching State = "Dispatching"
	StateDone        State = "Done"
	StateFailed      State = "Failed"
)

// CycleResult describes how one detection cycle terminated. A Failed cycle is
// reported here, never raised to the scheduler: the next scheduled run must
// always get a clean slate.
type CycleResult struct {
	CycleID      string
	State        State
	NoNewData    bool
	RowsScored   int
	AnomalyCount int
	Dispatched   int
	FailureStage State
	Err          error
}

type triggerService struct {
	store      service.FeatureStore
	endpoint   service.ScoringEndpoint
	dispatcher service.AnomalyDispatcher
	notifier   service.Notifier
	logger     *slog.Logger

	loadTimeout  time.Duration
	scoreTimeout time.Duration
	now          func() time.Time
}

type TriggerService interface {
	Run(ctx context.Context) CycleResult
}
