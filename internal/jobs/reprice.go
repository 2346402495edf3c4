package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeRepriceBranch rebuilds the pricing matrices of every menu item in a branch.
const TypeRepriceBranch = "menu:reprice_branch"

// RepricePayload is the task payload of TypeRepriceBranch.
type RepricePayload struct {
	BranchID uuid.UUID `json:"branchId"`
	Version  time.Time `json:"version,omitempty"`
}

// NewRepriceTask encodes a reprice task for one revision of a branch.
func NewRepriceTask(branchID uuid.UUID, version time.Time) (*asynq.Task, error) {
	if branchID == uuid.Nil {
		return nil, errors.New("jobs: branch id is required")
	}
	payload, err := json.Marshal(RepricePayload{BranchID: branchID, Version: version.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRepriceBranch, payload), nil
}

// taskClient is the subset of *asynq.Client used by Enqueuer.
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules background jobs.
type Enqueuer struct {
	Client   taskClient
	Queue    string
	MaxRetry int
}

// NewEnqueuer wraps an asynq client with the default reprice options.
func NewEnqueuer(client *asynq.Client) Enqueuer {
	return Enqueuer{Client: client, Queue: "default", MaxRetry: 5}
}

// RepriceTaskID identifies the reprice of one branch revision. Revisions never
// share an ID, so an edit made while an older reprice runs gets its own task.
func RepriceTaskID(branchID uuid.UUID, version time.Time) string {
	return fmt.Sprintf("reprice:%s:%d", branchID, version.UTC().UnixNano())
}

// EnqueueReprice schedules the reprice of branch revision version. Scheduling
// the same revision twice is a no-op; a zero version is always scheduled.
func (e Enqueuer) EnqueueReprice(ctx context.Context, branchID uuid.UUID, version time.Time) error {
	if e.Client == nil {
		return errors.New("jobs: task client not configured")
	}
	task, err := NewRepriceTask(branchID, version)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.MaxRetry(e.MaxRetry)}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	if !version.IsZero() {
		opts = append(opts, asynq.TaskID(RepriceTaskID(branchID, version)))
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("jobs: enqueue reprice: %w", err)
	}
	return nil
}

// Repricer rebuilds the matrices of one branch and reports how many items changed.
type Repricer interface {
	RepriceBranch(ctx context.Context, branchID uuid.UUID) (int, error)
}

// RepriceHandler processes TypeRepriceBranch tasks.
type RepriceHandler struct {
	Menu   Repricer
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h RepriceHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload RepricePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reprice payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.BranchID == uuid.Nil {
		return fmt.Errorf("reprice payload without branch: %w", asynq.SkipRetry)
	}
	count, err := h.Menu.RepriceBranch(ctx, payload.BranchID)
	if err != nil {
		h.Logger.Error().Err(err).Str("branch_id", payload.BranchID.String()).Msg("reprice branch")
		return err
	}
	h.Logger.Info().Str("branch_id", payload.BranchID.String()).Int("items", count).Msg("branch repriced")
	return nil
}

// NewMux registers the job handlers served by the worker.
func NewMux(reprice RepriceHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeRepriceBranch, reprice)
	return mux
}
