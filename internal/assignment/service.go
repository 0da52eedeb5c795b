package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/greencycle-tech/ewaste-backend/pkg/config"
	"github.com/greencycle-tech/ewaste-backend/pkg/db/models"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	pkgerrors "github.com/greencycle-tech/ewaste-backend/pkg/errors"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
	"github.com/greencycle-tech/ewaste-backend/pkg/metrics"
)

const retryBackoff = 50 * time.Millisecond

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier delivers assignment notices to agents. Delivery is best effort;
// a failed notice never rolls back an assignment.
type Notifier interface {
	NotifyAssignment(ctx context.Context, agentID uuid.UUID, order *models.PickupOrder, mode enums.AssignmentMode) error
}

// Service is the assignment engine: single, bulk, automatic and corrective
// binding of pickup orders to agents, plus the read models derived from the
// event log.
type Service interface {
	Assign(ctx context.Context, actorID uuid.UUID, orderID uuid.UUID, req AssignRequest) (*AssignmentDTO, error)
	BulkAssign(ctx context.Context, actorID uuid.UUID, req BulkAssignRequest) (*BulkAssignResult, error)
	AutoAssign(ctx context.Context, req AutoAssignRequest) (*AutoAssignResult, error)
	Reassign(ctx context.Context, actorID uuid.UUID, orderID uuid.UUID, req ReassignRequest) (*AssignmentDTO, error)
	GetStatistics(ctx context.Context, timeframe enums.StatsTimeframe) (*Statistics, error)
	ListAvailability(ctx context.Context, city, pincode string) (*AvailabilityList, error)
	GetAgentPerformance(ctx context.Context, agentID uuid.UUID, timeframe enums.StatsTimeframe) (*AgentPerformance, error)
	NotifyAgent(ctx context.Context, agentID uuid.UUID, orderID uuid.UUID) error
	PurgeEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ServiceParams collects the engine's dependencies. Metrics, Notifier and
// Selector are optional; Selector defaults to the least-loaded policy.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Log      *logger.Logger
	Metrics  *metrics.AssignmentMetrics
	Notifier Notifier
	Selector Selector
	Config   config.AssignmentConfig
}

type service struct {
	repo     Repository
	tx       txRunner
	log      *logger.Logger
	metrics  *metrics.AssignmentMetrics
	notifier Notifier
	policy   Policy
	selector Selector
	cfg      config.AssignmentConfig
	now      func() time.Time
}

// NewService builds the assignment engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Log == nil {
		return nil, fmt.Errorf("logger required")
	}
	selector := params.Selector
	if selector == nil {
		selector = NewDefaultSelector()
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		log:      params.Log,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		policy:   Policy{PincodePrefixLen: params.Config.PincodePrefixLen},
		selector: selector,
		cfg:      params.Config,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Assign(ctx context.Context, actorID uuid.UUID, orderID uuid.UUID, req AssignRequest) (*AssignmentDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if req.PickupBoyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup_boy_id required")
	}
	return s.assignOnce(ctx, orderID, req.PickupBoyID, &actorID, enums.AssignmentModeManual)
}

func (s *service) BulkAssign(ctx context.Context, actorID uuid.UUID, req BulkAssignRequest) (*BulkAssignResult, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(req.Assignments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one assignment is required")
	}

	result := &BulkAssignResult{Requested: len(req.Assignments)}
	for _, item := range req.Assignments {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bulk assignment interrupted")
		}
		if _, err := s.assignOnce(ctx, item.OrderID, item.PickupBoyID, &actorID, enums.AssignmentModeBulk); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{OrderID: item.OrderID, Reason: failReason(err)})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (s *service) AutoAssign(ctx context.Context, req AutoAssignRequest) (*AutoAssignResult, error) {
	limit := req.MaxAssignments
	if limit <= 0 || limit > s.cfg.AutoAssignMaxPerRun {
		limit = s.cfg.AutoAssignMaxPerRun
	}

	weekly, err := s.repo.CompletedCountsByAgent(ctx, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load weekly completions")
	}

	// The run stops at the success budget or queue exhaustion, whichever
	// comes first. Orders that failed or had no eligible agent are excluded
	// from subsequent fetches through the seen set.
	result := &AutoAssignResult{}
	seen := map[uuid.UUID]struct{}{}
	for result.Assigned < limit {
		if err := ctx.Err(); err != nil {
			s.log.Warn(ctx, "auto-assignment run interrupted")
			return result, nil
		}

		remaining := limit - result.Assigned
		batch, err := s.repo.ListOldestUnassigned(ctx, req.City, req.Pincode, remaining+len(seen))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unassigned orders")
		}

		progressed := false
		for i := range batch {
			if result.Assigned >= limit {
				break
			}
			// Cancellation between orders; the in-flight transaction
			// always completes.
			if err := ctx.Err(); err != nil {
				s.log.Warn(ctx, "auto-assignment run interrupted")
				return result, nil
			}
			order := &batch[i]
			if _, done := seen[order.ID]; done {
				continue
			}
			seen[order.ID] = struct{}{}
			progressed = true
			result.Examined++

			candidates, err := s.repo.ListEligibleAgents(ctx, order.Address.City, s.policy.PincodePrefix(order.Address.Pincode))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list eligible agents")
			}
			agent := s.selector.Select(order, candidates, weekly)
			if agent == nil {
				result.Skipped++
				continue
			}

			dto, err := s.assignOnce(ctx, order.ID, agent.UserID, req.TriggeredBy, enums.AssignmentModeAuto)
			if err != nil {
				result.Failures = append(result.Failures, BulkFailure{OrderID: order.ID, Reason: failReason(err)})
				continue
			}
			result.Assignments = append(result.Assignments, *dto)
			result.Assigned++
		}
		if !progressed {
			break
		}
	}
	return result, nil
}

func (s *service) Reassign(ctx context.Context, actorID uuid.UUID, orderID uuid.UUID, req ReassignRequest) (*AssignmentDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if req.NewPickupBoyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new_pickup_boy_id required")
	}

	start := s.now()
	var (
		dto      *AssignmentDTO
		order    *models.PickupOrder
		oldAgent uuid.UUID
	)
	err := s.runAssignmentTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.AssignedAgentID == nil || order.Status != enums.OrderStatusAssigned {
			return errOrderNotAssignable()
		}
		oldAgent = *order.AssignedAgentID
		if oldAgent == req.NewPickupBoyID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already assigned to this agent")
		}

		profile, err := s.loadProfile(ctx, repo, req.NewPickupBoyID)
		if err != nil {
			return err
		}
		if err := s.policy.Eligible(profile, order); err != nil {
			return err
		}

		at := s.now()
		swapped, err := repo.SwapOrderAgent(ctx, order.ID, oldAgent, req.NewPickupBoyID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "swap order agent")
		}
		if !swapped {
			return errOrderNotAssignable()
		}
		taken, err := repo.IncrementAgentLoad(ctx, req.NewPickupBoyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "take workload slot")
		}
		if !taken {
			return s.classifyLoadFailure(ctx, repo, req.NewPickupBoyID)
		}
		if _, err := repo.DecrementAgentLoad(ctx, oldAgent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release workload slot")
		}

		dto = &AssignmentDTO{
			OrderID:     order.ID,
			AgentID:     req.NewPickupBoyID,
			Mode:        enums.AssignmentModeReassign,
			AssignedAt:  at,
			OrderStatus: enums.OrderStatusAssigned,
		}
		return nil
	})

	latency := s.now().Sub(start)
	s.recordOutcome(ctx, outcomeParams{
		orderID:        orderID,
		agentID:        req.NewPickupBoyID,
		actorID:        &actorID,
		mode:           enums.AssignmentModeReassign,
		previousStatus: enums.OrderStatusAssigned,
		latency:        latency,
		err:            err,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req.NewPickupBoyID, order, enums.AssignmentModeReassign)
	return dto, nil
}

func (s *service) GetStatistics(ctx context.Context, timeframe enums.StatsTimeframe) (*Statistics, error) {
	since := WindowStart(timeframe, s.now())

	rows, err := s.repo.AggregateEvents(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate assignment events")
	}
	pending, err := s.repo.CountPendingAssignments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending assignments")
	}
	completed, revenue, err := s.repo.CompletionStats(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate completed orders")
	}

	stats := &Statistics{
		Timeframe:          timeframe,
		Since:              since,
		PendingAssignments: pending,
		ByMode:             map[enums.AssignmentMode]int64{},
		TotalRevenue:       revenue,
	}
	var successLatencySum float64
	for _, row := range rows {
		stats.ByMode[row.Mode] += row.Count
		if row.Result == enums.AssignmentResultSuccess {
			stats.Assigned += row.Count
			if row.Mode == enums.AssignmentModeAuto {
				stats.AutoAssigned += row.Count
			}
			successLatencySum += row.AvgLatencyMS * float64(row.Count)
		} else {
			stats.FailedAttempts += row.Count
		}
	}
	if stats.Assigned > 0 {
		stats.AverageAssignmentTimeMS = successLatencySum / float64(stats.Assigned)
		stats.CompletionRate = float64(completed) / float64(stats.Assigned)
	}
	return stats, nil
}

func (s *service) ListAvailability(ctx context.Context, city, pincode string) (*AvailabilityList, error) {
	agents, err := s.repo.ListActiveAgents(ctx, city, pincode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active agents")
	}
	// One grouped query for today's counts; never per-agent lookups.
	todayCounts, err := s.repo.SuccessCountsByAgent(ctx, WindowStart(enums.TimeframeToday, s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's assignments")
	}

	list := &AvailabilityList{Agents: make([]AgentAvailability, 0, len(agents))}
	for _, a := range agents {
		ratio := 0.0
		if a.MaxCapacity > 0 {
			ratio = float64(a.ActiveOrders) / float64(a.MaxCapacity)
		}
		status := enums.AvailabilityFor(a.ActiveOrders, a.MaxCapacity)
		canTake := a.ActiveOrders < a.MaxCapacity
		list.Agents = append(list.Agents, AgentAvailability{
			UserID:          a.UserID,
			ServiceCity:     a.ServiceCity,
			ActiveOrders:    a.ActiveOrders,
			TodayOrders:     todayCounts[a.UserID],
			MaxCapacity:     a.MaxCapacity,
			LoadRatio:       ratio,
			Availability:    status,
			CanTakeNewOrder: canTake,
		})
		switch status {
		case enums.AvailabilityAvailable:
			list.Summary.Available++
		case enums.AvailabilityBusy:
			list.Summary.Busy++
		default:
			list.Summary.Overloaded++
		}
		if canTake {
			list.Summary.CanTakeOrders++
		}
	}
	return list, nil
}

func (s *service) GetAgentPerformance(ctx context.Context, agentID uuid.UUID, timeframe enums.StatsTimeframe) (*AgentPerformance, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	profile, err := s.loadProfile(ctx, s.repo, agentID)
	if err != nil {
		return nil, err
	}

	since := WindowStart(timeframe, s.now())
	events, err := s.repo.AgentEventStats(ctx, agentID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate agent events")
	}
	completed, err := s.repo.CountCompletedOrders(ctx, agentID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed orders")
	}

	return &AgentPerformance{
		AgentID:          agentID,
		Timeframe:        timeframe,
		AssignmentsTotal: events.AssignmentsTotal,
		CompletedOrders:  completed,
		ActiveOrders:     profile.ActiveOrders,
		AvgLatencyMS:     events.AvgLatencyMS,
	}, nil
}

func (s *service) NotifyAgent(ctx context.Context, agentID uuid.UUID, orderID uuid.UUID) error {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return err
	}
	if order.AssignedAgentID == nil || *order.AssignedAgentID != agentID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not assigned to this agent")
	}
	if s.notifier == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "notification delivery not configured")
	}
	if err := s.notifier.NotifyAssignment(ctx, agentID, order, enums.AssignmentModeManual); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver assignment notice")
	}
	return nil
}

func (s *service) PurgeEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge assignment events")
	}
	return deleted, nil
}

// assignOnce runs one complete assignment attempt: preflight checks, the
// atomic claim transaction, and outcome recording. Every attempt, successful
// or not, leaves an event and a metric behind.
func (s *service) assignOnce(ctx context.Context, orderID, agentID uuid.UUID, actorID *uuid.UUID, mode enums.AssignmentMode) (*AssignmentDTO, error) {
	start := s.now()

	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		s.recordOutcome(ctx, outcomeParams{
			orderID: orderID, agentID: agentID, actorID: actorID, mode: mode,
			previousStatus: enums.OrderStatusPending, latency: s.now().Sub(start), err: err,
		})
		return nil, err
	}
	previousStatus := order.Status

	var dto *AssignmentDTO
	err = func() error {
		if order.AssignedAgentID != nil {
			return errOrderAlreadyAssigned()
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
			return errOrderNotAssignable()
		}
		profile, err := s.loadProfile(ctx, s.repo, agentID)
		if err != nil {
			return err
		}
		if err := s.policy.Eligible(profile, order); err != nil {
			return err
		}

		return s.runAssignmentTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			at := s.now()

			claimed, err := repo.ClaimOrder(ctx, order.ID, agentID, at)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
			}
			if !claimed {
				return s.classifyClaimFailure(ctx, repo, order.ID)
			}
			taken, err := repo.IncrementAgentLoad(ctx, agentID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "take workload slot")
			}
			if !taken {
				return s.classifyLoadFailure(ctx, repo, agentID)
			}

			dto = &AssignmentDTO{
				OrderID:     order.ID,
				AgentID:     agentID,
				Mode:        mode,
				AssignedAt:  at,
				OrderStatus: enums.OrderStatusAssigned,
			}
			return nil
		})
	}()

	latency := s.now().Sub(start)
	s.recordOutcome(ctx, outcomeParams{
		orderID:        orderID,
		agentID:        agentID,
		actorID:        actorID,
		mode:           mode,
		previousStatus: previousStatus,
		latency:        latency,
		err:            err,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, agentID, order, mode)
	return dto, nil
}

// runAssignmentTx executes fn inside a bounded transaction and retries
// exactly once when the failure is a retryable infrastructure error.
// Eligibility and state conflicts are surfaced immediately.
func (s *service) runAssignmentTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	txCtx := ctx
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.cfg.TxTimeout)
		defer cancel()
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(retryBackoff))
	return retry.Do(txCtx, backoff, func(ctx context.Context) error {
		err := s.tx.WithTx(ctx, fn)
		if err != nil && pkgerrors.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// classifyClaimFailure re-reads the order after a failed conditional claim to
// report why the guard did not match.
func (s *service) classifyClaimFailure(ctx context.Context, repo Repository, orderID uuid.UUID) error {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errOrderNotFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-read order")
	}
	if order.AssignedAgentID != nil {
		return errOrderAlreadyAssigned()
	}
	return errOrderNotAssignable()
}

// classifyLoadFailure re-reads the profile after a failed workload increment.
func (s *service) classifyLoadFailure(ctx context.Context, repo Repository, agentID uuid.UUID) error {
	profile, err := repo.FindAgentProfile(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errAgentNotFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-read agent profile")
	}
	if !profile.IsActive {
		return errAgentInactive()
	}
	return errAgentAtCapacity()
}

type outcomeParams struct {
	orderID        uuid.UUID
	agentID        uuid.UUID
	actorID        *uuid.UUID
	mode           enums.AssignmentMode
	previousStatus enums.OrderStatus
	latency        time.Duration
	err            error
}

// recordOutcome appends the audit event and updates metrics. It runs outside
// the assignment transaction so failed attempts are recorded too; an append
// failure is logged, never propagated.
func (s *service) recordOutcome(ctx context.Context, p outcomeParams) {
	result := enums.AssignmentResultSuccess
	var reason *string
	if p.err != nil {
		result = enums.AssignmentResultFailure
		r := failReason(p.err)
		reason = &r
	}

	s.metrics.IncAttempt(p.mode.String(), result.String())
	s.metrics.ObserveLatency(p.mode.String(), p.latency)

	// Events reference the order and agent rows; attempts that failed because
	// either does not exist have nothing to audit against.
	if typed := pkgerrors.As(p.err); typed != nil {
		if typed.Code() == pkgerrors.CodeNotFound || typed.Code() == pkgerrors.CodeValidation || typed.Code() == pkgerrors.CodeUnauthorized {
			return
		}
	}

	event := &models.AssignmentEvent{
		OrderID:        p.orderID,
		AgentID:        p.agentID,
		AssignedByID:   p.actorID,
		Mode:           p.mode,
		PreviousStatus: p.previousStatus,
		Result:         result,
		FailReason:     reason,
		LatencyMS:      p.latency.Milliseconds(),
	}
	if err := s.repo.AppendEvent(ctx, event); err != nil {
		s.log.Error(ctx, "append assignment event", err)
	}
}

func (s *service) notify(ctx context.Context, agentID uuid.UUID, order *models.PickupOrder, mode enums.AssignmentMode) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAssignment(ctx, agentID, order, mode); err != nil {
		s.log.Warn(s.log.WithAgentID(ctx, agentID.String()), "assignment notice not delivered")
	}
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.PickupOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOrderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadProfile(ctx context.Context, repo Repository, agentID uuid.UUID) (*models.AgentProfile, error) {
	profile, err := repo.FindAgentProfile(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errAgentNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load agent profile")
	}
	return profile, nil
}
