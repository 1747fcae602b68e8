package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
	"github.com/iota-uz/orgchart/pkg/composables"
	"github.com/iota-uz/orgchart/pkg/eventbus"
)

var tracer = otel.Tracer("orgchart-services")

type Options struct {
	RootKeywords     []string
	DefaultDirection Direction
	Layout           LayoutOptions
	Now              func() time.Time
}

// Snapshot is one successful load of the employee source.
type Snapshot struct {
	Generation uint64
	Records    []employee.Record
	Hierarchy  *Hierarchy
	LoadedAt   time.Time
}

type ChartRequest struct {
	Filter employee.Filter
	// Expanded nil means "initial view": roots expanded.
	Expanded  []string
	Direction Direction
}

type SessionSettings struct {
	Direction *Direction
	Filter    *employee.Filter
}

type OrgChartService struct {
	repo      employee.Repository
	sessions  session.Repository
	publisher eventbus.EventBus
	logger    *logrus.Logger
	inferrer  *RootInferrer
	opts      Options

	generation atomic.Uint64
	mu         sync.RWMutex
	snapshot   *Snapshot

	sessionLocks keyedMutex
}

func NewOrgChartService(
	repo employee.Repository,
	sessions session.Repository,
	publisher eventbus.EventBus,
	logger *logrus.Logger,
	opts Options,
) *OrgChartService {
	if opts.DefaultDirection == "" {
		opts.DefaultDirection = DirectionTB
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OrgChartService{
		repo:      repo,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
		inferrer:  NewRootInferrer(opts.RootKeywords),
		opts:      opts,
	}
}

// Refresh reloads the employee source. Each call takes a generation
// number; a load that finishes after a newer one has been stored is
// dropped and the newer snapshot is returned.
func (s *OrgChartService) Refresh(ctx context.Context) (*Snapshot, error) {
	gen := s.generation.Add(1)
	ctx, span := tracer.Start(ctx, "orgchart.refresh", trace.WithAttributes(attribute.Int64("orgchart.generation", int64(gen))))
	defer span.End()
	logger := composables.UseLogger(ctx).WithField("generation", gen)

	records, err := s.repo.GetAll(ctx)
	if err != nil {
		recordRefresh("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "source unavailable")
		logger.WithError(err).Error("employee source refresh failed")
		s.publish(&RefreshFailedEvent{Generation: gen, Err: err})
		return nil, newServiceError(
			http.StatusBadGateway,
			employee.ErrSourceUnavailable.Code,
			"employee source unavailable",
			fmt.Errorf("%w: %w", employee.ErrSourceUnavailable, err),
		)
	}

	h := NewHierarchy(records, s.inferrer)
	snap := &Snapshot{Generation: gen, Records: records, Hierarchy: h, LoadedAt: s.opts.Now()}

	s.mu.Lock()
	if current := s.snapshot; current != nil && current.Generation > gen {
		s.mu.Unlock()
		recordRefresh("stale")
		logger.WithError(ErrStaleRefresh).WithField("current", current.Generation).Info("discarding stale refresh")
		return current, nil
	}
	s.snapshot = snap
	s.mu.Unlock()

	recordRefresh("ok")
	orgChartRecords.Set(float64(h.Len()))
	span.SetAttributes(attribute.Int("orgchart.records", h.Len()))

	unreachable := h.Unreachable()
	if len(unreachable) > 0 {
		logger.WithField("employees", unreachable).Warn("employees caught in manager cycles are not reachable from any root")
	}
	logger.WithFields(logrus.Fields{
		"records":       h.Len(),
		"root-strategy": h.roots.Strategy,
	}).Info("employee snapshot refreshed")
	s.publish(&RefreshedEvent{
		Generation:  gen,
		Records:     h.Len(),
		Roots:       h.Roots(),
		Unreachable: unreachable,
		RefreshedAt: snap.LoadedAt,
	})
	return snap, nil
}

// Snapshot returns the current snapshot, loading it on first use.
func (s *OrgChartService) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

func (s *OrgChartService) hierarchy(ctx context.Context, filter employee.Filter) (*Hierarchy, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return snap.Hierarchy, nil
	}
	return NewHierarchy(filter.Apply(snap.Hierarchy.Records()), s.inferrer), nil
}

func (s *OrgChartService) ListEmployees(ctx context.Context, filter employee.Filter) ([]employee.Record, error) {
	h, err := s.hierarchy(ctx, filter)
	if err != nil {
		return nil, err
	}
	return h.Records(), nil
}

func (s *OrgChartService) GetEmployee(ctx context.Context, id string) (employee.Record, error) {
	h, err := s.hierarchy(ctx, employee.Filter{})
	if err != nil {
		return employee.Record{}, err
	}
	r, ok := h.Record(strings.TrimSpace(id))
	if !ok {
		return employee.Record{}, AsServiceError(employee.ErrEmployeeNotFound)
	}
	return r, nil
}

func (s *OrgChartService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	h, err := s.hierarchy(ctx, employee.Filter{})
	if err != nil {
		return nil, err
	}
	return SearchEmployees(h.Records(), query, limit), nil
}

func (s *OrgChartService) Roots(ctx context.Context, filter employee.Filter) (RootInference, error) {
	h, err := s.hierarchy(ctx, filter)
	if err != nil {
		return RootInference{}, err
	}
	return h.Roots(), nil
}

func (s *OrgChartService) CheckQuality(ctx context.Context) (QualityReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return QualityReport{}, err
	}
	return CheckQuality(snap.Records), nil
}

// Chart builds and lays out a stateless chart.
func (s *OrgChartService) Chart(ctx context.Context, req ChartRequest) (Chart, error) {
	h, err := s.hierarchy(ctx, req.Filter)
	if err != nil {
		return Chart{}, err
	}
	state := State{Expanded: NewExpandedSet(req.Expanded...)}
	if req.Expanded == nil {
		state, _ = h.Apply(state, Initialize())
	}
	return s.layout(ctx, h, state.Expanded, req.Direction)
}

func (s *OrgChartService) layout(ctx context.Context, h *Hierarchy, expanded ExpandedSet, dir Direction) (Chart, error) {
	if dir == "" {
		dir = s.opts.DefaultDirection
	}
	_, span := tracer.Start(ctx, "orgchart.chart", trace.WithAttributes(attribute.String("orgchart.direction", string(dir))))
	defer span.End()

	started := time.Now()
	chart, err := LayoutChart(h.Visible(expanded), dir, s.opts.Layout)
	if err != nil {
		span.RecordError(err)
		return Chart{}, AsServiceError(err)
	}
	recordBuild(dir, len(chart.Nodes), started)
	span.SetAttributes(attribute.Int("orgchart.visible_nodes", len(chart.Nodes)))
	return chart, nil
}

// GetSession returns the stored session, or a fresh one showing the roots.
func (s *OrgChartService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	sess, _, err := s.loadSession(ctx, id)
	return sess, err
}

func (s *OrgChartService) loadSession(ctx context.Context, id string) (*session.Session, *Hierarchy, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return nil, nil, AsServiceError(err)
	}
	return s.prepareSession(ctx, id, sess)
}

// prepareSession fills in a fresh session when stored is nil and seeds an
// empty expanded set with the roots of the session's hierarchy.
func (s *OrgChartService) prepareSession(ctx context.Context, id string, stored *session.Session) (*session.Session, *Hierarchy, error) {
	sess := stored
	if sess == nil {
		sess = &session.Session{ID: id, Direction: string(s.opts.DefaultDirection)}
	}
	h, err := s.hierarchy(ctx, sess.Filter)
	if err != nil {
		return nil, nil, err
	}
	if len(sess.Expanded) == 0 {
		state, _ := h.Apply(State{Expanded: NewExpandedSet()}, Initialize())
		sess.Expanded = state.Expanded.IDs()
	}
	return sess, h, nil
}

// mutateSession runs load, fn and save for one session id without other
// writers on the same id interleaving. Shared stores that implement
// session.Updater also guard against writers in other processes.
func (s *OrgChartService) mutateSession(
	ctx context.Context,
	id string,
	fn func(sess *session.Session, h *Hierarchy) error,
) (*session.Session, *Hierarchy, error) {
	unlock := s.sessionLocks.Lock(id)
	defer unlock()

	if updater, ok := s.sessions.(session.Updater); ok {
		var h *Hierarchy
		sess, err := updater.Update(ctx, id, func(current *session.Session) (*session.Session, error) {
			next, hier, err := s.prepareSession(ctx, id, current)
			if err != nil {
				return nil, err
			}
			if err := fn(next, hier); err != nil {
				return nil, err
			}
			next.UpdatedAt = s.opts.Now()
			h = hier
			return next, nil
		})
		if err != nil {
			return nil, nil, AsServiceError(err)
		}
		return sess, h, nil
	}

	sess, h, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := fn(sess, h); err != nil {
		return nil, nil, AsServiceError(err)
	}
	sess.UpdatedAt = s.opts.Now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, nil, AsServiceError(err)
	}
	return sess, h, nil
}

// ApplyAction runs action against the session's state and stores the
// result. A failed action leaves the stored session untouched.
func (s *OrgChartService) ApplyAction(ctx context.Context, id string, action Action) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "orgchart.session.action", trace.WithAttributes(
		attribute.String("orgchart.action", string(action.Type)),
	))
	defer span.End()

	var rejected error
	sess, h, err := s.mutateSession(ctx, id, func(sess *session.Session, h *Hierarchy) error {
		state := State{Expanded: NewExpandedSet(sess.Expanded...), SelectedID: sess.SelectedID}
		next, err := h.Apply(state, action)
		if err != nil {
			rejected = err
			return err
		}
		sess.Expanded = next.Expanded.IDs()
		sess.SelectedID = next.SelectedID
		return nil
	})
	if rejected != nil {
		recordAction(action.Type, rejected)
		span.RecordError(rejected)
		composables.UseLogger(ctx).WithError(rejected).WithFields(logrus.Fields{
			"session":  id,
			"action":   action.Type,
			"employee": action.EmployeeID,
		}).Warn("expansion action rejected")
		return nil, err
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	recordAction(action.Type, nil)

	event := &SessionUpdatedEvent{SessionID: id, Action: action, Expanded: len(sess.Expanded)}
	if r, ok := h.Record(sess.SelectedID); ok {
		event.Selected = &r
	}
	s.publish(event)
	return sess, nil
}

// ConfigureSession changes direction or filter. A new filter rebuilds the
// hierarchy, so the expanded set is reset to its roots.
func (s *OrgChartService) ConfigureSession(ctx context.Context, id string, settings SessionSettings) (*session.Session, error) {
	sess, _, err := s.mutateSession(ctx, id, func(sess *session.Session, _ *Hierarchy) error {
		if settings.Direction != nil {
			sess.Direction = string(*settings.Direction)
		}
		if settings.Filter == nil || *settings.Filter == sess.Filter {
			return nil
		}
		sess.Filter = *settings.Filter
		h, err := s.hierarchy(ctx, sess.Filter)
		if err != nil {
			return err
		}
		sess.Expanded = NewExpandedSet(h.roots.IDs...).IDs()
		if _, ok := h.Record(sess.SelectedID); !ok {
			sess.SelectedID = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// SessionChart lays out the chart a session currently shows.
func (s *OrgChartService) SessionChart(ctx context.Context, id string) (Chart, *session.Session, error) {
	sess, h, err := s.loadSession(ctx, id)
	if err != nil {
		return Chart{}, nil, err
	}
	chart, err := s.layout(ctx, h, NewExpandedSet(sess.Expanded...), Direction(sess.Direction))
	if err != nil {
		return Chart{}, nil, err
	}
	return chart, sess, nil
}

func (s *OrgChartService) DeleteSession(ctx context.Context, id string) error {
	unlock := s.sessionLocks.Lock(id)
	defer unlock()
	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return AsServiceError(err)
	}
	return nil
}

func (s *OrgChartService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}
