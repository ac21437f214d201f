// Package label provides the application layer for nutrition labels
// This implements the use cases defined in the inbound ports
package label

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/label"
	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrilabel/internal/ports/inbound"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/alchemorsel/nutrilabel/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	lookupService = "nutrient lookup"
	defaultLimit  = 20
)

// Metrics receives pipeline measurements. *monitoring.MetricsCollector
// implements it.
type Metrics interface {
	Stage(stage string, duration time.Duration)
	LabelGenerated(outcome string)
	DataQualityWarning(kind string)
	SkippedIngredients(n int)
}

type nopMetrics struct{}

func (nopMetrics) Stage(string, time.Duration) {}
func (nopMetrics) LabelGenerated(string)       {}
func (nopMetrics) DataQualityWarning(string)   {}
func (nopMetrics) SkippedIngredients(int)      {}

// Config holds service tuning
type Config struct {
	// Concurrency bounds parallel nutrient lookups per recipe
	Concurrency int

	// DefaultServingSizeGrams applies when a command leaves the serving size
	// at zero
	DefaultServingSizeGrams float64
}

// Service implements the label use cases
type Service struct {
	labels   outbound.LabelRepository
	lookup   outbound.NutrientLookup
	metrics  Metrics
	tracer   trace.Tracer
	validate *validator.Validate
	config   Config
	logger   *zap.Logger
}

var _ inbound.LabelService = (*Service)(nil)

// NewService creates a new label service. A nil tracer or metrics disables
// them.
func NewService(
	labels outbound.LabelRepository,
	lookup outbound.NutrientLookup,
	metrics Metrics,
	tracer trace.Tracer,
	config Config,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("label-service")
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.DefaultServingSizeGrams <= 0 {
		config.DefaultServingSizeGrams = 100
	}

	return &Service{
		labels:   labels,
		lookup:   lookup,
		metrics:  metrics,
		tracer:   tracer,
		validate: validator.New(),
		config:   config,
		logger:   logger.Named("label-service"),
	}
}

// Parse reads recipe text into a draft
func (s *Service) Parse(ctx context.Context, text string) (*inbound.Draft, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.Parse")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.Stage("parse", time.Since(start)) }()

	if err := s.validate.Var(text, "required,max=20000"); err != nil {
		return nil, s.fail(span, errors.NewValidationError("recipe text is required and must not exceed 20000 characters"))
	}

	parsed := recipe.Parse(text)
	span.SetAttributes(
		attribute.String("recipe.title", parsed.Title),
		attribute.Int("recipe.ingredients", len(parsed.Ingredients)),
		attribute.Int("recipe.sub_recipes", len(parsed.SubRecipes)),
	)

	if !parsed.OK() {
		s.log(ctx).Info("Recipe rejected by parser",
			zap.String("title", parsed.Title),
			zap.Strings("errors", parsed.Errors))
		return nil, s.fail(span, errors.NewParseError(parsed.Errors, parsed.Err()))
	}

	s.log(ctx).Debug("Recipe parsed",
		zap.String("title", parsed.Title),
		zap.Int("ingredients", len(parsed.Ingredients)),
		zap.Int("sub_recipes", len(parsed.SubRecipes)),
		zap.Int("warnings", len(parsed.Warnings)))

	return &inbound.Draft{
		Recipe:   parsed,
		Resolved: map[string]nutrition.Resolution{},
		Saved:    map[string]nutrition.AggregatedDish{},
		Skipped:  []string{},
	}, nil
}

// pending is one ingredient key still waiting for nutrient data
type pending struct {
	key  string
	name string
}

// Resolve fetches nutrient data for every ingredient of the draft that has
// none yet. Saved labels are matched by title before the nutrient lookup is
// asked. Ingredients in skip are left out. Unknown ingredients are reported
// together so the caller can skip or rename them in one round trip.
func (s *Service) Resolve(ctx context.Context, draft *inbound.Draft, skip []string) (*inbound.Draft, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.Resolve")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.Stage("resolve", time.Since(start)) }()

	if draft == nil {
		return nil, s.fail(span, errors.NewBadRequestError("draft is required"))
	}
	if !draft.Recipe.OK() {
		return nil, s.fail(span, errors.NewParseError(draft.Recipe.Errors, draft.Recipe.Err()))
	}

	out := cloneDraft(draft, skip)
	skipped := make(map[string]bool, len(out.Skipped))
	for _, name := range out.Skipped {
		skipped[recipe.Key(name)] = true
	}

	var todo []pending
	seen := make(map[string]bool)
	for _, ing := range out.Recipe.LeafIngredients() {
		key := ing.Key()
		if seen[key] || skipped[key] {
			continue
		}
		seen[key] = true
		if _, ok := out.Resolved[key]; ok {
			continue
		}
		if _, ok := out.Saved[key]; ok {
			continue
		}
		todo = append(todo, pending{key: key, name: ing.IngredientName})
	}
	span.SetAttributes(attribute.Int("lookup.pending", len(todo)))

	var (
		mu       sync.Mutex
		notFound []string
	)
	titleKey := recipe.Key(out.Recipe.Title)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, p := range todo {
		p := p
		g.Go(func() error {
			if p.key != titleKey {
				saved, err := s.labels.FindByTitle(gctx, p.key)
				switch {
				case err == nil:
					mu.Lock()
					out.Saved[p.key] = saved.Dish
					mu.Unlock()
					return nil
				case !stderrors.Is(err, outbound.ErrLabelNotFound):
					return errors.NewDatabaseError("find saved label", err)
				}
			}

			res, err := s.lookup.Lookup(gctx, p.name)
			if err != nil {
				if stderrors.Is(err, outbound.ErrIngredientNotFound) {
					mu.Lock()
					notFound = append(notFound, p.name)
					mu.Unlock()
					return nil
				}
				return s.lookupError(err)
			}

			mu.Lock()
			out.Resolved[p.key] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log(ctx).Warn("Ingredient resolution failed", zap.Error(err))
		return nil, s.fail(span, err)
	}

	if len(notFound) > 0 {
		sort.Strings(notFound)
		s.log(ctx).Info("Ingredients not found", zap.Strings("ingredients", notFound))
		return nil, s.fail(span, errors.NewIngredientNotFoundError(notFound))
	}

	s.log(ctx).Debug("Ingredients resolved",
		zap.Int("looked_up", len(todo)),
		zap.Int("resolved", len(out.Resolved)),
		zap.Int("saved", len(out.Saved)),
		zap.Strings("skipped", out.Skipped))

	return out, nil
}

// Finalize aggregates a resolved draft and stores the resulting label
func (s *Service) Finalize(ctx context.Context, draft *inbound.Draft, cmd inbound.FinalizeCommand) (*inbound.LabelDTO, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.Finalize")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.Stage("finalize", time.Since(start)) }()

	if draft == nil {
		return nil, s.fail(span, errors.NewBadRequestError("draft is required"))
	}
	if !draft.Recipe.OK() {
		return nil, s.fail(span, errors.NewParseError(draft.Recipe.Errors, draft.Recipe.Err()))
	}
	if cmd.ServingSizeGrams == 0 {
		cmd.ServingSizeGrams = s.config.DefaultServingSizeGrams
	}
	if err := s.validate.Struct(cmd); err != nil {
		return nil, s.fail(span, validationError(err))
	}
	span.SetAttributes(
		attribute.Float64("label.serving_size_grams", cmd.ServingSizeGrams),
		attribute.Float64("label.yield_factor", cmd.YieldFactor),
	)

	dish, err := nutrition.Aggregate(nutrition.Input{
		Recipe:           draft.Recipe,
		Resolved:         draft.Resolved,
		Saved:            draft.Saved,
		ServingSizeGrams: cmd.ServingSizeGrams,
		YieldFactor:      cmd.YieldFactor,
	})
	if err != nil {
		return nil, s.fail(span, aggregationError(err))
	}

	for _, w := range dish.Warnings {
		s.metrics.DataQualityWarning(string(w.Kind))
	}
	s.metrics.SkippedIngredients(len(dish.Skipped))

	entity, err := label.NewLabel(draft.Recipe, dish)
	if err != nil {
		return nil, s.fail(span, errors.NewValidationError(err.Error()))
	}

	if err := s.labels.Save(ctx, entity); err != nil {
		return nil, s.fail(span, errors.NewDatabaseError("save label", err))
	}

	span.SetAttributes(attribute.String("label.id", entity.ID.String()))
	s.log(ctx).Info("Label created",
		zap.String("label_id", entity.ID.String()),
		zap.String("title", entity.Title()),
		zap.Float64("total_weight_grams", dish.TotalWeightGrams),
		zap.Int("warnings", len(dish.Warnings)),
		zap.Strings("skipped", dish.Skipped))

	return inbound.NewLabelDTO(entity), nil
}

// Generate runs parse, resolve and finalize in one call
func (s *Service) Generate(ctx context.Context, cmd inbound.GenerateLabelCommand) (*inbound.LabelDTO, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.Generate")
	defer span.End()

	if cmd.ServingSizeGrams == 0 {
		cmd.ServingSizeGrams = s.config.DefaultServingSizeGrams
	}
	if err := s.validate.Struct(cmd); err != nil {
		s.metrics.LabelGenerated("invalid")
		return nil, s.fail(span, validationError(err))
	}

	dto, err := s.generate(ctx, cmd)
	s.metrics.LabelGenerated(outcome(err))
	if err != nil {
		return nil, s.fail(span, err)
	}
	return dto, nil
}

func (s *Service) generate(ctx context.Context, cmd inbound.GenerateLabelCommand) (*inbound.LabelDTO, error) {
	draft, err := s.Parse(ctx, cmd.Text)
	if err != nil {
		return nil, err
	}
	draft, err = s.Resolve(ctx, draft, cmd.Skip)
	if err != nil {
		return nil, err
	}
	return s.Finalize(ctx, draft, inbound.FinalizeCommand{
		ServingSizeGrams: cmd.ServingSizeGrams,
		YieldFactor:      cmd.YieldFactor,
	})
}

// Rescale returns a stored label at another serving size. The stored label
// is not modified.
func (s *Service) Rescale(ctx context.Context, cmd inbound.RescaleCommand) (*inbound.LabelDTO, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.Rescale",
		trace.WithAttributes(attribute.String("label.id", cmd.LabelID.String())))
	defer span.End()

	if err := s.validate.Struct(cmd); err != nil {
		return nil, s.fail(span, validationError(err))
	}

	entity, err := s.find(ctx, cmd.LabelID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	rescaled, err := entity.Rescale(cmd.ServingSizeGrams)
	if err != nil {
		return nil, s.fail(span, aggregationError(err))
	}
	return inbound.NewLabelDTO(rescaled), nil
}

// GetLabel retrieves a stored label
func (s *Service) GetLabel(ctx context.Context, id uuid.UUID) (*inbound.LabelDTO, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.GetLabel",
		trace.WithAttributes(attribute.String("label.id", id.String())))
	defer span.End()

	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return inbound.NewLabelDTO(entity), nil
}

// ListLabels lists stored labels, newest first
func (s *Service) ListLabels(ctx context.Context, params inbound.PaginationParams) (*inbound.LabelList, error) {
	ctx, span := s.tracer.Start(ctx, "LabelService.ListLabels")
	defer span.End()

	if params.Limit == 0 {
		params.Limit = defaultLimit
	}
	if err := s.validate.Struct(params); err != nil {
		return nil, s.fail(span, validationError(err))
	}

	labels, total, err := s.labels.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, s.fail(span, errors.NewDatabaseError("list labels", err))
	}

	dtos := make([]*inbound.LabelDTO, len(labels))
	for i, l := range labels {
		dtos[i] = inbound.NewLabelDTO(l)
	}

	return &inbound.LabelList{
		Labels: dtos,
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
	}, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*label.Label, error) {
	entity, err := s.labels.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, outbound.ErrLabelNotFound) {
			return nil, errors.NewLabelNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find label", err)
	}
	return entity, nil
}

// lookupError maps a failed lookup onto an application error
func (s *Service) lookupError(err error) error {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAppError(errors.CodeServiceUnavailable, "Request cancelled", err.Error()).WithCause(err)
	case stderrors.Is(err, outbound.ErrLookupRateLimited):
		return errors.NewTooManyRequestsError(lookupService, err)
	default:
		return errors.NewExternalServiceError(lookupService, err)
	}
}

// validationError reports each failed field of a validator error
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}
	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()),
		})
	}
	return errors.NewValidationErrors(out)
}

// aggregationError maps a domain failure onto an application error
func aggregationError(err error) error {
	var convErr *nutrition.ConversionError
	if stderrors.As(err, &convErr) {
		return errors.NewConversionError(convErr.Ingredient, err)
	}
	if stderrors.Is(err, nutrition.ErrInvalidServingSize) || stderrors.Is(err, nutrition.ErrInvalidYield) {
		return errors.NewValidationError(err.Error())
	}
	return errors.NewAggregationError(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch errors.GetCode(err) {
	case errors.CodeParseFailed:
		return "parse_failed"
	case errors.CodeIngredientNotFound:
		return "ingredient_not_found"
	case errors.CodeConversionFailed, errors.CodeAggregationFailed:
		return "aggregation_failed"
	case errors.CodeTooManyRequests, errors.CodeExternalServiceError, errors.CodeServiceUnavailable:
		return "lookup_failed"
	default:
		return "error"
	}
}

// fail records err on the span and returns it
func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(errors.GetCode(err)))
	return err
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return s.logger.With(monitoring.TraceFields(ctx)...)
}

// cloneDraft copies draft so the caller's maps are not modified, merging
// skip into its skip list and dropping data for skipped ingredients
func cloneDraft(draft *inbound.Draft, skip []string) *inbound.Draft {
	out := &inbound.Draft{
		Recipe:   draft.Recipe,
		Resolved: make(map[string]nutrition.Resolution, len(draft.Resolved)),
		Saved:    make(map[string]nutrition.AggregatedDish, len(draft.Saved)),
	}
	for k, v := range draft.Resolved {
		out.Resolved[k] = v
	}
	for k, v := range draft.Saved {
		out.Saved[k] = v
	}

	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, draft.Skipped...), skip...) {
		name = strings.TrimSpace(name)
		key := recipe.Key(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out.Skipped = append(out.Skipped, name)
		delete(out.Resolved, key)
		delete(out.Saved, key)
	}
	if out.Skipped == nil {
		out.Skipped = []string{}
	}
	return out
}
