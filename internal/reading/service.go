// Package reading generates divination readings. The service owns the
// sequence quota check -> coordinate derivation -> text lookup -> model
// call -> enrichment -> usage log; everything stateful lives behind the
// collaborator ports so the service itself stays stateless.
package reading

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hexcast/internal/hexagram"
)

// Deps are the collaborators a Service needs. Quota, Usage, Texts and
// Model are required; Images may be nil when no image store is configured.
type Deps struct {
	Quota  QuotaChecker
	Usage  UsageLogger
	Texts  TextStore
	Images ImageResolver
	Model  ModelClient
	Logger *zap.Logger
	Now    func() time.Time
}

// Service orchestrates reading generation.
type Service struct {
	quota  QuotaChecker
	usage  UsageLogger
	texts  TextStore
	images ImageResolver
	model  ModelClient
	log    *zap.Logger
	now    func() time.Time
}

// NewService wires a Service from its collaborators.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		quota:  d.Quota,
		usage:  d.Usage,
		texts:  d.Texts,
		images: d.Images,
		model:  d.Model,
		log:    d.Logger,
		now:    d.Now,
	}
}

// GenerateReading runs one full reading. Failures before the model call
// short-circuit with a nil result and a typed error. A usage-log failure
// after a successful model call is the one exception: the finished result
// is returned together with a UsageLogError, because the user already paid
// the model cost and the miss is ours, not theirs.
func (s *Service) GenerateReading(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	decision, err := s.quota.Check(ctx, req.UserID, FeatureBasicDivination)
	if err != nil {
		// Fail closed: an unreachable checker refuses the reading.
		return nil, &QuotaError{UserID: req.UserID, Feature: FeatureBasicDivination, Err: err}
	}
	if !decision.Allowed {
		s.log.Info("reading denied by quota",
			zap.String("user_id", req.UserID),
			zap.String("reason", decision.Reason))
		return nil, &QuotaError{UserID: req.UserID, Feature: FeatureBasicDivination, Reason: decision.Reason}
	}

	coord := hexagram.Derive(req.First, req.Second, req.Third)
	parent, child := coord.Parent(), coord.Child()

	rec, err := s.texts.Get(ctx, parent, child)
	if err != nil {
		return nil, &LookupError{Parent: parent, Child: child, Err: err}
	}
	if !rec.Found {
		s.log.Debug("no text record for coordinate",
			zap.String("parent", parent),
			zap.String("child", child))
	}

	system := BuildSystemPrompt(rec, req.Language)
	user := BuildUserMessage(req.Question, coord)

	structured, err := s.model.Complete(ctx, system, user)
	if err != nil {
		return nil, &ModelError{Err: err}
	}

	result := &Result{
		Parent:         parent,
		Child:          child,
		HexagramName:   structured.HexagramName,
		Summary:        structured.Summary,
		Interpretation: structured.Interpretation,
		LineChange:     structured.LineChange,
		FinalHexagram:  structured.FinalHexagram,
		Advice:         structured.Advice,
		First:          req.First,
		Second:         req.Second,
		Third:          req.Third,
		Question:       req.Question,
		Language:       req.Language,
		CreatedAt:      s.now().UTC(),
	}

	if req.WithImage && s.images != nil {
		url, err := s.images.SignedURL(ctx, parent, child)
		if err != nil {
			// Images decorate the reading; losing one never fails it.
			s.log.Warn("image URL resolution failed",
				zap.String("parent", parent),
				zap.String("child", child),
				zap.Error(err))
		} else {
			result.ImageURL = url
		}
	}

	if err := s.usage.Log(ctx, req.UserID, FeatureBasicDivination); err != nil {
		s.log.Warn("usage log failed after successful reading",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return result, &UsageLogError{UserID: req.UserID, Feature: FeatureBasicDivination, Err: err}
	}

	s.log.Info("reading generated",
		zap.String("user_id", req.UserID),
		zap.String("coordinate", coord.String()),
		zap.Bool("text_found", rec.Found),
		zap.Bool("with_image", result.ImageURL != ""))

	return result, nil
}
