// Package attendance implements enrollment, check-in and reporting on top
// of the biometric pipeline and an identity store.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
	"github.com/oklog/ulid/v2"
)

// Service orchestrates requests. It holds no identity state between calls.
type Service struct {
	store    database.Store
	guard    *Guard
	pipeline *biometric.Pipeline
	resolver biometric.Resolver
	qr       *QRVerifier
	now      func() time.Time
}

// Options customise a Service. Zero values select defaults.
type Options struct {
	Resolver biometric.Resolver // defaults to the strategy's linear resolver
	QRExpiry time.Duration
	Clock    func() time.Time
}

func NewService(store database.Store, pipeline *biometric.Pipeline, opts Options) *Service {
	s := &Service{
		store:    store,
		guard:    NewGuard(store),
		pipeline: pipeline,
		resolver: opts.Resolver,
		qr:       NewQRVerifier(opts.QRExpiry),
		now:      opts.Clock,
	}
	if s.resolver == nil {
		s.resolver = pipeline.Strategy.Resolver()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Strategy returns the active matching strategy.
func (s *Service) Strategy() *biometric.Strategy {
	return s.pipeline.Strategy
}

// RegisterInput is a new enrollment.
type RegisterInput struct {
	Name        string
	IdentityKey string
	FaceImage   string // data URI
}

// Register enrolls a new identity from a single live capture. Field
// validation runs first, then the capture checks, then the duplicate-key
// check, so a faceless image is reported as such even for a taken key.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*database.Identity, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := ValidateIdentityKey(in.IdentityKey); err != nil {
		return nil, err
	}

	capture, err := s.pipeline.Process(ctx, in.FaceImage)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Precheck(ctx, in.IdentityKey); err != nil {
		return nil, err
	}

	id := &database.Identity{
		ID:            uuid.NewString(),
		IdentityKey:   in.IdentityKey,
		DisplayName:   name,
		FeatureVector: capture.Vector,
		Strategy:      s.pipeline.Strategy.Name(),
		Dim:           len(capture.Vector),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.guard.Insert(ctx, id); err != nil {
		return nil, err
	}

	logger.Info("identity registered",
		logger.LoggerOptions{Key: "identity_key", Data: id.IdentityKey},
		logger.LoggerOptions{Key: "strategy", Data: id.Strategy},
	)
	return id, nil
}

// Identification is a capture resolved to an enrolled identity.
type Identification struct {
	Identity *database.Identity
	Match    biometric.Match
	Capture  *biometric.Capture
}

// Identify resolves a capture against a fresh read of every identity
// without recording attendance.
func (s *Service) Identify(ctx context.Context, faceImage string) (*Identification, error) {
	capture, err := s.pipeline.Process(ctx, faceImage)
	if err != nil {
		return nil, err
	}

	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}
	pool := s.candidates(identities)

	match, err := s.resolver.Resolve(capture.Vector, pool.candidates)
	if err != nil {
		return nil, err
	}
	return &Identification{
		Identity: &identities[pool.index[match.Index]],
		Match:    match,
		Capture:  capture,
	}, nil
}

type candidatePool struct {
	candidates []biometric.Candidate
	index      []int // candidate position -> identities position
}

// candidates keeps identities produced by the active strategy. Vectors
// from another strategy or dimension are not comparable and are skipped.
func (s *Service) candidates(identities []database.Identity) candidatePool {
	strategy := s.pipeline.Strategy
	pool := candidatePool{
		candidates: make([]biometric.Candidate, 0, len(identities)),
		index:      make([]int, 0, len(identities)),
	}
	for i := range identities {
		id := &identities[i]
		if id.Strategy != strategy.Name() || len(id.FeatureVector) != strategy.Dim() {
			logger.Warning("skipping identity enrolled with another strategy",
				logger.LoggerOptions{Key: "identity_key", Data: id.IdentityKey},
				logger.LoggerOptions{Key: "strategy", Data: id.Strategy},
				logger.LoggerOptions{Key: "dim", Data: len(id.FeatureVector)},
			)
			continue
		}
		pool.candidates = append(pool.candidates, biometric.Candidate{Key: id.IdentityKey, Vector: id.FeatureVector})
		pool.index = append(pool.index, i)
	}
	return pool
}

// FaceInput is a face check-in request.
type FaceInput struct {
	FaceImage string
	Location  *database.Location
}

// CheckIn is a recorded attendance event with the resolved identity.
type CheckIn struct {
	Identity *database.Identity
	Event    *database.AttendanceEvent
}

// MarkByFace identifies the person in the capture and records one
// attendance event.
func (s *Service) MarkByFace(ctx context.Context, in FaceInput) (*CheckIn, error) {
	ident, err := s.Identify(ctx, in.FaceImage)
	if err != nil {
		return nil, err
	}

	ev := s.newEvent(ident.Identity.IdentityKey, database.MethodFace, in.Location)
	ev.Confidence = ident.Match.Confidence
	ev.Score = ident.Match.Score
	if err := s.store.AppendAttendance(ctx, ev); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}

	logger.Info("attendance marked",
		logger.LoggerOptions{Key: "identity_key", Data: ev.IdentityKey},
		logger.LoggerOptions{Key: "method", Data: ev.Method},
		logger.LoggerOptions{Key: "score", Data: ev.Score},
	)
	return &CheckIn{Identity: ident.Identity, Event: ev}, nil
}

// QRInput is a QR check-in request.
type QRInput struct {
	Payload  QRPayload
	Location *database.Location
}

// MarkByQR records attendance for a fresh QR code of an enrolled identity.
func (s *Service) MarkByQR(ctx context.Context, in QRInput) (*CheckIn, error) {
	key, err := s.qr.Verify(in.Payload, s.now())
	if err != nil {
		return nil, err
	}

	id, err := s.GetIdentity(ctx, key)
	if err != nil {
		return nil, err
	}

	ev := s.newEvent(id.IdentityKey, database.MethodQR, in.Location)
	if err := s.store.AppendAttendance(ctx, ev); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}

	logger.Info("attendance marked",
		logger.LoggerOptions{Key: "identity_key", Data: ev.IdentityKey},
		logger.LoggerOptions{Key: "method", Data: ev.Method},
	)
	return &CheckIn{Identity: id, Event: ev}, nil
}

func (s *Service) newEvent(key, method string, loc *database.Location) *database.AttendanceEvent {
	now := s.now().UTC()
	return &database.AttendanceEvent{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		IdentityKey: key,
		Timestamp:   now,
		Method:      method,
		Location:    loc,
		Verified:    true,
	}
}

// CheckLiveness runs detection and the liveness checks without
// extracting features or touching the store.
func (s *Service) CheckLiveness(ctx context.Context, faceImage string) (biometric.Verdict, error) {
	capture, err := s.pipeline.Analyze(ctx, faceImage)
	if err != nil {
		return biometric.Verdict{}, err
	}
	return capture.Verdict, nil
}

// GetIdentity returns the identity for key or ErrUnknownIdentity.
func (s *Service) GetIdentity(ctx context.Context, key string) (*database.Identity, error) {
	id, err := s.store.GetIdentity(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if id == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentity, key)
	}
	return id, nil
}

// ListIdentities returns identities in enrollment order. A non-empty
// query keeps only names containing it, ignoring case and diacritics.
func (s *Service) ListIdentities(ctx context.Context, query string) ([]database.Identity, error) {
	all, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	if query == "" {
		return all, nil
	}
	out := make([]database.Identity, 0, len(all))
	for _, id := range all {
		if nameMatches(id.DisplayName, query) {
			out = append(out, id)
		}
	}
	return out, nil
}
