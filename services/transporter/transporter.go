// Package transporter covers the transporter-side records a coordinator uses
// to match jobs: backhaul announcements, vetting references and ratings.
package transporter

import (
	"context"
	"sort"
	"strings"
	"time"

	"camionback/apperr"
	"camionback/database/repository"
	"camionback/models"
	"camionback/services/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransporterService interface {
	DeclareEmptyReturn(ctx context.Context, transporterID string, in EmptyReturnInput) (*models.EmptyReturn, error)
	ListMyEmptyReturns(ctx context.Context, transporterID string) ([]models.EmptyReturn, error)
	ListActiveEmptyReturns(ctx context.Context) ([]models.EmptyReturn, error)
	DeleteEmptyReturn(ctx context.Context, transporterID, id string) error
	ExpireEmptyReturns(ctx context.Context) (int64, error)

	Recommendations(ctx context.Context, requestID string) ([]Recommendation, error)
	ListTransporters(ctx context.Context, status models.TransporterStatus) ([]models.User, error)
	ListRatings(ctx context.Context, transporterID string) ([]models.Rating, error)

	AddReference(ctx context.Context, actorID, transporterID string, in ReferenceInput) (*models.TransporterReference, error)
	ListReferences(ctx context.Context, transporterID string, status models.ReferenceStatus) ([]models.TransporterReference, error)
	ReviewReference(ctx context.Context, coordinatorID, referenceID string, approve bool, notes string) (*models.TransporterReference, error)
}

type EmptyReturnInput struct {
	FromCity   string    `json:"fromCity" binding:"required"`
	ToCity     string    `json:"toCity" binding:"required"`
	ReturnDate time.Time `json:"returnDate" binding:"required"`
}

type ReferenceInput struct {
	ReferenceName     string `json:"referenceName" binding:"required"`
	ReferencePhone    string `json:"referencePhone" binding:"required"`
	ReferenceRelation string `json:"referenceRelation"`
}

// Recommendation ranks a transporter for a request.
type Recommendation struct {
	Transporter models.User         `json:"transporter"`
	Score       int                 `json:"score"`
	Reasons     []string            `json:"reasons"`
	EmptyReturn *models.EmptyReturn `json:"emptyReturn,omitempty"`
}

type DefaultTransporterService struct {
	repos  repository.Repos
	audit  *audit.Recorder
	logger *zap.Logger
	now    func() time.Time
}

func NewDefaultTransporterService(repos repository.Repos, recorder *audit.Recorder, logger *zap.Logger) *DefaultTransporterService {
	return &DefaultTransporterService{repos: repos, audit: recorder, logger: logger, now: time.Now}
}

func (s *DefaultTransporterService) DeclareEmptyReturn(ctx context.Context, transporterID string, in EmptyReturnInput) (*models.EmptyReturn, error) {
	in.FromCity = strings.TrimSpace(in.FromCity)
	in.ToCity = strings.TrimSpace(in.ToCity)
	if in.FromCity == "" || in.ToCity == "" || in.ReturnDate.IsZero() {
		return nil, apperr.Validation("Departure city, arrival city and date are required")
	}
	u, err := s.repos.Users.GetByID(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	if !u.CanWork() {
		return nil, apperr.Forbidden("Your account must be validated first")
	}
	er := &models.EmptyReturn{
		ID:            uuid.New().String(),
		TransporterID: transporterID,
		FromCity:      in.FromCity,
		ToCity:        in.ToCity,
		ReturnDate:    in.ReturnDate,
		IsActive:      true,
	}
	if er.Expired(s.now()) {
		return nil, apperr.Validation("Return date is in the past")
	}
	if err := s.repos.Transporters.CreateEmptyReturn(ctx, er); err != nil {
		return nil, err
	}
	return er, nil
}

// live drops returns whose date has passed even if the sweep has not run yet.
func (s *DefaultTransporterService) live(rows []models.EmptyReturn) []models.EmptyReturn {
	now := s.now()
	out := rows[:0]
	for _, er := range rows {
		if er.IsActive && !er.Expired(now) {
			out = append(out, er)
		}
	}
	return out
}

func (s *DefaultTransporterService) ListMyEmptyReturns(ctx context.Context, transporterID string) ([]models.EmptyReturn, error) {
	rows, err := s.repos.Transporters.ListEmptyReturns(ctx, transporterID, false)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range rows {
		if rows[i].Expired(now) {
			rows[i].IsActive = false
		}
	}
	return rows, nil
}

func (s *DefaultTransporterService) ListActiveEmptyReturns(ctx context.Context) ([]models.EmptyReturn, error) {
	rows, err := s.repos.Transporters.ListEmptyReturns(ctx, "", true)
	if err != nil {
		return nil, err
	}
	return s.live(rows), nil
}

func (s *DefaultTransporterService) DeleteEmptyReturn(ctx context.Context, transporterID, id string) error {
	er, err := s.repos.Transporters.GetEmptyReturn(ctx, id)
	if err != nil {
		return err
	}
	if er.TransporterID != transporterID {
		return apperr.Forbidden("Not your empty return")
	}
	er.IsActive = false
	return s.repos.Transporters.UpdateEmptyReturn(ctx, er)
}

// ExpireEmptyReturns deactivates every return dated before today.
func (s *DefaultTransporterService) ExpireEmptyReturns(ctx context.Context) (int64, error) {
	now := s.now()
	y, m, d := now.Date()
	n, err := s.repos.Transporters.ExpireEmptyReturns(ctx, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired empty returns", zap.Int64("count", n))
	}
	return n, nil
}

func sameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Recommendations ranks validated transporters for a request. A backhaul on
// the exact route weighs most, then one leaving from the pickup city, then a
// transporter based there; rating breaks ties.
func (s *DefaultTransporterService) Recommendations(ctx context.Context, requestID string) ([]Recommendation, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	transporters, err := s.repos.Users.List(ctx, models.UserFilter{
		Role:          models.RoleTransporter,
		Status:        models.TransporterValidated,
		AccountStatus: models.AccountActive,
	})
	if err != nil {
		return nil, err
	}
	returns, err := s.ListActiveEmptyReturns(ctx)
	if err != nil {
		return nil, err
	}
	byTransporter := map[string][]models.EmptyReturn{}
	for _, er := range returns {
		byTransporter[er.TransporterID] = append(byTransporter[er.TransporterID], er)
	}

	recs := make([]Recommendation, 0, len(transporters))
	for _, t := range transporters {
		rec := Recommendation{Transporter: t, Reasons: []string{}}
		for i, er := range byTransporter[t.ID] {
			switch {
			case sameCity(er.FromCity, req.FromCity) && sameCity(er.ToCity, req.ToCity):
				if rec.Score < 3 {
					rec.Score = 3
					rec.EmptyReturn = &byTransporter[t.ID][i]
				}
			case sameCity(er.FromCity, req.FromCity):
				if rec.Score < 2 {
					rec.Score = 2
					rec.EmptyReturn = &byTransporter[t.ID][i]
				}
			}
		}
		switch rec.Score {
		case 3:
			rec.Reasons = append(rec.Reasons, "retour à vide sur le trajet")
		case 2:
			rec.Reasons = append(rec.Reasons, "retour à vide depuis la ville de départ")
		}
		if sameCity(t.City, req.FromCity) {
			rec.Score++
			rec.Reasons = append(rec.Reasons, "basé dans la ville de départ")
		}
		if req.HasInterest(t.ID) {
			rec.Score++
			rec.Reasons = append(rec.Reasons, "intéressé par la demande")
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Transporter.Rating > recs[j].Transporter.Rating
	})
	return recs, nil
}

func (s *DefaultTransporterService) ListTransporters(ctx context.Context, status models.TransporterStatus) ([]models.User, error) {
	return s.repos.Users.List(ctx, models.UserFilter{Role: models.RoleTransporter, Status: status})
}

func (s *DefaultTransporterService) ListRatings(ctx context.Context, transporterID string) ([]models.Rating, error) {
	return s.repos.Ratings.ListByTransporter(ctx, transporterID)
}

func (s *DefaultTransporterService) AddReference(ctx context.Context, actorID, transporterID string, in ReferenceInput) (*models.TransporterReference, error) {
	if strings.TrimSpace(in.ReferenceName) == "" || strings.TrimSpace(in.ReferencePhone) == "" {
		return nil, apperr.Validation("Reference name and phone are required")
	}
	u, err := s.repos.Users.GetByID(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleTransporter {
		return nil, apperr.Validation("User is not a transporter")
	}
	ref := &models.TransporterReference{
		ID:                uuid.New().String(),
		TransporterID:     transporterID,
		ReferenceName:     strings.TrimSpace(in.ReferenceName),
		ReferencePhone:    strings.TrimSpace(in.ReferencePhone),
		ReferenceRelation: strings.TrimSpace(in.ReferenceRelation),
		Status:            models.ReferencePending,
	}
	if err := s.repos.Transporters.CreateReference(ctx, ref); err != nil {
		return nil, err
	}
	if actorID != transporterID {
		s.audit.Record(ctx, actorID, "add_reference", audit.TargetReference, ref.ID, map[string]string{"transporterId": transporterID})
	}
	return ref, nil
}

func (s *DefaultTransporterService) ListReferences(ctx context.Context, transporterID string, status models.ReferenceStatus) ([]models.TransporterReference, error) {
	return s.repos.Transporters.ListReferences(ctx, transporterID, status)
}

func (s *DefaultTransporterService) ReviewReference(ctx context.Context, coordinatorID, referenceID string, approve bool, notes string) (*models.TransporterReference, error) {
	ref, err := s.repos.Transporters.GetReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	ref.Status = models.ReferenceRejected
	if approve {
		ref.Status = models.ReferenceValidated
	}
	ref.ValidatedBy = coordinatorID
	ref.Notes = strings.TrimSpace(notes)
	if err := s.repos.Transporters.UpdateReference(ctx, ref); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, coordinatorID, "review_reference", audit.TargetReference, ref.ID, map[string]string{"status": string(ref.Status)})
	return ref, nil
}
