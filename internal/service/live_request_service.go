package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/live-request-service/internal/dyte"
	"github.com/psds-microservice/live-request-service/internal/errs"
	"github.com/psds-microservice/live-request-service/internal/kafka"
	"github.com/psds-microservice/live-request-service/internal/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LiveRequestServicer: интерфейс для handlers (Dependency Inversion).
type LiveRequestServicer interface {
	Create(ctx context.Context, in model.CreateLiveRequest) (*model.LiveVideoRequest, error)
	ListPending(ctx context.Context) ([]model.LiveVideoRequest, error)
	Get(ctx context.Context, id uint64) (*model.LiveVideoRequest, error)
	Start(ctx context.Context, id uint64) (*StartResult, error)
	GetUserToken(ctx context.Context, id uint64) (string, error)
}

// ConferencingClient is the subset of the Dyte API the service needs.
type ConferencingClient interface {
	CreateMeeting(ctx context.Context, in dyte.CreateMeetingRequest) (*dyte.Meeting, error)
	AddParticipant(ctx context.Context, meetingID string, in dyte.AddParticipantRequest) (*dyte.Participant, error)
	RefreshParticipantToken(ctx context.Context, meetingID, participantID string) (string, error)
}

// Options: параметры провайдера и места оператора поддержки.
type Options struct {
	Region               string
	CustomerPreset       string
	SupportPreset        string
	SupportDisplayName   string
	SupportParticipantID string
}

// StartResult is the outcome of Start. Created is true only for the call that took the support seat.
type StartResult struct {
	AuthToken string
	Created   bool
}

const eventTimeout = 5 * time.Second

type LiveRequestService struct {
	db     *gorm.DB
	conf   ConferencingClient
	events kafka.LiveRequestEventProducer
	opts   Options
	log    *zap.Logger
}

func NewLiveRequestService(db *gorm.DB, conf ConferencingClient, events kafka.LiveRequestEventProducer, opts Options, log *zap.Logger) *LiveRequestService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Region == "" {
		opts.Region = "ap-south-1"
	}
	if opts.SupportDisplayName == "" {
		opts.SupportDisplayName = "Customer Support"
	}
	if opts.SupportParticipantID == "" {
		opts.SupportParticipantID = "customer-support"
	}
	return &LiveRequestService{db: db, conf: conf, events: events, opts: opts, log: log}
}

// normalizeCreate обрезает пробелы в строковых полях, чтобы "   " не проходило required.
// Product копируется: входной указатель не меняется.
func normalizeCreate(in model.CreateLiveRequest) model.CreateLiveRequest {
	in.UserName = strings.TrimSpace(in.UserName)
	in.UserEmail = strings.TrimSpace(in.UserEmail)
	if in.Product != nil {
		p := *in.Product
		p.Title = strings.TrimSpace(p.Title)
		in.Product = &p
	}
	return in
}

// MeetingTitle is the provider meeting title for a product.
func MeetingTitle(productTitle string) string {
	return "Live shopping: " + productTitle
}

func (s *LiveRequestService) Create(ctx context.Context, in model.CreateLiveRequest) (*model.LiveVideoRequest, error) {
	in = normalizeCreate(in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	product := *in.Product

	meeting, err := s.conf.CreateMeeting(ctx, dyte.CreateMeetingRequest{
		Title:           MeetingTitle(product.Title),
		PreferredRegion: s.opts.Region,
		RecordOnStart:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}

	participant, err := s.conf.AddParticipant(ctx, meeting.ID, dyte.AddParticipantRequest{
		Name:                in.UserName,
		PresetName:          s.opts.CustomerPreset,
		CustomParticipantID: in.UserEmail,
	})
	if err != nil {
		// No rollback: the meeting stays on the provider side.
		s.log.Error("live request: meeting created without customer participant",
			zap.String("dyte_meeting_id", meeting.ID), zap.Error(err))
		return nil, fmt.Errorf("add customer participant: %w", err)
	}

	req := &model.LiveVideoRequest{
		UserEmail:             in.UserEmail,
		UserName:              in.UserName,
		UserDyteParticipantID: participant.ID,
		DyteMeetingID:         meeting.ID,
		Status:                model.LiveRequestStatusPending,
		Product:               datatypes.NewJSONType(product),
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		s.log.Error("live request: persist failed after provider provisioning",
			zap.String("dyte_meeting_id", meeting.ID), zap.Error(err))
		return nil, fmt.Errorf("persist live request: %w", err)
	}
	s.log.Info("live request created",
		zap.Uint64("live_request_id", req.ID),
		zap.String("dyte_meeting_id", req.DyteMeetingID))
	s.publish(kafka.EventLiveRequestCreated, req)
	return req, nil
}

func (s *LiveRequestService) ListPending(ctx context.Context) ([]model.LiveVideoRequest, error) {
	items := make([]model.LiveVideoRequest, 0)
	if err := s.db.WithContext(ctx).
		Where("status = ?", model.LiveRequestStatusPending).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *LiveRequestService) Get(ctx context.Context, id uint64) (*model.LiveVideoRequest, error) {
	var r model.LiveVideoRequest
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrLiveRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Start joins the support agent to the request's meeting. The first successful call adds the
// support participant and moves the request to ACTIVE; later calls refresh that participant's token.
func (s *LiveRequestService) Start(ctx context.Context, id uint64) (*StartResult, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.HasSupport() {
		return s.rejoinSupport(ctx, req)
	}

	participant, err := s.conf.AddParticipant(ctx, req.DyteMeetingID, dyte.AddParticipantRequest{
		Name:                s.opts.SupportDisplayName,
		PresetName:          s.opts.SupportPreset,
		CustomParticipantID: s.opts.SupportParticipantID,
	})
	if err != nil {
		return nil, fmt.Errorf("add support participant: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&model.LiveVideoRequest{}).
		Where("id = ? AND status = ? AND support_user_dyte_participant_id IS NULL", id, model.LiveRequestStatusPending).
		Updates(map[string]interface{}{
			"support_user_dyte_participant_id": participant.ID,
			"status":                           model.LiveRequestStatusActive,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("assign support seat: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent Start took the seat first; hand out the winner's token instead.
		s.log.Warn("live request: support seat already taken, discarding extra participant",
			zap.Uint64("live_request_id", id),
			zap.String("dyte_participant_id", participant.ID))
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.HasSupport() {
			return nil, fmt.Errorf("assign support seat: live request %d is %s without support participant", id, current.Status)
		}
		return s.rejoinSupport(ctx, current)
	}

	supportID := participant.ID
	req.SupportUserDyteParticipantID = &supportID
	req.Status = model.LiveRequestStatusActive
	s.log.Info("live request started", zap.Uint64("live_request_id", id))
	s.publish(kafka.EventLiveRequestStarted, req)
	return &StartResult{AuthToken: participant.Token, Created: true}, nil
}

func (s *LiveRequestService) rejoinSupport(ctx context.Context, req *model.LiveVideoRequest) (*StartResult, error) {
	token, err := s.conf.RefreshParticipantToken(ctx, req.DyteMeetingID, *req.SupportUserDyteParticipantID)
	if err != nil {
		return nil, fmt.Errorf("refresh support token: %w", err)
	}
	return &StartResult{AuthToken: token, Created: false}, nil
}

// GetUserToken always asks the provider for a fresh customer token; tokens are never stored.
func (s *LiveRequestService) GetUserToken(ctx context.Context, id uint64) (string, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	token, err := s.conf.RefreshParticipantToken(ctx, req.DyteMeetingID, req.UserDyteParticipantID)
	if err != nil {
		return "", fmt.Errorf("refresh user token: %w", err)
	}
	return token, nil
}

// publish отправляет событие в фоне: оно должно уйти даже при отмене запроса, но с таймаутом.
func (s *LiveRequestService) publish(event string, req *model.LiveVideoRequest) {
	if s.events == nil {
		return
	}
	payload := EventPayload(req)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		s.events.ProduceLiveRequestEvent(ctx, event, payload)
	}()
}

// EventPayload is the Kafka payload for a live request.
func EventPayload(r *model.LiveVideoRequest) map[string]interface{} {
	if r == nil {
		return nil
	}
	p := r.Product.Data()
	return map[string]interface{}{
		"live_request_id": int64(r.ID),
		"status":          string(r.Status),
		"dyte_meeting_id": r.DyteMeetingID,
		"user_email":      r.UserEmail,
		"product_id":      p.ID,
		"product_title":   p.Title,
	}
}
