package domain

import (
	"context"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/internal/repository"
	"github.com/tonlotto/backend/pkg/errorx"
	"github.com/tonlotto/backend/pkg/xcontext"
)

// Events accepted from the webapp. Anything else is rejected so the funnel
// table cannot be polluted by arbitrary client input.
var allowedAnalyticsEvents = map[string]bool{
	"webapp_open":       true,
	"wallet_connect":    true,
	"deposit_intent":    true,
	"deposit_confirmed": true,
	"history_open":      true,
	"audit_open":        true,
}

type AnalyticsDomain interface {
	CreateEvent(context.Context, *model.CreateAnalyticsEventRequest) (*model.CreateAnalyticsEventResponse, error)
	GetFunnel(context.Context, *model.GetAnalyticsFunnelRequest) (*model.GetAnalyticsFunnelResponse, error)
}

type analyticsDomain struct {
	analyticsEventRepo repository.AnalyticsEventRepository
}

func NewAnalyticsDomain(analyticsEventRepo repository.AnalyticsEventRepository) *analyticsDomain {
	return &analyticsDomain{analyticsEventRepo: analyticsEventRepo}
}

func (d *analyticsDomain) CreateEvent(
	ctx context.Context, req *model.CreateAnalyticsEventRequest,
) (*model.CreateAnalyticsEventResponse, error) {
	if !allowedAnalyticsEvents[req.Event] {
		return nil, errorx.New(errorx.BadRequest, "Unknown event %s", req.Event)
	}

	event := &entity.AnalyticsEvent{
		SnowFlakeBase: entity.SnowFlakeBase{ID: xcontext.SnowflakeNode(ctx).Generate().Int64()},
		Event:         req.Event,
		UserID:        req.UserID,
		Wallet:        req.Wallet,
		Extra:         req.Extra,
	}

	if r := xcontext.HTTPRequest(ctx); r != nil {
		event.IP = r.RemoteAddr
		event.UserAgent = r.UserAgent()
	}

	if err := d.analyticsEventRepo.Create(ctx, event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create analytics event: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateAnalyticsEventResponse{}, nil
}

func (d *analyticsDomain) GetFunnel(
	ctx context.Context, req *model.GetAnalyticsFunnelRequest,
) (*model.GetAnalyticsFunnelResponse, error) {
	counts, err := d.analyticsEventRepo.CountByEvent(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count analytics events: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetAnalyticsFunnelResponse{ByEvent: []model.EventFunnel{}}
	for _, c := range counts {
		resp.ByEvent = append(resp.ByEvent, model.EventFunnel{Event: c.Event, Count: c.Count})
	}

	return resp, nil
}
