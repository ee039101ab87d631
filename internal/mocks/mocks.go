package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"popup-service/internal/models"
	"popup-service/internal/notify"
	"popup-service/internal/repositories"
)

type BroadcastRepositoryMock struct {
	mock.Mock
}

func (m *BroadcastRepositoryMock) Create(ctx context.Context, params repositories.CreateBroadcastParams) (models.Broadcast, error) {
	args := m.Called(ctx, params)
	var b models.Broadcast
	if val := args.Get(0); val != nil {
		b = val.(models.Broadcast)
	}
	return b, args.Error(1)
}

func (m *BroadcastRepositoryMock) ListActive(ctx context.Context, now time.Time) ([]models.Broadcast, error) {
	args := m.Called(ctx, now)
	var list []models.Broadcast
	if val := args.Get(0); val != nil {
		list = val.([]models.Broadcast)
	}
	return list, args.Error(1)
}

func (m *BroadcastRepositoryMock) DeleteByToken(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *BroadcastRepositoryMock) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *BroadcastRepositoryMock) DeleteByDevice(ctx context.Context, deviceID string) (bool, error) {
	args := m.Called(ctx, deviceID)
	return args.Bool(0), args.Error(1)
}

type PushSubscriptionRepositoryMock struct {
	mock.Mock
}

func (m *PushSubscriptionRepositoryMock) Upsert(ctx context.Context, endpoint, p256dh, auth string) error {
	args := m.Called(ctx, endpoint, p256dh, auth)
	return args.Error(0)
}

func (m *PushSubscriptionRepositoryMock) List(ctx context.Context) ([]models.PushSubscription, error) {
	args := m.Called(ctx)
	var subs []models.PushSubscription
	if val := args.Get(0); val != nil {
		subs = val.([]models.PushSubscription)
	}
	return subs, args.Error(1)
}

func (m *PushSubscriptionRepositoryMock) DeleteByIDs(ctx context.Context, ids []int) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type SMSSubscriberRepositoryMock struct {
	mock.Mock
}

func (m *SMSSubscriberRepositoryMock) Upsert(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func (m *SMSSubscriberRepositoryMock) List(ctx context.Context) ([]models.SMSSubscriber, error) {
	args := m.Called(ctx)
	var subs []models.SMSSubscriber
	if val := args.Get(0); val != nil {
		subs = val.([]models.SMSSubscriber)
	}
	return subs, args.Error(1)
}

type PushSenderMock struct {
	mock.Mock
}

func (m *PushSenderMock) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	args := m.Called(ctx, sub, payload)
	return args.Int(0), args.Error(1)
}

func (m *PushSenderMock) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

type SMSSenderMock struct {
	mock.Mock
}

func (m *SMSSenderMock) Send(ctx context.Context, phone, message string) error {
	args := m.Called(ctx, phone, message)
	return args.Error(0)
}

func (m *SMSSenderMock) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

var _ repositories.BroadcastRepository = (*BroadcastRepositoryMock)(nil)
var _ repositories.PushSubscriptionRepository = (*PushSubscriptionRepositoryMock)(nil)
var _ repositories.SMSSubscriberRepository = (*SMSSubscriberRepositoryMock)(nil)
var _ notify.PushSender = (*PushSenderMock)(nil)
var _ notify.SMSSender = (*SMSSenderMock)(nil)
