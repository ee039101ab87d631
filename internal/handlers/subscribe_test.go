package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"popup-service/internal/mocks"
)

func setupSubscriptionRouter(handler *SubscriptionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/subscribe", handler.SubscribePush)
	r.POST("/subscribe_sms", handler.SubscribeSMS)
	return r
}

func TestSubscribePushStored(t *testing.T) {
	pushRepo := new(mocks.PushSubscriptionRepositoryMock)
	router := setupSubscriptionRouter(NewSubscriptionHandler(pushRepo, new(mocks.SMSSubscriberRepositoryMock)))

	pushRepo.On("Upsert", mock.Anything, "https://push.example/x", "pk", "as").Return(nil).Once()

	body := bytes.NewBufferString(`{"endpoint":"https://push.example/x","keys":{"p256dh":"pk","auth":"as"}}`)
	req := httptest.NewRequest(http.MethodPost, "/subscribe", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscribed")
	pushRepo.AssertExpectations(t)
}

func TestSubscribePushMalformed(t *testing.T) {
	pushRepo := new(mocks.PushSubscriptionRepositoryMock)
	router := setupSubscriptionRouter(NewSubscriptionHandler(pushRepo, new(mocks.SMSSubscriberRepositoryMock)))

	body := bytes.NewBufferString(`{"endpoint":"https://push.example/x"}`)
	req := httptest.NewRequest(http.MethodPost, "/subscribe", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	pushRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscribePushRepoError(t *testing.T) {
	pushRepo := new(mocks.PushSubscriptionRepositoryMock)
	router := setupSubscriptionRouter(NewSubscriptionHandler(pushRepo, new(mocks.SMSSubscriberRepositoryMock)))

	pushRepo.On("Upsert", mock.Anything, "https://push.example/x", "pk", "as").Return(assert.AnError).Once()

	body := bytes.NewBufferString(`{"endpoint":"https://push.example/x","keys":{"p256dh":"pk","auth":"as"}}`)
	req := httptest.NewRequest(http.MethodPost, "/subscribe", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	pushRepo.AssertExpectations(t)
}

func TestSubscribeSMSStored(t *testing.T) {
	smsRepo := new(mocks.SMSSubscriberRepositoryMock)
	router := setupSubscriptionRouter(NewSubscriptionHandler(new(mocks.PushSubscriptionRepositoryMock), smsRepo))

	smsRepo.On("Upsert", mock.Anything, "+15551234").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/subscribe_sms", bytes.NewBufferString(`{"phone":" +15551234 "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	smsRepo.AssertExpectations(t)
}

func TestSubscribeSMSMissingPhone(t *testing.T) {
	smsRepo := new(mocks.SMSSubscriberRepositoryMock)
	router := setupSubscriptionRouter(NewSubscriptionHandler(new(mocks.PushSubscriptionRepositoryMock), smsRepo))

	req := httptest.NewRequest(http.MethodPost, "/subscribe_sms", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	smsRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
