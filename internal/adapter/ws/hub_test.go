package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redcloud442/aurora/internal/domain"
	"github.com/redcloud442/aurora/internal/usecase/claim"
	"github.com/redcloud442/aurora/internal/usecase/dashboard"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth map[string]uuid.UUID

func (a stubAuth) MemberID(token string) (uuid.UUID, error) {
	id, ok := a[strings.TrimPrefix(token, "Bearer ")]
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

type stubPositions struct{ positions []*domain.PackagePosition }

func (s stubPositions) ListActive(context.Context, uuid.UUID) ([]*domain.PackagePosition, error) {
	return s.positions, nil
}

func (s stubPositions) GetByID(context.Context, uuid.UUID) (*domain.PackagePosition, error) {
	return nil, domain.ErrNotFound
}

type stubEarnings struct{}

func (stubEarnings) Get(_ context.Context, memberID uuid.UUID) (*domain.EarningsAggregate, error) {
	a := domain.NewEarningsAggregate(memberID, decimal.Zero, decimal.Zero)
	return &a, nil
}

type stubLedger struct{}

func (stubLedger) List(context.Context, uuid.UUID, domain.HistoryTab, int, int) ([]*domain.LedgerEntry, error) {
	return nil, nil
}

func (stubLedger) Count(context.Context, uuid.UUID, domain.HistoryTab) (int, error) { return 0, nil }

type stubBounties struct{}

func (stubBounties) List(context.Context, uuid.UUID, domain.BountyLevel, int, int) ([]*domain.ReferralBounty, error) {
	return nil, nil
}

func (stubBounties) Count(context.Context, uuid.UUID, domain.BountyLevel) (int, error) { return 0, nil }

type failingSessions struct{}

func (failingSessions) Acquire(context.Context, uuid.UUID) (*dashboard.Session, func(), error) {
	return nil, nil, errors.New("database down")
}

func newTestHub(t *testing.T, memberID uuid.UUID, positions ...*domain.PackagePosition) (*Hub, *httptest.Server) {
	hub, _, srv := newTestHubWithService(t, memberID, positions...)
	return hub, srv
}

func newTestHubWithService(t *testing.T, memberID uuid.UUID, positions ...*domain.PackagePosition) (*Hub, *dashboard.DashboardService, *httptest.Server) {
	t.Helper()
	svc := dashboard.NewDashboardService(stubPositions{positions}, stubEarnings{}, stubLedger{}, stubBounties{}, nil,
		dashboard.Options{FrameInterval: 5 * time.Millisecond}, zap.NewNop())
	t.Cleanup(svc.Close)

	hub := NewHub(svc, stubAuth{"good": memberID}, nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, svc, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/packages?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type, msg.Payload
}

func TestHub_RejectsUnauthenticated(t *testing.T) {
	_, srv := newTestHub(t, uuid.New())

	_, resp, err := dial(t, srv, "bad")

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_SessionUnavailable(t *testing.T) {
	memberID := uuid.New()
	hub := NewHub(failingSessions{}, stubAuth{"good": memberID}, nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	_, resp, err := dial(t, srv, "good")

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_StreamsMaturedPosition(t *testing.T) {
	memberID := uuid.New()
	start := time.Now().Add(-2 * time.Hour)
	matured := &domain.PackagePosition{
		ID:           uuid.New(),
		MemberID:     memberID,
		PackageName:  "Standard",
		Principal:    decimal.NewFromInt(1000),
		Profit:       decimal.NewFromInt(500),
		StartTime:    start,
		MaturityTime: start.Add(time.Hour),
	}
	_, srv := newTestHub(t, memberID, matured)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()

	typ, raw := readMessage(t, conn)
	require.Equal(t, "package", typ)

	var payload PackagePayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, matured.ID.String(), payload.PositionID)
	assert.Equal(t, "100.00", payload.PercentComplete)
	assert.Equal(t, "1500.00", payload.CurrentValue)
	assert.True(t, payload.ReadyToClaim)
	assert.Equal(t, "READY", payload.State)
}

func TestHub_StreamsRemovalAfterClaim(t *testing.T) {
	memberID := uuid.New()
	start := time.Now().Add(-2 * time.Hour)
	matured := &domain.PackagePosition{
		ID:           uuid.New(),
		MemberID:     memberID,
		PackageName:  "Starter",
		Principal:    decimal.NewFromInt(100),
		Profit:       decimal.NewFromInt(20),
		StartTime:    start,
		MaturityTime: start.Add(time.Hour),
	}
	_, svc, srv := newTestHubWithService(t, memberID, matured)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()
	typ, _ := readMessage(t, conn)
	require.Equal(t, "package", typ)

	sess, err := svc.Session(context.Background(), memberID)
	require.NoError(t, err)
	_, err = sess.Positions.Remove(matured.ID, time.Now())
	require.NoError(t, err)

	for {
		typ, raw := readMessage(t, conn)
		if typ != "removed" {
			continue
		}
		var payload RemovedPayload
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, matured.ID.String(), payload.PositionID)
		return
	}
}

func TestHub_NotifyReachesMemberConnections(t *testing.T) {
	memberID := uuid.New()
	hub, srv := newTestHub(t, memberID)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(memberID) == 1 }, 2*time.Second, 5*time.Millisecond)
	hub.Notify(memberID, claim.Notice{Level: claim.NoticeSuccess, Title: "Package claimed", Message: "1500.00 added"})
	hub.Notify(uuid.New(), claim.Notice{Level: claim.NoticeError, Title: "not for this member"})

	typ, raw := readMessage(t, conn)
	require.Equal(t, "notice", typ)
	var payload NoticePayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "success", payload.Level)
	assert.Equal(t, "Package claimed", payload.Title)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	memberID := uuid.New()
	hub, srv := newTestHub(t, memberID)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Connections(memberID) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.Connections(memberID) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_LastDisconnectReleasesSession(t *testing.T) {
	memberID := uuid.New()
	running := &domain.PackagePosition{
		ID:           uuid.New(),
		MemberID:     memberID,
		PackageName:  "Premium",
		Principal:    decimal.NewFromInt(1000),
		Profit:       decimal.NewFromInt(300),
		StartTime:    time.Now(),
		MaturityTime: time.Now().Add(7 * 24 * time.Hour),
	}
	hub, svc, srv := newTestHubWithService(t, memberID, running)

	first, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	second, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	readMessage(t, first)
	readMessage(t, second)
	require.Eventually(t, func() bool { return hub.Connections(memberID) == 2 }, 2*time.Second, 5*time.Millisecond)

	sess, err := svc.Session(context.Background(), memberID)
	require.NoError(t, err)
	require.Equal(t, 1, sess.Positions.Ticker.Len())

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return hub.Connections(memberID) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sess.Positions.Ticker.Len(), "session closed while a connection is still open")

	require.NoError(t, second.Close())
	require.Eventually(t, func() bool { return svc.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, sess.Positions.Ticker.Len())
}

func TestHub_CloseDropsConnections(t *testing.T) {
	memberID := uuid.New()
	hub, srv := newTestHub(t, memberID)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Connections(memberID) == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Close()

	assert.Eventually(t, func() bool { return hub.Connections(memberID) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	allowed, _ := http.NewRequest(http.MethodGet, "/", nil)
	allowed.Header.Set("Origin", "https://app.example.com")
	denied, _ := http.NewRequest(http.MethodGet, "/", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	none, _ := http.NewRequest(http.MethodGet, "/", nil)

	assert.True(t, check(allowed))
	assert.False(t, check(denied))
	assert.True(t, check(none))
	assert.True(t, originChecker(nil)(denied))
}
