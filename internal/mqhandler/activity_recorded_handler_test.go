package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contractmq "thinkhub/contracts/mq"
	"thinkhub/pkg/mq"
	"thinkhub/pkg/util"
)

type staticMembers struct {
	ids []string
	err error
}

func (m staticMembers) UserIDs(context.Context, []int64) ([]string, error) {
	return m.ids, m.err
}

type recordingInvalidator struct {
	calls [][]string
	err   error
}

func (r *recordingInvalidator) InvalidateUsers(_ context.Context, ids ...string) error {
	r.calls = append(r.calls, ids)
	return r.err
}

func newDeduper(t *testing.T) *util.Deduper {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return util.NewDeduper(client, time.Hour, zap.NewNop())
}

func payload(t *testing.T, p contractmq.ActivityRecordedPayload) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func TestHandleActivityRecordedInvalidatesOnce(t *testing.T) {
	inv := &recordingInvalidator{}
	h := NewActivityRecordedHandler(staticMembers{ids: []string{"owner", "bob"}}, inv, newDeduper(t), zap.NewNop())

	raw := payload(t, contractmq.ActivityRecordedPayload{
		ActivityID: 7,
		UserID:     "owner",
		ProjectID:  1,
		ActionType: "remove_member",
		MemberID:   "carol",
		TraceID:    "trace-1",
	})

	require.NoError(t, h.HandleActivityRecorded(context.Background(), raw))
	require.Len(t, inv.calls, 1)
	assert.ElementsMatch(t, []string{"owner", "bob", "carol"}, inv.calls[0])

	// 同一条活动重复投递不做任何事
	require.NoError(t, h.HandleActivityRecorded(context.Background(), raw))
	assert.Len(t, inv.calls, 1)
}

func TestHandleActivityRecordedSkipsComments(t *testing.T) {
	inv := &recordingInvalidator{}
	h := NewActivityRecordedHandler(staticMembers{ids: []string{"owner"}}, inv, nil, zap.NewNop())

	raw := payload(t, contractmq.ActivityRecordedPayload{ActivityID: 1, ProjectID: 1, ActionType: "comment"})
	require.NoError(t, h.HandleActivityRecorded(context.Background(), raw))
	assert.Empty(t, inv.calls)
}

func TestHandleActivityRecordedMalformed(t *testing.T) {
	h := NewActivityRecordedHandler(staticMembers{}, &recordingInvalidator{}, nil, zap.NewNop())

	err := h.HandleActivityRecorded(context.Background(), json.RawMessage(`not json`))
	assert.ErrorIs(t, err, mq.ErrMalformed)

	err = h.HandleActivityRecorded(context.Background(), json.RawMessage(`{"activity_id": 0, "project_id": 3}`))
	assert.ErrorIs(t, err, mq.ErrMalformed)
}

func TestHandleActivityRecordedFailureReleasesDedup(t *testing.T) {
	boom := errors.New("redis down")
	inv := &recordingInvalidator{err: boom}
	h := NewActivityRecordedHandler(staticMembers{ids: []string{"owner"}}, inv, newDeduper(t), zap.NewNop())
	raw := payload(t, contractmq.ActivityRecordedPayload{ActivityID: 9, ProjectID: 1, ActionType: "create_task", UserID: "owner"})

	assert.ErrorIs(t, h.HandleActivityRecorded(context.Background(), raw), boom)

	// 释放后重试会再次处理
	inv.err = nil
	require.NoError(t, h.HandleActivityRecorded(context.Background(), raw))
	assert.Len(t, inv.calls, 2)

	memberErr := errors.New("pg down")
	h = NewActivityRecordedHandler(staticMembers{err: memberErr}, inv, nil, zap.NewNop())
	assert.ErrorIs(t, h.HandleActivityRecorded(context.Background(), raw), memberErr)
}
