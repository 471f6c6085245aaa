package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"retouch-bot/internal/domain/entity"
)

func newTestWorkflow(host *fakeHost, seg *fakeSegmenter, n *recordingNotifier) *MaskWorkflow {
	return NewMaskWorkflow(host, seg, n, DispatcherOptions{MultimaskOutput: true}, nil)
}

func TestMaskWorkflow_CreateMask(t *testing.T) {
	host := newFakeHost([]byte("doc"))
	seg := &fakeSegmenter{res: &entity.MaskResult{Mask: entity.EncodeMask(maskBytes), Score: 0.873}}
	n := &recordingNotifier{}
	w := newTestWorkflow(host, seg, n)
	ctx := context.Background()

	require.NoError(t, w.Collector().Start(ctx))
	_, err := w.Collector().AddPoint(ctx, "10", "20", "fg")
	require.NoError(t, err)
	_, err = w.Collector().AddPoint(ctx, "5", "5", "bg")
	require.NoError(t, err)

	out, err := w.CreateMask(ctx)
	require.NoError(t, err)
	require.Equal(t, "✅ Маска создана! Уверенность: 87.3%", out.Status)
	require.Equal(t, "SAM Mask (derived from 2 points)", out.Label)
	require.Zero(t, w.Collector().Size())
	require.Equal(t, entity.NoticeSuccess, n.Last().Level)
	require.False(t, n.Last().HasPoints())
}

func TestMaskWorkflow_EmptySetNoRequest(t *testing.T) {
	host := newFakeHost([]byte("doc"))
	seg := &fakeSegmenter{}
	n := &recordingNotifier{}
	w := newTestWorkflow(host, seg, n)

	_, err := w.CreateMask(context.Background())
	require.ErrorIs(t, err, entity.ErrPrecondition)
	require.Zero(t, seg.Calls())
	require.Equal(t, entity.NoticeError, n.Last().Level)
	require.Contains(t, n.Last().Text, "❌")
}

func TestMaskWorkflow_BackendFailureKeepsPoints(t *testing.T) {
	host := newFakeHost([]byte("doc"))
	seg := &fakeSegmenter{err: &entity.BackendError{StatusCode: 500, Body: "model unavailable"}}
	n := &recordingNotifier{}
	w := newTestWorkflow(host, seg, n)
	ctx := context.Background()

	_, err := w.Collector().AddPoint(ctx, "10", "20", "fg")
	require.NoError(t, err)
	before := w.Collector().Snapshot()

	_, err = w.CreateMask(ctx)
	require.Error(t, err)
	require.Equal(t, before, w.Collector().Snapshot())
	require.Equal(t, "❌ backend request failed: 500 - model unavailable", n.Last().Text)
	require.True(t, n.Last().HasPoints())
	require.Empty(t, host.placed)

	// после сбоя можно повторить
	seg.err = nil
	seg.res = &entity.MaskResult{Mask: entity.EncodeMask(maskBytes), Score: 1}
	_, err = w.CreateMask(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, seg.Calls())
}

func TestMaskWorkflow_PlacementFailureStillClears(t *testing.T) {
	host := newFakeHost([]byte("doc"))
	host.panics = true
	seg := &fakeSegmenter{res: &entity.MaskResult{Mask: entity.EncodeMask(maskBytes), Score: 0.2}}
	n := &recordingNotifier{}
	w := newTestWorkflow(host, seg, n)
	ctx := context.Background()

	_, err := w.Collector().AddPoint(ctx, "1", "1", "")
	require.NoError(t, err)

	out, err := w.CreateMask(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, out.PlacementErr, entity.ErrPlacement)
	require.Zero(t, w.Collector().Size())
	require.Equal(t, entity.NoticeWarning, n.Last().Level)
}

func TestMaskWorkflow_SecondRequestRejectedWhileInFlight(t *testing.T) {
	host := newFakeHost([]byte("doc"))
	seg := &fakeSegmenter{
		res:     &entity.MaskResult{Mask: entity.EncodeMask(maskBytes), Score: 0.9},
		entered: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	w := newTestWorkflow(host, seg, &recordingNotifier{})
	ctx := context.Background()

	_, err := w.Collector().AddPoint(ctx, "3", "4", "fg")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.CreateMask(ctx)
		done <- err
	}()
	<-seg.entered

	_, err = w.CreateMask(ctx)
	require.ErrorIs(t, err, entity.ErrBusy)
	_, err = w.Collector().AddPoint(ctx, "7", "7", "fg")
	require.ErrorIs(t, err, entity.ErrBusy)
	require.ErrorIs(t, w.Collector().Clear(ctx), entity.ErrBusy)

	close(seg.unblock)
	require.NoError(t, <-done)
	require.Equal(t, 1, seg.Calls())
	require.Zero(t, w.Collector().Size())
}

func TestMaskWorkflow_EmptyMaskIsNotSuccess(t *testing.T) {
	host := newFakeHost([]byte("doc"))
	seg := &fakeSegmenter{res: &entity.MaskResult{Mask: "", Score: 0.9}}
	n := &recordingNotifier{}
	w := newTestWorkflow(host, seg, n)
	ctx := context.Background()

	_, err := w.Collector().AddPoint(ctx, "10", "20", "fg")
	require.NoError(t, err)

	_, err = w.CreateMask(ctx)
	require.ErrorIs(t, err, entity.ErrMalformedResponse)
	require.Equal(t, 1, w.Collector().Size())
	require.Equal(t, entity.NoticeError, n.Last().Level)
	require.Empty(t, host.placed)
}
