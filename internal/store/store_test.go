package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"camclip/internal/store"
	"camclip/internal/testsupport"
)

func TestCreateAndFetchJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, st, "job-1", "front_door", "stream")

	rec, err := st.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if rec.Camera != "front_door" || rec.Method != "stream" {
		t.Fatalf("unexpected row: %+v", rec)
	}
	if rec.Success || rec.Delivered {
		t.Fatal("new job should start unfinished and undelivered")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("created_at not populated")
	}
}

func TestSaveResultAndMarkDelivered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, st, "job-2", "gate", "snapshots")

	err := st.SaveResult(ctx, "job-2", store.Recording{
		Method:          "snapshots",
		FileName:        "gate_20250314_092653_30s.mp4",
		FilePath:        "/tmp/gate_20250314_092653_30s.mp4",
		SizeBytes:       1 << 20,
		DurationSeconds: 30,
		Frames:          6,
		Success:         true,
	})
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := st.MarkDelivered(ctx, "job-2", true); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	rec, err := st.GetByJobID(ctx, "job-2")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if !rec.Success || !rec.Delivered || rec.Frames != 6 {
		t.Fatalf("unexpected row: %+v", rec)
	}
}

func TestSaveResultKeepsMethodWhenEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, st, "job-5", "gate", "stream")

	err := st.SaveResult(ctx, "job-5", store.Recording{
		FileName:  "gate_20250314_092653_30s.mp4",
		SizeBytes: 2048,
		Success:   true,
	})
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	rec, err := st.GetByJobID(ctx, "job-5")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if rec.Method != "stream" {
		t.Fatalf("method = %q, want the value from job creation", rec.Method)
	}

	err = st.SaveResult(ctx, "job-5", store.Recording{Method: "snapshots", Success: true})
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	rec, err = st.GetByJobID(ctx, "job-5")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if rec.Method != "snapshots" {
		t.Fatalf("method = %q, want the explicit override", rec.Method)
	}
}

func TestSaveResultUnknownJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	err := st.SaveResult(context.Background(), "nope", store.Recording{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAttemptsOrderedByInsertion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, st, "job-3", "yard", "stream")

	mechanisms := []string{"telegram_api", "telegram_api", "notify_service"}
	for i, mechanism := range mechanisms {
		err := st.RecordAttempt(ctx, store.Attempt{
			JobID:     "job-3",
			Mechanism: mechanism,
			Attempt:   i + 1,
			Success:   i == len(mechanisms)-1,
			Elapsed:   time.Duration(i+1) * time.Second,
		})
		if err != nil {
			t.Fatalf("RecordAttempt %d: %v", i, err)
		}
	}

	attempts, err := st.Attempts(ctx, "job-3")
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("got %d attempts, want 3", len(attempts))
	}
	for i, att := range attempts {
		if att.Mechanism != mechanisms[i] || att.Attempt != i+1 {
			t.Fatalf("attempt %d out of order: %+v", i, att)
		}
	}
	if !attempts[2].Success {
		t.Fatal("final attempt should be the successful one")
	}
}

func TestSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, st, "a", "cam", "stream")
	testsupport.NewJob(t, st, "b", "cam", "snapshots")

	if err := st.SaveResult(ctx, "a", store.Recording{Method: "stream", Success: true, SizeBytes: 100}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := st.MarkDelivered(ctx, "a", true); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if err := st.SaveResult(ctx, "b", store.Recording{Method: "snapshots", SizeBytes: 999, Error: "no frames"}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	stats, err := st.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if stats.Total != 2 || stats.Succeeded != 1 || stats.Delivered != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalBytes != 100 {
		t.Fatalf("TotalBytes = %d, want 100 (failed jobs excluded)", stats.TotalBytes)
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, st, "old", "cam", "stream")
	time.Sleep(5 * time.Millisecond)
	testsupport.NewJob(t, st, "new", "cam", "stream")

	recs, err := st.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d rows", len(recs))
	}
	if recs[0].JobID != "new" {
		t.Fatalf("first row = %s, want the newest", recs[0].JobID)
	}
}
