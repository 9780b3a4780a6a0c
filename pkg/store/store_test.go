package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/score"
)

func sampleRun(id string, at time.Time) Run {
	return Run{
		ID:         id,
		Engine:     "exhaustive",
		Policy:     "reject",
		MarketHash: "abc",
		Houses:     2,
		Households: 2,
		Report:     score.NewReport(4, 17, 1, 2, market.SideHouse),
		Duration:   15 * time.Millisecond,
		CreatedAt:  at,
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save(%s) error: %v", id, err)
		}
	}
	if err := s.Save(ctx, sampleRun("a", base)); err == nil {
		t.Error("Save() with duplicate id should fail")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	got, err := s.Get(ctx, "b")
	if err != nil {
		t.Fatalf("Get(b) error: %v", err)
	}
	if got.Report.NewScore != 17 {
		t.Errorf("Get(b).Report.NewScore = %v, want 17", got.Report.NewScore)
	}

	if _, err := s.Get(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(zzz) error = %v, want ErrNotFound", err)
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("List(2) = %v, want [c b]", ids(runs))
	}

	runs, _ = s.List(ctx, 0)
	if len(runs) != 3 {
		t.Errorf("List(0) returned %d runs, want 3", len(runs))
	}
}

func TestMemoryStoreSameTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"first", "second"} {
		if err := s.Save(ctx, sampleRun(id, at)); err != nil {
			t.Fatal(err)
		}
	}
	runs, _ := s.List(ctx, 10)
	if len(runs) != 2 || runs[0].ID != "second" {
		t.Errorf("List() = %v, want most recently saved first", ids(runs))
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	if err := s.Save(ctx, sampleRun("a", time.Now())); err != nil {
		t.Errorf("Save() error = %v, want nil", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	runs, err := s.List(ctx, 5)
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = %v, %v, want empty", runs, err)
	}
}

func TestRunBSON(t *testing.T) {
	run := sampleRun("0b9f", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	run.Exchange = &exchange.Stats{Cycles: 2, Moved: 5, ScoreBefore: 10, ScoreAfter: 14}

	data, err := bson.Marshal(run)
	if err != nil {
		t.Fatalf("bson.Marshal() error: %v", err)
	}

	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		t.Fatalf("bson.Unmarshal() error: %v", err)
	}
	if raw["_id"] != "0b9f" {
		t.Errorf("_id = %v, want %q", raw["_id"], "0b9f")
	}
	if _, ok := raw["created_at"]; !ok {
		t.Error("document should carry created_at for sorting")
	}

	var back Run
	if err := bson.Unmarshal(data, &back); err != nil {
		t.Fatalf("bson.Unmarshal() error: %v", err)
	}
	if back.Exchange == nil || back.Exchange.Cycles != 2 {
		t.Errorf("Exchange = %+v, want cycles 2", back.Exchange)
	}
	if !back.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", back.CreatedAt, run.CreatedAt)
	}
}

func TestNewMongoStoreErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewMongoStore(ctx, MongoOptions{}); err == nil {
		t.Error("NewMongoStore() without URI should fail")
	}
	if _, err := NewMongoStore(ctx, MongoOptions{URI: "mongodb://localhost:27017"}); err == nil {
		t.Error("NewMongoStore() without database should fail")
	}

	_, err := NewMongoStore(ctx, MongoOptions{
		URI:        "mongodb://127.0.0.1:1",
		Database:   "homematch",
		Collection: "runs",
		Timeout:    200 * time.Millisecond,
	})
	if err == nil {
		t.Error("NewMongoStore() against a closed port should fail")
	}
}

func ids(runs []Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}
