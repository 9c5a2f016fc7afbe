package display

import (
	"testing"
	"time"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

func detail(alphaID string, volToday float64) domain.TokenDetail {
	return domain.TokenDetail{
		TokenDescriptor: domain.TokenDescriptor{AlphaID: alphaID, Symbol: alphaID},
		VolumeStats:     domain.VolumeStats{VolToday: volToday},
	}
}

func competition(alphaID string, start, end time.Time) domain.Competition {
	return domain.Competition{
		AlphaID:   alphaID,
		StartTime: &start,
		EndTime:   &end,
	}
}

func TestMerge_ActiveCompetitionBeatsVolume(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	details := []domain.TokenDetail{
		detail("Y", 1000),
		detail("X", 1),
	}
	comps := map[string]domain.Competition{
		"X": competition("X", now.Add(-time.Hour), now.Add(time.Hour)),
	}

	out := Merge(details, comps, now)

	if out[0].AlphaID != "X" || out[1].AlphaID != "Y" {
		t.Fatalf("expected [X Y], got [%s %s]", out[0].AlphaID, out[1].AlphaID)
	}
	if out[0].Competition == nil {
		t.Error("competition metadata not attached")
	}
}

func TestMerge_ExpiredCompetitionDoesNotPin(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	details := []domain.TokenDetail{
		detail("X", 1),
		detail("Y", 1000),
	}
	comps := map[string]domain.Competition{
		"X": competition("X", now.Add(-48*time.Hour), now.Add(-24*time.Hour)),
	}

	out := Merge(details, comps, now)

	if out[0].AlphaID != "Y" {
		t.Fatalf("expired competition must not pin; got %s first", out[0].AlphaID)
	}
	// Metadata stays attached even when the window is over.
	if out[1].Competition == nil {
		t.Error("expired competition metadata should still be attached")
	}
}

func TestMerge_VolumeDescendingWithStableTies(t *testing.T) {
	details := []domain.TokenDetail{
		detail("A", 50),
		detail("B", 100),
		detail("C", 50),
		detail("D", 0),
	}

	out := Merge(details, nil, time.Now())

	want := []string{"B", "A", "C", "D"}
	for i, id := range want {
		if out[i].AlphaID != id {
			t.Fatalf("position %d: got %s, want %s (full: %v)", i, out[i].AlphaID, id, ids(out))
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	details := []domain.TokenDetail{
		detail("A", 10),
		detail("B", 10),
		detail("C", 30),
	}
	comps := map[string]domain.Competition{
		"B": competition("B", now.Add(-time.Hour), now.Add(time.Hour)),
	}

	first := Merge(details, comps, now)
	second := Merge(details, comps, now)

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].AlphaID != second[i].AlphaID {
			t.Fatalf("order differs between calls: %v vs %v", ids(first), ids(second))
		}
	}
}

func TestMerge_MissingStatsSortAsZero(t *testing.T) {
	withStats := detail("A", 5)
	noStats := domain.TokenDetail{
		TokenDescriptor: domain.TokenDescriptor{AlphaID: "B", Symbol: "B"},
	}

	out := Merge([]domain.TokenDetail{noStats, withStats}, nil, time.Now())

	if len(out) != 2 {
		t.Fatalf("detail without stats must not be excluded, got %d entries", len(out))
	}
	if out[0].AlphaID != "A" {
		t.Errorf("zero-volume detail should sort last, got %v", ids(out))
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	details := []domain.TokenDetail{detail("A", 1), detail("B", 2)}

	Merge(details, nil, time.Now())

	if details[0].AlphaID != "A" || details[1].AlphaID != "B" {
		t.Errorf("input slice mutated: %v", ids(details))
	}
}

func TestTop(t *testing.T) {
	details := []domain.TokenDetail{detail("A", 1), detail("B", 2), detail("C", 3)}

	if got := Top(details, 2); len(got) != 2 {
		t.Errorf("Top(2): got %d entries", len(got))
	}
	if got := Top(details, 10); len(got) != 3 {
		t.Errorf("Top(10): got %d entries", len(got))
	}
}

func ids(details []domain.TokenDetail) []string {
	out := make([]string, len(details))
	for i, d := range details {
		out[i] = d.AlphaID
	}
	return out
}
