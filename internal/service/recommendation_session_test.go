package service

import (
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"uni-wizard/internal/domain"
)

func rec(id string, band domain.LevelBand) domain.Recommendation {
	return domain.Recommendation{CourseID: domain.CourseID(id), UniversityName: "Uni " + id, LevelBand: band}
}

func fiveRecs() []domain.Recommendation {
	return []domain.Recommendation{
		rec("1", domain.LevelSafe),
		rec("2", domain.LevelModerate),
		rec("3", domain.LevelSafe),
		rec("4", domain.LevelAmbitious),
		rec("5", domain.LevelModerate),
	}
}

func TestCompareSet_Bounded(t *testing.T) {
	var c CompareSet
	for i := 1; i <= 6; i++ {
		c.Toggle(domain.CourseID(strconv.Itoa(i)))
	}
	if c.Len() != MaxCompare {
		t.Fatalf("expected %d members, got %d", MaxCompare, c.Len())
	}
	if c.Contains("5") || c.Contains("6") {
		t.Fatalf("expected adds beyond the limit to be dropped, got %v", c.IDs())
	}
	if c.Toggle("2") {
		t.Fatalf("expected toggling a member to remove it")
	}
	if c.Contains("2") || c.Len() != 3 {
		t.Fatalf("expected 2 removed, got %v", c.IDs())
	}
	if !c.Toggle("6") {
		t.Fatalf("expected add to succeed after a removal")
	}
}

func TestCompareSet_RandomToggles(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var c CompareSet
	for i := 0; i < 5000; i++ {
		id := domain.CourseID(strconv.Itoa(r.Intn(10)))
		was := c.Contains(id)
		c.Toggle(id)
		if was && c.Contains(id) {
			t.Fatalf("toggle of selected id %s did not remove it", id)
		}
		if c.Len() > MaxCompare {
			t.Fatalf("compare set grew to %d", c.Len())
		}
	}
}

func TestRecommendationSession_CountsAndActive(t *testing.T) {
	var s RecommendationSession
	if s.Active() != nil {
		t.Fatalf("expected nil active on empty set")
	}

	s.Replace(fiveRecs(), &domain.GlobalAdvice{Headline: "ok"})
	want := domain.BandCounts{Safe: 2, Moderate: 2, Ambitious: 1}
	if diff := cmp.Diff(want, s.Counts()); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if a := s.Active(); a == nil || a.CourseID != "1" {
		t.Fatalf("expected first recommendation active, got %+v", a)
	}

	if err := s.Select("4"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a := s.Active(); a.CourseID != "4" {
		t.Fatalf("expected 4 active, got %s", a.CourseID)
	}
	if err := s.Select("99"); !errors.Is(err, ErrUnknownRecommendation) {
		t.Fatalf("expected ErrUnknownRecommendation, got %v", err)
	}

	s.Replace([]domain.Recommendation{rec("7", domain.LevelSafe)}, nil)
	if a := s.Active(); a.CourseID != "7" {
		t.Fatalf("expected fallback to first after replace, got %s", a.CourseID)
	}
	if s.GlobalAdvice() != nil {
		t.Fatalf("expected advice replaced with nil")
	}

	s.Replace(nil, nil)
	if s.Active() != nil {
		t.Fatalf("expected nil active after empty replace")
	}
}

func TestRecommendationSession_ActiveFallsBackWhenSelectionMissing(t *testing.T) {
	var s RecommendationSession
	s.Replace(fiveRecs(), nil)
	s.selectedID = "gone"
	if a := s.Active(); a == nil || a.CourseID != "1" {
		t.Fatalf("expected first recommendation, got %+v", a)
	}
}

func TestRecommendationSession_ReplacePurgesCompare(t *testing.T) {
	var s RecommendationSession
	s.Replace(fiveRecs(), nil)
	for _, id := range []domain.CourseID{"1", "3", "5"} {
		if _, err := s.ToggleCompare(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
	}

	s.Replace([]domain.Recommendation{rec("3", domain.LevelSafe), rec("8", domain.LevelModerate)}, nil)
	if diff := cmp.Diff([]domain.CourseID{"3"}, s.CompareIDs()); diff != "" {
		t.Fatalf("compare ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommendationSession_CompareRecommendationsInResultOrder(t *testing.T) {
	var s RecommendationSession
	s.Replace(fiveRecs(), nil)
	_, _ = s.ToggleCompare("4")
	_, _ = s.ToggleCompare("2")

	got := s.CompareRecommendations()
	if len(got) != 2 || got[0].CourseID != "2" || got[1].CourseID != "4" {
		t.Fatalf("expected [2 4] in result order, got %+v", got)
	}

	if _, err := s.ToggleCompare("nope"); !errors.Is(err, ErrUnknownRecommendation) {
		t.Fatalf("expected ErrUnknownRecommendation, got %v", err)
	}

	s.ClearCompare()
	if len(s.CompareIDs()) != 0 {
		t.Fatalf("expected empty compare set")
	}
}
