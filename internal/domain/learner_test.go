package domain

import "testing"

func TestLearner_RecordCompletion(t *testing.T) {
	l := NewLearner("s1", "Ayşe")

	l.RecordCompletion("lesson-1", 67)
	l.RecordCompletion("lesson-2", 100)
	if l.Points != 167 {
		t.Errorf("Points = %d; want 167", l.Points)
	}

	// retake overwrites the score, points keep accumulating
	l.RecordCompletion("lesson-1", 33)
	if l.CompletedLessons["lesson-1"] != 33 {
		t.Errorf("CompletedLessons[lesson-1] = %d; want 33", l.CompletedLessons["lesson-1"])
	}
	if l.Points != 200 {
		t.Errorf("Points = %d; want 200", l.Points)
	}

	ids := l.CompletedLessonIDs()
	if len(ids) != 2 || ids[0] != "lesson-1" || ids[1] != "lesson-2" {
		t.Errorf("CompletedLessonIDs() = %v; want [lesson-1 lesson-2]", ids)
	}
}

func TestLearner_RecordCompletionNilMap(t *testing.T) {
	l := &Learner{ID: "s2"}
	l.RecordCompletion("lesson-3", 50)
	if l.CompletedLessons["lesson-3"] != 50 {
		t.Errorf("CompletedLessons[lesson-3] = %d; want 50", l.CompletedLessons["lesson-3"])
	}
}

func TestRankLearners(t *testing.T) {
	learners := []*Learner{
		{ID: "1", Name: "Zeynep", Points: 100},
		{ID: "2", Name: "Ali", Points: 250},
		{ID: "3", Name: "Can", Points: 100},
	}
	RankLearners(learners)

	want := []string{"Ali", "Can", "Zeynep"}
	for i, name := range want {
		if learners[i].Name != name {
			t.Errorf("learners[%d].Name = %q; want %q", i, learners[i].Name, name)
		}
	}
}

func TestLearner_AverageScore(t *testing.T) {
	l := NewLearner("s3", "Mehmet")
	if got := l.AverageScore(); got != 0 {
		t.Errorf("AverageScore() = %v; want 0", got)
	}
	l.RecordCompletion("lesson-1", 100)
	l.RecordCompletion("lesson-2", 50)
	if got := l.AverageScore(); got != 75 {
		t.Errorf("AverageScore() = %v; want 75", got)
	}
}
