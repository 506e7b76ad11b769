package service

import (
	"answer_bank_backend/internal/model"
	"answer_bank_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestSubmitAnswerCreatesQuestion(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	answer := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1",
		Content:    "1+1等于几",
		Type:       "danxuan",
		Value:      "b",
		Source:     "contributor",
		Confidence: 0.6,
	})

	if answer.Value != "B" {
		t.Errorf("letter answer should be canonicalized, got %q", answer.Value)
	}

	question, err := store.GetQuestion(context.Background(), answer.QuestionRef)
	if err != nil {
		t.Fatalf("question not created: %v", err)
	}
	if question.Type != model.TypeSingleChoice {
		t.Errorf("type should be canonicalized, got %q", question.Type)
	}
	if question.Answer != "B" {
		t.Errorf("best answer should be mirrored onto question, got %q", question.Answer)
	}
	if !answer.Accepted {
		// SubmitAnswer 返回的是重算前的引用，从存储里取最新状态
		stored, _ := store.GetAnswer(context.Background(), answer.ID)
		if !stored.Accepted {
			t.Error("sole answer should be accepted")
		}
	}
}

func TestSubmitAnswerRejectsBlank(t *testing.T) {
	svc := NewAnswerService(newMockStore())

	_, err := svc.SubmitAnswer(context.Background(), model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "   ",
	})
	if !errors.Is(err, util.ErrInvalidSubmission) {
		t.Errorf("blank value should be rejected, got %v", err)
	}

	_, err = svc.SubmitAnswer(context.Background(), model.AnswerSubmission{Value: "A"})
	if !errors.Is(err, util.ErrInvalidSubmission) {
		t.Errorf("missing content and id should be rejected, got %v", err)
	}
}

// 没有题干的提交只能挂靠已有题目，不能凭空建题
func TestSubmitAnswerWithoutContentRequiresExistingQuestion(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	_, err := svc.SubmitAnswer(context.Background(), model.AnswerSubmission{
		QuestionID: "ghost", Value: "A",
	})
	if !errors.Is(err, util.ErrInvalidSubmission) {
		t.Fatalf("submission to unknown qid without content should fail, got %v", err)
	}

	mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A", Source: "system",
	})
	answer := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Value: "B", Source: "contributor",
	})
	if answer.QuestionRef == 0 {
		t.Error("content-less submission should attach to the existing question")
	}
}

func TestSubmitAnswerDeduplicates(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	sub := model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A",
		Source: "contributor", Confidence: 0.5,
	}
	first := mustSubmit(t, svc, sub)

	sub.Confidence = 0.9
	second := mustSubmit(t, svc, sub)

	if first.ID != second.ID {
		t.Fatal("same (question, value, source) must merge into one record")
	}
	if second.Confidence != 0.9 {
		t.Errorf("merge should keep the higher confidence, got %v", second.Confidence)
	}

	// 低置信度的重复提交不回退
	sub.Confidence = 0.3
	third := mustSubmit(t, svc, sub)
	if third.Confidence != 0.9 {
		t.Errorf("lower confidence must not downgrade, got %v", third.Confidence)
	}

	answers, _ := store.ListAnswers(context.Background(), first.QuestionRef)
	if len(answers) != 1 {
		t.Errorf("expected 1 stored answer, got %d", len(answers))
	}
}

func TestBestAnswerSelection(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	a := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A",
		Source: "contributor", Confidence: 0.6,
	})
	b := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "B",
		Source: "crowd_verified", Confidence: 0.9, Verified: true,
	})

	ctx := context.Background()
	storedA, _ := store.GetAnswer(ctx, a.ID)
	storedB, _ := store.GetAnswer(ctx, b.ID)
	if storedA.Accepted {
		t.Error("unverified answer should lose accepted flag")
	}
	if !storedB.Accepted {
		t.Error("verified answer should be accepted")
	}

	question, _ := store.GetQuestion(ctx, b.QuestionRef)
	if question.Answer != "B" || !question.Verified {
		t.Errorf("question mirror should follow the best answer: %+v", question)
	}
}

// 任意时刻最多一条 accepted
func TestSingleAcceptedInvariant(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	values := []string{"A", "B", "C", "D"}
	var ref uint
	for i, v := range values {
		answer := mustSubmit(t, svc, model.AnswerSubmission{
			QuestionID: "q1", Content: "题干", Value: v,
			Source: "contributor", Confidence: 0.2 * float64(i+1),
		})
		ref = answer.QuestionRef

		answers, _ := store.ListAnswers(context.Background(), ref)
		accepted := 0
		for _, a := range answers {
			if a.Accepted {
				accepted++
			}
		}
		if accepted != 1 {
			t.Fatalf("after %d submissions got %d accepted answers", i+1, accepted)
		}
	}
}

func TestVoteChangesBest(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	a := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A",
		Source: "contributor", Confidence: 0.8,
	})
	b := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "B",
		Source: "contributor", Confidence: 0.5,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Vote(ctx, b.ID, 1); err != nil {
			t.Fatalf("Vote: %v", err)
		}
	}

	storedB, _ := store.GetAnswer(ctx, b.ID)
	if storedB.VoteCount != 3 || !storedB.Accepted {
		t.Errorf("upvoted answer should win: %+v", storedB)
	}
	storedA, _ := store.GetAnswer(ctx, a.ID)
	if storedA.Accepted {
		t.Error("previous best should be demoted")
	}

	question, _ := store.GetQuestion(ctx, a.QuestionRef)
	if question.Answer != "B" {
		t.Errorf("question mirror should flip to B, got %q", question.Answer)
	}
}

func TestVoteUnknownAnswer(t *testing.T) {
	svc := NewAnswerService(newMockStore())
	if _, err := svc.Vote(context.Background(), 42, 1); !errors.Is(err, util.ErrAnswerNotFound) {
		t.Errorf("want ErrAnswerNotFound, got %v", err)
	}
}

func TestAnswerOutranks(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Answer
		want bool
	}{
		{"verified优先", model.Answer{Verified: true}, model.Answer{VoteCount: 100, Confidence: 1}, true},
		{"crowd来源优先", model.Answer{Source: model.SourceCrowdVerified}, model.Answer{Source: model.SourceContributor, VoteCount: 10}, true},
		{"票数其次", model.Answer{Source: model.SourceContributor, VoteCount: 2}, model.Answer{Source: model.SourceContributor, VoteCount: 1, Confidence: 1}, true},
		{"置信度再次", model.Answer{Confidence: 0.9}, model.Answer{Confidence: 0.8}, true},
		{"全同先插入者胜", model.Answer{}, model.Answer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.ID, tt.b.ID = 2, 1
			if got := answerOutranks(&tt.a, &tt.b); got != tt.want {
				t.Errorf("answerOutranks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectConflicts(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A", Source: "contributor", Confidence: 0.5,
	})
	mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "a", Source: "system", Confidence: 0.7,
	})
	mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "B", Source: "contributor", Confidence: 0.9,
	})

	report, err := svc.DetectConflicts(context.Background(), "q1")
	if err != nil {
		t.Fatalf("DetectConflicts: %v", err)
	}
	if !report.HasConflict {
		t.Error("different values should flag a conflict")
	}
	if report.UniqueCount != 2 {
		t.Errorf("A 与 a 应归并为一组, got %d groups", report.UniqueCount)
	}
	if report.AnswerCount != 3 {
		t.Errorf("expected 3 stored answers, got %d", report.AnswerCount)
	}
	// 票数相同则平均置信度高的组排前：B(0.9) 在 A组(均值0.6) 之前
	if len(report.Groups) != 2 || report.Groups[0].Value != "B" {
		t.Errorf("groups should sort by votes then confidence: %+v", report.Groups)
	}
}

func TestDetectConflictsSingleValue(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)

	mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A", Source: "contributor",
	})
	mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A", Source: "system",
	})

	report, err := svc.DetectConflicts(context.Background(), "q1")
	if err != nil {
		t.Fatalf("DetectConflicts: %v", err)
	}
	if report.HasConflict {
		t.Error("same value from different sources is not a conflict")
	}
}

// 无题干挂靠提交和投票必须落在同一把题目锁上：
// 并发混跑后事务零交叠，且 accepted 不变量保持
func TestSubmitByQIDAndVoteShareQuestionLock(t *testing.T) {
	store := newMockStore()
	svc := NewAnswerService(store)
	ctx := context.Background()

	first := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A",
		Source: "contributor", Confidence: 0.6,
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			// 只带题目ID、不带题干的挂靠提交
			if _, err := svc.SubmitAnswer(ctx, model.AnswerSubmission{
				QuestionID: "q1", Value: "B",
				Source: fmt.Sprintf("contrib-%d", n), Confidence: 0.9,
			}); err != nil {
				t.Errorf("SubmitAnswer: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := svc.Vote(ctx, first.ID, 1); err != nil {
				t.Errorf("Vote: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := store.overlappedTx(); n != 0 {
		t.Fatalf("同一题的变更事务交叠了 %d 次", n)
	}

	answers, err := store.ListAnswers(ctx, first.QuestionRef)
	if err != nil {
		t.Fatalf("ListAnswers: %v", err)
	}
	accepted := 0
	for i := range answers {
		if answers[i].Accepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("got %d accepted answers, want exactly 1", accepted)
	}
}

// 瞬态存储错误应重试并最终成功
func TestSubmitAnswerRetriesTransient(t *testing.T) {
	store := newMockStore()
	store.failSaves = 1
	svc := NewAnswerService(store)

	answer := mustSubmit(t, svc, model.AnswerSubmission{
		QuestionID: "q1", Content: "题干", Value: "A", Source: "contributor",
	})
	if answer.ID == 0 {
		t.Error("submission should succeed after retry")
	}
}
