package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

func TestStepClassify_ValidCategory(t *testing.T) {
	e := newTestEngine(t,
		&fakeClassifier{result: ClassifierResult{Category: "security", Confidence: 0.95}},
		&fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil,
	)
	st := newRunState(protocol.Ticket{Subject: "2FA", Description: "Setup help"}, DefaultMaxAttempts)

	e.stepClassify(context.Background(), st)

	if st.Classification == nil {
		t.Fatal("expected classification")
	}
	if st.Classification.Category != protocol.CategorySecurity {
		t.Errorf("category = %s, want security", st.Classification.Category)
	}
	if st.Classification.Confidence != 0.95 {
		t.Errorf("confidence = %f, want 0.95", st.Classification.Confidence)
	}
}

func TestStepClassify_UnknownLabelForcedDown(t *testing.T) {
	e := newTestEngine(t,
		&fakeClassifier{result: ClassifierResult{Category: "sales", Confidence: 0.99}},
		&fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil,
	)
	st := newRunState(protocol.Ticket{Subject: "s", Description: "d"}, DefaultMaxAttempts)

	e.stepClassify(context.Background(), st)

	if st.Classification.Category != protocol.CategoryGeneral {
		t.Errorf("category = %s, want general", st.Classification.Category)
	}
	if st.Classification.Confidence != unknownCategoryConfidence {
		t.Errorf("confidence = %f, want %f", st.Classification.Confidence, unknownCategoryConfidence)
	}
}

func TestStepClassify_NormalizesLabel(t *testing.T) {
	e := newTestEngine(t,
		&fakeClassifier{result: ClassifierResult{Category: "  Billing ", Confidence: 0.8}},
		&fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil,
	)
	st := newRunState(protocol.Ticket{Subject: "s", Description: "d"}, DefaultMaxAttempts)

	e.stepClassify(context.Background(), st)

	if st.Classification.Category != protocol.CategoryBilling {
		t.Errorf("category = %s, want billing", st.Classification.Category)
	}
	if st.Classification.Confidence != 0.8 {
		t.Errorf("confidence = %f, want 0.8 (known label keeps reported confidence)", st.Classification.Confidence)
	}
}

func TestStepClassify_FailureFallsBack(t *testing.T) {
	e := newTestEngine(t,
		&fakeClassifier{err: fmt.Errorf("timeout")},
		&fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil,
	)
	st := newRunState(protocol.Ticket{Subject: "s", Description: "d"}, DefaultMaxAttempts)

	e.stepClassify(context.Background(), st)

	if st.Classification == nil {
		t.Fatal("classification failure must still produce a classification")
	}
	if st.Classification.Category != protocol.CategoryGeneral {
		t.Errorf("category = %s, want general", st.Classification.Category)
	}
	if st.Classification.Confidence != classifyFailureConfidence {
		t.Errorf("confidence = %f, want %f", st.Classification.Confidence, classifyFailureConfidence)
	}
}

func TestStepRetrieve_RequiresClassification(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{}, &fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil)
	st := newRunState(protocol.Ticket{Subject: "s", Description: "d"}, DefaultMaxAttempts)

	if err := e.stepRetrieve(st); err == nil {
		t.Fatal("retrieve without classification must fail the contract")
	}
}

func TestStepRetrieve_ReplacesPriorResult(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{}, &fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil)
	st := newRunState(loginTicket, DefaultMaxAttempts)
	st.Classification = &protocol.Classification{Category: protocol.CategoryTechnical, Confidence: 0.9}

	if err := e.stepRetrieve(st); err != nil {
		t.Fatalf("first retrieve: %v", err)
	}
	first := st.Retrieval.QueryUsed

	st.AttemptCount = 1
	st.AllReviews = append(st.AllReviews, rejectedReview(0.4, "include cache clearing steps"))

	if err := e.stepRetrieve(st); err != nil {
		t.Fatalf("second retrieve: %v", err)
	}
	if st.Retrieval.QueryUsed == first {
		t.Error("retry retrieval did not incorporate the reviewer feedback")
	}
}

func TestStepDraft_RequiresRetrieval(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{}, &fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil)
	st := newRunState(protocol.Ticket{Subject: "s", Description: "d"}, DefaultMaxAttempts)
	st.Classification = &protocol.Classification{Category: protocol.CategoryGeneral, Confidence: 0.5}

	if err := e.stepDraft(context.Background(), st); err == nil {
		t.Fatal("draft without retrieval must fail the contract")
	}
}

func TestStepReview_RequiresDraft(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{}, &fakeGenerator{drafts: []string{"x"}}, &fakeEvaluator{}, nil)
	st := newRunState(protocol.Ticket{Subject: "s", Description: "d"}, DefaultMaxAttempts)

	if err := e.stepReview(context.Background(), st); err == nil {
		t.Fatal("review without draft must fail the contract")
	}
}
