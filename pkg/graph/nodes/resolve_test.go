package nodes_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/graph/nodes"
	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
)

// brokenStore fails every call, for exercising degraded paths.
type brokenStore struct{}

func (b *brokenStore) CreateEntry(context.Context, *foodlog.Entry) (int64, error) {
	return 0, errStoreDown
}

func (b *brokenStore) DailyTotals(context.Context, int64, time.Time) (*state.Totals, error) {
	return nil, errStoreDown
}

func (b *brokenStore) RangeTotals(context.Context, int64, time.Time, time.Time) (*state.Totals, error) {
	return nil, errStoreDown
}

func (b *brokenStore) Close() error { return nil }

var errStoreDown = fmt.Errorf("store down")

var _ = Describe("SelectServing", func() {
	var (
		f   *fixture
		ctx context.Context
		t   *state.Turn
	)

	gramServing := func(id string, amount, calories float64) state.Serving {
		return state.Serving{
			ID:           id,
			Description:  id,
			MetricAmount: state.Float(amount),
			MetricUnit:   "g",
			Nutrition: state.Nutrition{
				Calories: state.Float(calories),
				Protein:  state.Float(4),
			},
		}
	}

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
		t = textTurn("")
		t.SelectedFood = &state.Candidate{ID: "42", Name: "Rice"}
		t.ParsedItems = []state.ParsedItem{{Name: "rice", Quantity: state.Float(300), Unit: "g"}}
	})

	It("scales a per-100g serving by the stated weight", func() {
		f.foodDB.Servings["42"] = []state.Serving{gramServing("100g", 100, 150)}

		u, err := f.set.SelectServing(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.PendingEntries).To(HaveLen(1))
		entry := u.PendingEntries[0]
		Expect(entry.NumServings).To(BeNumerically("==", 3))
		Expect(*entry.Nutrition.Calories).To(BeNumerically("==", 450))
		Expect(u.NextNode).To(Equal(state.NodeSaveEntry))
	})

	It("counts an exact metric match as one serving", func() {
		t.ParsedItems[0].Quantity = state.Float(250)
		f.foodDB.Servings["42"] = []state.Serving{
			gramServing("250g cup", 250.5, 400),
		}

		u, err := f.set.SelectServing(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		entry := u.PendingEntries[0]
		Expect(entry.NumServings).To(BeNumerically("==", 1))
		Expect(*entry.Nutrition.Calories).To(BeNumerically("==", 400))
	})

	It("falls back to the first serving", func() {
		t.ParsedItems[0].Quantity = state.Float(2)
		t.ParsedItems[0].Unit = "pcs"
		f.foodDB.Servings["42"] = []state.Serving{
			{ID: "piece", Description: "1 piece", Nutrition: state.Nutrition{Calories: state.Float(95)}},
		}

		u, err := f.set.SelectServing(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.PendingEntries[0].ServingID).To(Equal("piece"))
		Expect(u.PendingEntries[0].NumServings).To(BeNumerically("==", 1))
	})

	It("never scales a piece count against a weight serving", func() {
		t.SelectedFood = &state.Candidate{ID: "42", Name: "Egg"}
		t.ParsedItems = []state.ParsedItem{{Name: "egg", Quantity: state.Float(2), Unit: "pcs"}}
		f.foodDB.Servings["42"] = []state.Serving{gramServing("100g", 100, 155)}

		u, err := f.set.SelectServing(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		entry := u.PendingEntries[0]
		Expect(entry.NumServings).To(BeNumerically("==", 1))
		Expect(*entry.Nutrition.Calories).To(BeNumerically("==", 155))
	})

	It("asks for the weight instead of assuming one serving", func() {
		t.ParsedItems[0].Quantity = nil
		f.foodDB.Servings["42"] = []state.Serving{gramServing("100g", 100, 150)}

		u, err := f.set.SelectServing(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.PendingEntries).To(BeEmpty())
		Expect(u.ClarificationRequests).To(HaveLen(1))
		Expect(u.ClarificationRequests[0].Type).To(Equal(state.ClarifyWeight))
		Expect(u.ShouldEnd).To(BeTrue())
	})

	It("ends with an error when no food is selected", func() {
		t.SelectedFood = nil

		u, err := f.set.SelectServing(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.ShouldEnd).To(BeTrue())
		Expect(u.Errors).NotTo(BeEmpty())
	})
})

var _ = Describe("ProcessCustom", func() {
	var (
		f   *fixture
		ctx context.Context
		t   *state.Turn
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
		t = textTurn("")
	})

	It("scales per-100g values by the portion weight", func() {
		t.ParsedItems = []state.ParsedItem{{
			Name:     "my snack",
			Quantity: state.Float(150),
			Unit:     "g",
			Custom: &state.CustomNutrition{
				Calories:   state.Float(250),
				Protein:    state.Float(30),
				Carbs:      state.Float(20),
				Fat:        state.Float(10),
				PerHundred: true,
			},
		}}

		u, err := f.set.ProcessCustom(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		entry := u.PendingEntries[0]
		Expect(*entry.Nutrition.Calories).To(BeNumerically("==", 375))
		Expect(*entry.Nutrition.Protein).To(BeNumerically("==", 45))
		Expect(*entry.Nutrition.Carbohydrate).To(BeNumerically("==", 30))
		Expect(*entry.Nutrition.Fat).To(BeNumerically("==", 15))
		Expect(entry.IsCustom).To(BeTrue())
		Expect(u.NextNode).To(Equal(state.NodeSaveEntry))
	})

	It("preserves nil nutrients through scaling", func() {
		t.ParsedItems = []state.ParsedItem{{
			Name:     "mystery drink",
			Quantity: state.Float(200),
			Custom: &state.CustomNutrition{
				Calories:   state.Float(50),
				PerHundred: true,
			},
		}}

		u, err := f.set.ProcessCustom(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		entry := u.PendingEntries[0]
		Expect(*entry.Nutrition.Calories).To(BeNumerically("==", 100))
		Expect(entry.Nutrition.Protein).To(BeNil())
	})

	It("takes per-portion values as a single serving", func() {
		t.ParsedItems = []state.ParsedItem{{
			Name:     "protein bar",
			Quantity: state.Float(60),
			Custom: &state.CustomNutrition{
				Calories: state.Float(220),
			},
		}}

		u, err := f.set.ProcessCustom(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		entry := u.PendingEntries[0]
		Expect(entry.NumServings).To(BeNumerically("==", 1))
		Expect(*entry.Nutrition.Calories).To(BeNumerically("==", 220))
	})

	It("asks for the weight per-100g values apply to", func() {
		t.ParsedItems = []state.ParsedItem{{
			Name: "my snack",
			Custom: &state.CustomNutrition{
				Calories: state.Float(250), PerHundred: true,
			},
		}}

		u, err := f.set.ProcessCustom(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.ClarificationRequests).To(HaveLen(1))
		Expect(u.ClarificationRequests[0].Type).To(Equal(state.ClarifyWeightFor100))
		Expect(u.ShouldEnd).To(BeTrue())
	})
})

var _ = Describe("SaveEntry", func() {
	var (
		f   *fixture
		ctx context.Context
		t   *state.Turn
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
		t = textTurn("ate 300g rice")
		t.PendingEntries = []state.PendingEntry{{
			FoodName:    "Rice",
			NumServings: 3,
			Nutrition:   state.Nutrition{Calories: state.Float(450)},
		}}
	})

	It("persists the entry and records its id", func() {
		u, err := f.set.SaveEntry(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.SavedEntryIDs).To(HaveLen(1))
		Expect(u.NextNode).To(Equal(state.NodeTotals))

		totals, err := f.entries.DailyTotals(ctx, 7, time.Now().UTC())
		Expect(err).NotTo(HaveOccurred())
		Expect(totals.Calories).To(BeNumerically("==", 450))
		Expect(totals.Entries).To(Equal(1))
	})

	It("publishes an entry-logged event", func() {
		_, err := f.set.SaveEntry(ctx, t)
		Expect(err).NotTo(HaveOccurred())

		Expect(f.events.Close()).To(Succeed())
		Expect(f.publisher.PublishedCount()).To(Equal(1))
		event := f.publisher.Published[0]
		Expect(event.FoodName).To(Equal("Rice"))
		Expect(event.Calories).To(BeNumerically("==", 450))
		Expect(event.EventID).NotTo(BeEmpty())
	})

	It("does not double-log a replayed turn", func() {
		t.SavedEntryIDs = []int64{11}

		u, err := f.set.SaveEntry(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.SavedEntryIDs).To(BeEmpty())
		Expect(u.NextNode).To(Equal(state.NodeTotals))

		totals, err := f.entries.DailyTotals(ctx, 7, time.Now().UTC())
		Expect(err).NotTo(HaveOccurred())
		Expect(totals.Entries).To(Equal(0))
	})

	It("fails loudly on a missing required field", func() {
		t.PendingEntries[0].Nutrition.Calories = nil

		_, err := f.set.SaveEntry(ctx, t)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("missing calories"))
	})

	It("fails loudly when nothing is pending", func() {
		t.PendingEntries = nil

		_, err := f.set.SaveEntry(ctx, t)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Totals and Advice", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
	})

	It("computes today's totals and routes to advice", func() {
		t := textTurn("")
		t.PendingEntries = []state.PendingEntry{{
			FoodName:  "Rice",
			Nutrition: state.Nutrition{Calories: state.Float(450)},
		}}
		_, err := f.set.SaveEntry(ctx, t)
		Expect(err).NotTo(HaveOccurred())

		u, err := f.set.Totals(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.DailyTotals.Calories).To(BeNumerically("==", 450))
		Expect(u.NextNode).To(Equal(state.NodeAdvice))
	})

	It("keeps going when totals fail", func() {
		set, err := nodes.NewSet(nodes.Deps{
			NLU:     f.nlu,
			FoodDB:  f.foodDB,
			Entries: &brokenStore{},
		})
		Expect(err).NotTo(HaveOccurred())

		u, err := set.Totals(ctx, textTurn(""))

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Errors).NotTo(BeEmpty())
		Expect(u.NextNode).To(Equal(state.NodeAdvice))
	})

	It("returns model advice", func() {
		f.nlu.AdviceText = "Great protein today."

		u, err := f.set.Advice(ctx, textTurn(""))

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Advice).To(Equal("Great protein today."))
		Expect(u.ShouldEnd).To(BeTrue())
	})

	It("falls back to a canned remark when advice fails", func() {
		f.nlu.FailAdvise = true

		u, err := f.set.Advice(ctx, textTurn(""))

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Advice).NotTo(BeEmpty())
		Expect(u.ShouldEnd).To(BeTrue())
	})
})

var _ = Describe("Converse", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
	})

	It("renders a totals report for view_report", func() {
		saveTurn := textTurn("")
		saveTurn.PendingEntries = []state.PendingEntry{{
			FoodName:  "Rice",
			Nutrition: state.Nutrition{Calories: state.Float(450), Protein: state.Float(12)},
		}}
		_, err := f.set.SaveEntry(ctx, saveTurn)
		Expect(err).NotTo(HaveOccurred())

		t := textTurn("how am I doing today?")
		t.Intent = state.IntentViewReport
		f.nlu.ReportResult = &nlu.ReportRequest{Period: "today"}

		u, err := f.set.Converse(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Advice).To(ContainSubstring("450 kcal"))
		Expect(u.ShouldEnd).To(BeTrue())
	})

	It("reports an empty window plainly", func() {
		t := textTurn("what did I eat yesterday?")
		t.Intent = state.IntentViewReport
		f.nlu.ReportResult = &nlu.ReportRequest{Period: "yesterday"}

		u, err := f.set.Converse(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Advice).To(ContainSubstring("No entries"))
	})

	It("chats for everything else", func() {
		t := textTurn("is protein good for me?")
		t.Intent = state.IntentQuestion
		f.nlu.ChatText = "Protein is essential."

		u, err := f.set.Converse(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Advice).To(Equal("Protein is essential."))
	})

	It("never replies with an empty message", func() {
		t := textTurn("hello")
		t.Intent = state.IntentChat
		f.nlu.FailChat = true

		u, err := f.set.Converse(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Advice).NotTo(BeEmpty())
	})
})

var _ = Describe("ProcessPhoto and ProcessLabel", func() {
	var (
		f   *fixture
		ctx context.Context
		t   *state.Turn
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
		t = state.NewTurn(7, "conv-1", state.InputPhoto, "", 1, "photo-ref", nil)
	})

	It("prefers a readable nutrition label", func() {
		f.nlu.LabelResult = &nlu.LabelScan{
			Values:           state.Nutrition{Calories: state.Float(480)},
			PerServingWeight: 100,
			Confidence:       0.9,
		}

		u, err := f.set.ProcessPhoto(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.NextNode).To(Equal(state.NodeLabel))
	})

	It("goes straight to search on a confident recognition", func() {
		f.nlu.PhotoResult = &nlu.PhotoRecognition{
			ProductName: "Greek Yogurt",
			SearchQuery: "greek yogurt",
			Confidence:  0.9,
		}

		u, err := f.set.ProcessPhoto(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.ParsedItems[0].Name).To(Equal("greek yogurt"))
		Expect(u.ClarificationRequests).To(BeEmpty())
	})

	It("asks for confirmation on a shaky recognition", func() {
		f.nlu.PhotoResult = &nlu.PhotoRecognition{
			ProductName: "Granola Bar",
			SearchQuery: "granola bar",
			Confidence:  0.4,
		}

		u, err := f.set.ProcessPhoto(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.ClarificationRequests).To(HaveLen(1))
		Expect(u.ClarificationRequests[0].Type).To(Equal(state.ClarifyConfirmation))
		Expect(u.ShouldEnd).To(BeTrue())
	})

	It("ends with guidance when nothing is recognized", func() {
		f.nlu.FailPhoto = true

		u, err := f.set.ProcessPhoto(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		Expect(u.ShouldEnd).To(BeTrue())
		Expect(u.Advice).To(ContainSubstring("describe it in text"))
	})

	It("rescales a per-serving label to a 100g basis", func() {
		f.nlu.LabelResult = &nlu.LabelScan{
			Values:           state.Nutrition{Calories: state.Float(120), Protein: state.Float(5)},
			PerServingWeight: 40,
			Confidence:       0.5,
		}

		u, err := f.set.ProcessLabel(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		custom := u.ParsedItems[0].Custom
		Expect(custom.PerHundred).To(BeTrue())
		Expect(*custom.Calories).To(BeNumerically("==", 300))
		Expect(*custom.Protein).To(BeNumerically("==", 12.5))
		Expect(u.NextNode).To(Equal(state.NodeCustom))
	})

	It("tries a database search for a confidently named product", func() {
		f.nlu.LabelResult = &nlu.LabelScan{
			ProductName:      "Oat Crunch",
			Values:           state.Nutrition{Calories: state.Float(450)},
			PerServingWeight: 100,
			Confidence:       0.8,
		}

		u, err := f.set.ProcessLabel(ctx, t)

		Expect(err).NotTo(HaveOccurred())
		item := u.ParsedItems[0]
		Expect(item.Name).To(Equal("Oat Crunch"))
		Expect(item.Custom).To(BeNil())
		Expect(item.OCRFallback).NotTo(BeNil())
		Expect(u.NextNode).To(Equal(state.NodeNone), "default route goes to search")
	})
})
