package state_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/platelog/pkg/state"
)

var _ = Describe("Turn", func() {
	Describe("NewTurn", func() {
		It("initializes collections non-nil", func() {
			t := state.NewTurn(7, "conv-1", state.InputText, "ate 150g rice", 42, "", nil)

			Expect(t.ParsedItems).NotTo(BeNil())
			Expect(t.Candidates).NotTo(BeNil())
			Expect(t.ClarificationResponses).NotTo(BeNil())
			Expect(t.Errors).NotTo(BeNil())
			Expect(t.ConversationID).To(Equal("conv-1"))
			Expect(t.UserID).To(Equal(int64(7)))
		})
	})

	Describe("Resume", func() {
		var prev *state.Turn

		BeforeEach(func() {
			prev = state.NewTurn(7, "conv-1", state.InputText, "ate rice", 1, "", nil)
			prev.ShouldEnd = true
			prev.Advice = "old advice"
			prev.Errors = []string{"old error"}
		})

		It("forces the clarify node for keyed responses", func() {
			t := state.Resume(prev, "", 2, map[string]string{"clarif_0": "150"})

			Expect(t.NextNode).To(Equal(state.NodeClarify))
			Expect(t.ClarificationResponses).To(HaveKeyWithValue("clarif_0", "150"))
		})

		It("routes plain text back through input detection", func() {
			t := state.Resume(prev, "ate 200g chicken", 2, nil)

			Expect(t.NextNode).To(Equal(state.NodeNone))
			Expect(t.RawText).To(Equal("ate 200g chicken"))
		})

		It("clears turn results from the previous run", func() {
			t := state.Resume(prev, "150", 2, map[string]string{"clarif_0": "150"})

			Expect(t.ShouldEnd).To(BeFalse())
			Expect(t.Advice).To(BeEmpty())
			Expect(t.Errors).To(BeEmpty())
		})

		It("does not mutate the snapshot", func() {
			_ = state.Resume(prev, "150", 2, map[string]string{"clarif_0": "150"})

			Expect(prev.ShouldEnd).To(BeTrue())
			Expect(prev.Advice).To(Equal("old advice"))
		})
	})
})

var _ = Describe("Nutrition", func() {
	Describe("Scale", func() {
		It("multiplies present values and preserves nil", func() {
			n := state.Nutrition{
				Calories: state.Float(150),
				Protein:  state.Float(4),
			}

			scaled := n.Scale(3)

			Expect(*scaled.Calories).To(BeNumerically("==", 450))
			Expect(*scaled.Protein).To(BeNumerically("==", 12))
			Expect(scaled.Fat).To(BeNil())
			Expect(scaled.Carbohydrate).To(BeNil())
		})

		It("keeps full precision", func() {
			n := state.Nutrition{Calories: state.Float(100)}

			scaled := n.Scale(1.0 / 3.0)

			Expect(*scaled.Calories).To(BeNumerically("~", 33.3333, 0.001))
		})

		It("does not mutate the receiver", func() {
			n := state.Nutrition{Calories: state.Float(100)}

			_ = n.Scale(2)

			Expect(*n.Calories).To(BeNumerically("==", 100))
		})
	})
})

var _ = Describe("Update", func() {
	Describe("Apply", func() {
		var t *state.Turn

		BeforeEach(func() {
			t = state.NewTurn(7, "conv-1", state.InputText, "ate rice", 1, "", nil)
			t.Errors = []string{"first"}
		})

		It("leaves unset fields alone", func() {
			t.Advice = "keep it"
			u := &state.Update{}

			u.Apply(t)

			Expect(t.Advice).To(Equal("keep it"))
			Expect(t.Errors).To(Equal([]string{"first"}))
		})

		It("appends errors instead of replacing them", func() {
			u := &state.Update{Errors: []string{"second"}}

			u.Apply(t)

			Expect(t.Errors).To(Equal([]string{"first", "second"}))
		})

		It("only ever sets ShouldEnd to true", func() {
			t.ShouldEnd = true
			u := &state.Update{}

			u.Apply(t)

			Expect(t.ShouldEnd).To(BeTrue())
		})

		It("clears and replaces clarifications in one step", func() {
			t.ClarificationRequests = []state.Clarification{{Type: state.ClarifyWeight}}
			u := &state.Update{
				ClearClarifications: true,
				ClarificationRequests: []state.Clarification{
					{Type: state.ClarifyFoodSelection},
				},
			}

			u.Apply(t)

			Expect(t.ClarificationRequests).To(HaveLen(1))
			Expect(t.ClarificationRequests[0].Type).To(Equal(state.ClarifyFoodSelection))
		})

		It("clears the selection when asked", func() {
			t.SelectedFood = &state.Candidate{ID: "1"}
			t.SelectedServing = &state.Serving{ID: "s1"}
			u := &state.Update{ClearSelection: true}

			u.Apply(t)

			Expect(t.SelectedFood).To(BeNil())
			Expect(t.SelectedServing).To(BeNil())
		})

		It("applies nil safely", func() {
			var u *state.Update
			Expect(func() { u.Apply(t) }).NotTo(Panic())
		})
	})
})

var _ = Describe("Codec", func() {
	It("round-trips a populated turn", func() {
		t := state.NewTurn(7, "conv-1", state.InputText, "ate 150g rice", 9, "", nil)
		t.ParsedItems = []state.ParsedItem{{Name: "рис", Quantity: state.Float(150), Unit: "g"}}
		t.Candidates = []state.Candidate{{ID: "42", Name: "Rice", Brand: "Acme"}}
		t.ClarificationRequests = []state.Clarification{{
			Type:     state.ClarifyFoodSelection,
			Question: "Which one?",
			Options:  []string{"Rice (Acme)"},
			Context:  map[string]any{"food_index": 0, "page": 2},
		}}

		data, err := state.MarshalTurn(t)
		Expect(err).NotTo(HaveOccurred())

		loaded, err := state.UnmarshalTurn(data)
		Expect(err).NotTo(HaveOccurred())

		Expect(loaded.ConversationID).To(Equal("conv-1"))
		Expect(loaded.ParsedItems).To(HaveLen(1))
		Expect(*loaded.ParsedItems[0].Quantity).To(BeNumerically("==", 150))
		Expect(loaded.ClarificationRequests[0].Options).To(Equal([]string{"Rice (Acme)"}))

		// Context ints come back as float64; CtxInt absorbs that.
		page, ok := state.CtxInt(loaded.ClarificationRequests[0].Context, "page")
		Expect(ok).To(BeTrue())
		Expect(page).To(Equal(2))
	})

	It("normalizes nil collections on load", func() {
		loaded, err := state.UnmarshalTurn([]byte(`{"user_id": 1, "conversation_id": "c"}`))
		Expect(err).NotTo(HaveOccurred())

		Expect(loaded.ParsedItems).NotTo(BeNil())
		Expect(loaded.ClarificationResponses).NotTo(BeNil())
		Expect(loaded.Errors).NotTo(BeNil())
	})

	It("rejects a nil turn", func() {
		_, err := state.MarshalTurn(nil)
		Expect(err).To(HaveOccurred())
	})
})
