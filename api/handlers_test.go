package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	convmemory "github.com/papercomputeco/platelog/pkg/convstore/inmemory"
	"github.com/papercomputeco/platelog/pkg/foodlog"
	logmemory "github.com/papercomputeco/platelog/pkg/foodlog/inmemory"
	"github.com/papercomputeco/platelog/pkg/graph"
	"github.com/papercomputeco/platelog/pkg/graph/nodes"
	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
	testutils "github.com/papercomputeco/platelog/pkg/utils/test"
)

var _ = Describe("handleIngest", func() {
	var (
		server        *Server
		mockNLU       *testutils.MockNLU
		mockFoodDB    *testutils.MockFoodDB
		entries       *logmemory.Store
		conversations *convmemory.Driver
	)

	postIngest := func(payload IngestRequest) (*http.Response, *IngestResponse) {
		body, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())

		req, err := http.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())

		if resp.StatusCode != fiber.StatusOK {
			return resp, nil
		}
		respBody, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		var result IngestResponse
		Expect(json.Unmarshal(respBody, &result)).To(Succeed())
		return resp, &result
	}

	BeforeEach(func() {
		mockNLU = testutils.NewMockNLU()
		mockFoodDB = testutils.NewMockFoodDB()
		entries = logmemory.NewStore()
		conversations = convmemory.NewDriver()

		set, err := nodes.NewSet(nodes.Deps{
			NLU:     mockNLU,
			FoodDB:  mockFoodDB,
			Entries: entries,
		})
		Expect(err).NotTo(HaveOccurred())

		executor, err := graph.NewExecutor(graph.Config{
			Entry:    state.NodeDetectInput,
			Registry: set.Registry(),
			Routes:   graph.DefaultRoutes(),
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(
			Config{ListenAddr: ":0", ConversationTTL: time.Hour},
			executor, conversations, entries, zap.NewNop())

		// One parsed food with everything stated, one database hit, one
		// weight-based serving: the straight-through logging path.
		mockNLU.ParseResult = &nlu.ParseResult{Items: []state.ParsedItem{{
			Name:          "rice",
			Quantity:      state.Float(150),
			Unit:          "g",
			CookingMethod: "boiled",
		}}}
		mockFoodDB.Results = map[string][]state.Candidate{
			"boiled rice": {{ID: "food-1", Name: "Rice", Brand: "BrandX"}},
		}
		mockFoodDB.Servings = map[string][]state.Serving{
			"food-1": {{
				ID:           "srv-100g",
				Description:  "100 g",
				MetricAmount: state.Float(100),
				MetricUnit:   "g",
				Nutrition: state.Nutrition{
					Calories: state.Float(130),
					Protein:  state.Float(2.6),
				},
			}},
		}
	})

	It("rejects a request without a user id", func() {
		resp, _ := postIngest(IngestRequest{Text: "ate rice"})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("rejects a request with no content at all", func() {
		resp, _ := postIngest(IngestRequest{UserID: 7})
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("rejects a malformed body", func() {
		req, err := http.NewRequest(http.MethodPost, "/v1/ingest", bytes.NewReader([]byte("{not json")))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("mints a conversation id when none is supplied", func() {
		resp, result := postIngest(IngestRequest{UserID: 7, Text: "ate 150g boiled rice"})

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(result.ConversationID).NotTo(BeEmpty())
	})

	It("suspends the turn when the bot asks a question", func() {
		resp, result := postIngest(IngestRequest{
			UserID:         7,
			ConversationID: "conv-1",
			Text:           "ate 150g boiled rice",
		})

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(result.NeedsClarification).To(BeTrue())
		Expect(result.Reply).NotTo(BeEmpty())
		Expect(result.Options).To(ContainElement("Rice (BrandX)"))
		Expect(result.ClarificationRequests).To(HaveLen(1))
		Expect(result.ClarificationRequests[0].Type).To(Equal(state.ClarifyFoodSelection))
		Expect(result.ClarificationRequests[0].Options).To(Equal(result.Options))
		Expect(result.Saved).To(BeFalse())

		rec, err := conversations.Load(context.Background(), "conv-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.CurrentNode).To(Equal(state.NodeClarify))
	})

	It("resumes from a clarification answer and logs the entry", func() {
		_, first := postIngest(IngestRequest{
			UserID:         7,
			ConversationID: "conv-1",
			Text:           "ate 150g boiled rice",
		})
		Expect(first.NeedsClarification).To(BeTrue())

		resp, result := postIngest(IngestRequest{
			UserID:         7,
			ConversationID: "conv-1",
			Responses:      map[string]string{"clarif_0": "Rice (BrandX)"},
		})

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(result.Saved).To(BeTrue())
		Expect(result.EntryIDs).To(HaveLen(1))
		Expect(result.Reply).To(ContainSubstring("Logged Rice: 195 kcal"))
		Expect(result.Totals).NotTo(BeNil())
		Expect(result.Totals.Calories).To(BeNumerically("==", 195))
		Expect(result.Advice).To(Equal("Nice, keep it up!"))
		Expect(result.ClarificationRequests).To(BeEmpty())

		// The answered conversation is no longer resumable.
		_, err := conversations.Load(context.Background(), "conv-1")
		Expect(err).To(HaveOccurred())
	})

	It("starts fresh when the conversation id is unknown", func() {
		resp, result := postIngest(IngestRequest{
			UserID:         7,
			ConversationID: "conv-stale",
			Text:           "ate 150g boiled rice",
		})

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(result.ConversationID).To(Equal("conv-stale"))
		Expect(result.NeedsClarification).To(BeTrue())
	})

	It("answers a conversational message without suspending", func() {
		mockNLU.IntentResult.Intent = state.IntentChat
		mockNLU.ChatText = "Protein helps recovery."

		resp, result := postIngest(IngestRequest{UserID: 7, Text: "is protein good?"})

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(result.NeedsClarification).To(BeFalse())
		Expect(result.Reply).To(Equal("Protein helps recovery."))
		Expect(result.Saved).To(BeFalse())
	})

	It("never returns an empty reply", func() {
		mockNLU.ParseResult = &nlu.ParseResult{Items: []state.ParsedItem{}}
		mockNLU.FailParse = true

		resp, result := postIngest(IngestRequest{UserID: 7, Text: "mumble"})

		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(result.Reply).NotTo(BeEmpty())
	})
})

var _ = Describe("handleTodayTotals", func() {
	var (
		server  *Server
		entries *logmemory.Store
	)

	BeforeEach(func() {
		entries = logmemory.NewStore()

		set, err := nodes.NewSet(nodes.Deps{
			NLU:     testutils.NewMockNLU(),
			FoodDB:  testutils.NewMockFoodDB(),
			Entries: entries,
		})
		Expect(err).NotTo(HaveOccurred())
		executor, err := graph.NewExecutor(graph.Config{
			Entry:    state.NodeDetectInput,
			Registry: set.Registry(),
			Routes:   graph.DefaultRoutes(),
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, executor,
			convmemory.NewDriver(), entries, zap.NewNop())
	})

	It("requires a user id", func() {
		req, err := http.NewRequest(http.MethodGet, "/v1/log/today", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("returns the user's totals for today", func() {
		_, err := entries.CreateEntry(context.Background(), &foodlog.Entry{
			UserID:      7,
			FoodName:    "Rice",
			NumServings: 1,
			Nutrition:   state.Nutrition{Calories: state.Float(450)},
			ConsumedAt:  time.Now().UTC(),
		})
		Expect(err).NotTo(HaveOccurred())

		req, err := http.NewRequest(http.MethodGet, "/v1/log/today?user_id=7", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		respBody, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		var result TotalsResponse
		Expect(json.Unmarshal(respBody, &result)).To(Succeed())
		Expect(result.UserID).To(Equal(int64(7)))
		Expect(result.Totals.Calories).To(BeNumerically("==", 450))
		Expect(result.Totals.Entries).To(Equal(1))
	})
})

var _ = Describe("handlePing", func() {
	It("responds with pong", func() {
		set, err := nodes.NewSet(nodes.Deps{
			NLU:     testutils.NewMockNLU(),
			FoodDB:  testutils.NewMockFoodDB(),
			Entries: logmemory.NewStore(),
		})
		Expect(err).NotTo(HaveOccurred())
		executor, err := graph.NewExecutor(graph.Config{
			Entry:    state.NodeDetectInput,
			Registry: set.Registry(),
			Routes:   graph.DefaultRoutes(),
		})
		Expect(err).NotTo(HaveOccurred())
		server := NewServer(Config{ListenAddr: ":0"}, executor,
			convmemory.NewDriver(), logmemory.NewStore(), zap.NewNop())

		req, err := http.NewRequest(http.MethodGet, "/ping", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		respBody, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(respBody)).To(ContainSubstring("pong"))
	})
})
