package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/foodlog/inmemory"
	"github.com/papercomputeco/platelog/pkg/state"
)

var _ = Describe("Store", func() {
	var (
		s   *inmemory.Store
		ctx context.Context
	)

	entry := func(userID int64, calories float64, consumedAt time.Time) *foodlog.Entry {
		return &foodlog.Entry{
			UserID:      userID,
			FoodName:    "Rice",
			NumServings: 1,
			Nutrition: state.Nutrition{
				Calories:     state.Float(calories),
				Protein:      state.Float(10),
				Carbohydrate: state.Float(30),
				Fat:          state.Float(5),
			},
			ConsumedAt: consumedAt,
		}
	}

	BeforeEach(func() {
		s = inmemory.NewStore()
		ctx = context.Background()
	})

	Describe("CreateEntry", func() {
		It("assigns sequential ids", func() {
			now := time.Now().UTC()

			first, err := s.CreateEntry(ctx, entry(7, 100, now))
			Expect(err).NotTo(HaveOccurred())
			second, err := s.CreateEntry(ctx, entry(7, 200, now))
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first + 1))
		})

		It("rejects an entry with no food name", func() {
			e := entry(7, 100, time.Now().UTC())
			e.FoodName = ""

			_, err := s.CreateEntry(ctx, e)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an entry with no calories", func() {
			e := entry(7, 100, time.Now().UTC())
			e.Nutrition.Calories = nil

			_, err := s.CreateEntry(ctx, e)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an entry with no consumed-at timestamp", func() {
			e := entry(7, 100, time.Time{})

			_, err := s.CreateEntry(ctx, e)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a nil entry", func() {
			_, err := s.CreateEntry(ctx, nil)
			Expect(err).To(HaveOccurred())
		})

		It("does not let the caller mutate a stored entry", func() {
			e := entry(7, 100, time.Now().UTC())
			_, err := s.CreateEntry(ctx, e)
			Expect(err).NotTo(HaveOccurred())

			e.Nutrition.Calories = state.Float(9000)

			totals, err := s.DailyTotals(ctx, 7, time.Now().UTC())
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Calories).To(BeNumerically("==", 100))
		})
	})

	Describe("DailyTotals", func() {
		It("sums only the asked-for user's day", func() {
			now := time.Now().UTC()
			yesterday := now.AddDate(0, 0, -1)

			_, err := s.CreateEntry(ctx, entry(7, 300, now))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.CreateEntry(ctx, entry(7, 450, now))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.CreateEntry(ctx, entry(7, 999, yesterday))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.CreateEntry(ctx, entry(8, 500, now))
			Expect(err).NotTo(HaveOccurred())

			totals, err := s.DailyTotals(ctx, 7, now)

			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Entries).To(Equal(2))
			Expect(totals.Calories).To(BeNumerically("==", 750))
			Expect(totals.Protein).To(BeNumerically("==", 20))
		})

		It("returns zero totals for a quiet day", func() {
			totals, err := s.DailyTotals(ctx, 7, time.Now().UTC())

			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Entries).To(BeZero())
			Expect(totals.Calories).To(BeZero())
		})

		It("skips nil nutrients without zeroing the entry count", func() {
			e := entry(7, 100, time.Now().UTC())
			e.Nutrition.Protein = nil

			_, err := s.CreateEntry(ctx, e)
			Expect(err).NotTo(HaveOccurred())

			totals, err := s.DailyTotals(ctx, 7, time.Now().UTC())
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Entries).To(Equal(1))
			Expect(totals.Protein).To(BeZero())
		})
	})

	Describe("RangeTotals", func() {
		It("includes both endpoint days", func() {
			now := time.Now().UTC()
			weekAgo := now.AddDate(0, 0, -6)
			older := now.AddDate(0, 0, -10)

			_, err := s.CreateEntry(ctx, entry(7, 100, weekAgo))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.CreateEntry(ctx, entry(7, 200, now))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.CreateEntry(ctx, entry(7, 400, older))
			Expect(err).NotTo(HaveOccurred())

			totals, err := s.RangeTotals(ctx, 7, weekAgo, now)

			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Entries).To(Equal(2))
			Expect(totals.Calories).To(BeNumerically("==", 300))
		})

		It("treats a single-day range as that whole UTC day", func() {
			day := time.Date(2026, 8, 25, 23, 30, 0, 0, time.UTC)
			early := time.Date(2026, 8, 25, 0, 15, 0, 0, time.UTC)

			_, err := s.CreateEntry(ctx, entry(7, 100, early))
			Expect(err).NotTo(HaveOccurred())

			totals, err := s.RangeTotals(ctx, 7, day, day)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals.Entries).To(Equal(1))
		})
	})
})
