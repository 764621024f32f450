package nodes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
)

// labelNameThreshold is the scan confidence above which a recognized product
// name is trusted enough to try a database search, keeping the label values
// as a fallback.
const labelNameThreshold = 0.6

// ProcessLabel extracts nutrition facts from a label photo, normalizing the
// values to a per-100-unit basis so portion math downstream is uniform.
func (s *Set) ProcessLabel(ctx context.Context, t *state.Turn) (*state.Update, error) {
	u := &state.Update{}

	scan, err := s.nlu.ParseNutritionLabel(ctx, t.PhotoRef)
	if err != nil {
		msg := "Could not read the nutrition label. Send a sharper photo or type the values."
		u.Errors = append(u.Errors, fmt.Sprintf("label scan: %v", err), msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	per100 := per100Custom(scan)

	// A confidently named product is worth a database lookup first; the
	// scanned values ride along as the fallback when search finds nothing.
	if scan.ProductName != "" && scan.Confidence >= labelNameThreshold {
		s.logger.Debug("label named a product, searching database first",
			zap.String("conversation_id", t.ConversationID),
			zap.String("product", scan.ProductName))
		u.ParsedItems = []state.ParsedItem{{
			Name:        scan.ProductName,
			Notes:       "from nutrition label",
			OCRFallback: per100,
		}}
		return u, nil
	}

	if per100 == nil || per100.Calories == nil {
		msg := "The label photo did not include calories. Type the values, for example: my snack 250/30/20/10 per 100g."
		u.Errors = append(u.Errors, msg)
		u.Advice = msg
		u.ShouldEnd = true
		return u, nil
	}

	u.ParsedItems = []state.ParsedItem{{
		Name:   labelName(scan),
		Notes:  "from nutrition label",
		Custom: per100,
	}}
	u.NextNode = state.NodeCustom
	return u, nil
}

// per100Custom converts scanned values to a per-100-unit basis. Labels that
// state values per serving are rescaled by 100/weight.
func per100Custom(scan *nlu.LabelScan) *state.CustomNutrition {
	if scan == nil {
		return nil
	}
	v := scan.Values
	if v.Calories == nil && v.Protein == nil && v.Fat == nil {
		return nil
	}
	mult := 1.0
	if scan.PerServingWeight > 0 && scan.PerServingWeight != 100 {
		mult = 100 / scan.PerServingWeight
	}
	scaled := v.Scale(mult)
	return &state.CustomNutrition{
		Calories:   scaled.Calories,
		Protein:    scaled.Protein,
		Carbs:      scaled.Carbohydrate,
		Fat:        scaled.Fat,
		PerHundred: true,
	}
}

func labelName(scan *nlu.LabelScan) string {
	if scan.ProductName != "" {
		return scan.ProductName
	}
	if scan.Brand != "" {
		return scan.Brand
	}
	return "scanned product"
}
